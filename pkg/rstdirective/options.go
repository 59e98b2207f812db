package rstdirective

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
)

// OptString accepts any value, including an empty one, verbatim.
func OptString(value string, hasValue bool) (rstast.AttrValue, error) {
	return rstast.String(value), nil
}

// OptUnchanged is an alias for OptString, matching docutils' naming
// for "accept anything, don't even strip it" option validators.
func OptUnchanged(value string, hasValue bool) (rstast.AttrValue, error) {
	return rstast.String(value), nil
}

// OptFlag accepts no argument at all; supplying one is an error.
func OptFlag(value string, hasValue bool) (rstast.AttrValue, error) {
	if hasValue {
		return rstast.AttrValue{}, fmt.Errorf("no argument permitted; %q supplied", value)
	}
	return rstast.Bool(true), nil
}

// OptLineRanges parses a comma-separated list of line numbers and
// "start-end" ranges ("1-2, 5") into a normalized list-of-string value,
// one "start-end" entry per element (a bare number N becomes "N-N").
func OptLineRanges(value string, hasValue bool) (rstast.AttrValue, error) {
	if !hasValue {
		return rstast.AttrValue{}, fmt.Errorf("argument required but none supplied")
	}
	var ranges []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.Index(part, "-"); i > 0 {
			lo, hi = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}
		loN, err1 := strconv.Atoi(lo)
		hiN, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || loN < 1 || hiN < loN {
			return rstast.AttrValue{}, fmt.Errorf("invalid line range %q", part)
		}
		ranges = append(ranges, fmt.Sprintf("%d-%d", loN, hiN))
	}
	if len(ranges) == 0 {
		return rstast.AttrValue{}, fmt.Errorf("no line ranges in %q", value)
	}
	return rstast.Strings(ranges), nil
}

// OptNonNegativeInt requires a non-negative integer value.
func OptNonNegativeInt(value string, hasValue bool) (rstast.AttrValue, error) {
	if !hasValue {
		return rstast.AttrValue{}, fmt.Errorf("argument required but none supplied")
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return rstast.AttrValue{}, fmt.Errorf("non-negative integer required, got %q", value)
	}
	return rstast.Int(n), nil
}
