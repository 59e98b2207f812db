package rstast

import (
	"errors"
	"fmt"
)

// Severity is a diagnostic level, ordered least to most severe.
type Severity int

const (
	LevelInfo Severity = iota + 1
	LevelWarning
	LevelError
	LevelSevere
)

// String renders the severity the way docutils names its levels.
func (s Severity) String() string {
	switch s {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelSevere:
		return "SEVERE"
	default:
		return "UNKNOWN"
	}
}

// ErrHalted is returned by Reporter.Report when a diagnostic's severity
// reached halt_level; the caller is expected to unwind the parse.
var ErrHalted = errors.New("rstast: halt_level reached")

// Diagnostic is the parallel, tree-independent record of a single
// SystemMessage, kept so callers can consume diagnostics without
// walking the tree.
type Diagnostic struct {
	Severity Severity
	Message  string
	SourceID string
	Line     int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.SourceID, d.Line, d.Severity, d.Message)
}

// Reporter accumulates diagnostics and builds SystemMessage nodes.
// report_level filters which severities are kept at all; halt_level
// signals the parse should abort once reached.
type Reporter struct {
	ReportLevel Severity
	HaltLevel   Severity

	messages []Diagnostic
	halted   bool
}

// Halted reports whether a diagnostic at or above HaltLevel has been
// recorded; once true, the parse driving this Reporter stops consuming
// input.
func (r *Reporter) Halted() bool { return r.halted }

// NewReporter builds a Reporter with the given thresholds.
func NewReporter(reportLevel, haltLevel Severity) *Reporter {
	return &Reporter{ReportLevel: reportLevel, HaltLevel: haltLevel}
}

// Messages returns the diagnostics recorded so far, in emission order.
func (r *Reporter) Messages() []Diagnostic {
	out := make([]Diagnostic, len(r.messages))
	copy(out, r.messages)
	return out
}

// System builds a SystemMessage node for level/message, regardless of
// report_level (a SystemMessage is always inserted in the tree near the
// offending location; report_level only controls the parallel Diagnostic
// list and external rendering).
func System(level Severity, message, sourceID string, line int) *Node {
	n := NewNode(NodeSystemMessage)
	n.Text = message
	n.SourceID = sourceID
	n.Line = line
	n.Attrs.SetInt("level", int(level))
	n.Attrs.SetString("message", message)
	return n
}

// Report records a diagnostic (if level >= ReportLevel) and returns a
// SystemMessage node for the caller to insert into the tree. It returns
// ErrHalted (wrapping, so errors.Is still matches) when level has reached
// HaltLevel, signalling the parse must stop.
func (r *Reporter) Report(level Severity, message, sourceID string, line int) (*Node, error) {
	if level >= r.ReportLevel {
		r.messages = append(r.messages, Diagnostic{
			Severity: level, Message: message, SourceID: sourceID, Line: line,
		})
	}
	node := System(level, message, sourceID, line)
	if level >= r.HaltLevel {
		r.halted = true
		return node, fmt.Errorf("%w: %s", ErrHalted, message)
	}
	return node, nil
}

// Info is shorthand for Report(LevelInfo, ...).
func (r *Reporter) Info(message, sourceID string, line int) (*Node, error) {
	return r.Report(LevelInfo, message, sourceID, line)
}

// Warning is shorthand for Report(LevelWarning, ...).
func (r *Reporter) Warning(message, sourceID string, line int) (*Node, error) {
	return r.Report(LevelWarning, message, sourceID, line)
}

// Error is shorthand for Report(LevelError, ...).
func (r *Reporter) Error(message, sourceID string, line int) (*Node, error) {
	return r.Report(LevelError, message, sourceID, line)
}

// Severe is shorthand for Report(LevelSevere, ...).
func (r *Reporter) Severe(message, sourceID string, line int) (*Node, error) {
	return r.Report(LevelSevere, message, sourceID, line)
}
