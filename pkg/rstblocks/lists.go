package rstblocks

import (
	"strconv"
	"strings"

	"github.com/i80and/snooty/pkg/rstast"
	"github.com/i80and/snooty/pkg/rstindent"
	"github.com/i80and/snooty/pkg/rstsm"
)

// looksLikeEnumerator applies docutils' disambiguation rule: a
// line matching the enumerator syntax is only accepted as a list start
// if the following line is blank, indented, or itself the next
// enumerator (or its auto "#" form) in the same sequence. Bare
// single-letter "text." lines (e.g. an abbreviation) are the usual
// false positive this guards against.
func looksLikeEnumerator(m *rstsm.StateMachine, line string) bool {
	next := m.NextLineText()
	if m.IsNextLineBlank() {
		return true
	}
	if leadingSpaces(next) > 0 {
		return true
	}
	nextMatch := enumLine.FindStringSubmatch(next)
	curMatch := enumLine.FindStringSubmatch(line)
	if nextMatch == nil || curMatch == nil {
		return false
	}
	cur, okCur := parseOrdinal(curMatch[2])
	nxt, okNext := parseOrdinal(nextMatch[2])
	if !okCur || !okNext {
		return false
	}
	if nxt.format == "auto" {
		return true
	}
	if cur.format == "auto" {
		cur = ordinal{format: "arabic", value: 1}
	}
	return nxt.format == cur.format && nxt.value == cur.value+1
}

func bulletListState() *rstsm.State {
	return &rstsm.State{
		Name: "BulletList",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(m *rstsm.StateMachine, _ string) rstsm.Result {
				m.NextLine()
				return rstsm.Continue
			}},
			{Name: "item", Match: func(line string) bool {
				return bulletLine.MatchString(line)
			}, Run: runBulletItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func runBulletStart(m *rstsm.StateMachine, line string) rstsm.Result {
	match := bulletLine.FindStringSubmatch(line)
	marker := []rune(match[1])[0]
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeBulletList)
	listNode.SourceID, listNode.Line = sourceID, ln
	listNode.Attrs.SetString("bullet", string(marker))
	return runMarkerList(m, "BulletList", listNode, func(child *Memo) {
		child.BulletChar = marker
	})
}

// markerContentIndent returns the column at which an item's text
// begins after a marker ending at markerEnd (a bullet, an enumerator,
// a footnote or substitution marker) followed by a run of spaces: the
// indent used to strip subsequent lines of the
// item, defaulting to markerEnd+1 when nothing follows the marker on
// its own line (the "first known indent" form).
func markerContentIndent(line string, markerEnd int) int {
	if markerEnd > len(line) {
		markerEnd = len(line)
	}
	rest := line[markerEnd:]
	trimmed := strings.TrimLeft(rest, " ")
	if trimmed == "" {
		return markerEnd + 1
	}
	return markerEnd + (len(rest) - len(trimmed))
}

func runBulletItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := bulletLine.FindStringSubmatch(line)
	marker := []rune(match[1])[0]
	if marker != memo.BulletChar {
		return rstsm.Result{EOF: true}
	}
	sourceID, ln := m.GetSourceAndLine()
	item := rstast.NewNode(rstast.NodeListItem)
	item.SourceID, item.Line = sourceID, ln
	memo.Append(item)

	firstIndent := markerContentIndent(line, len(match[1]))
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	itemMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: item,
	}
	runItemSubMachine(m, block, itemMemo, item)
	m.GotoLine(start + block.Len())
	return rstsm.Continue
}

// --- Enumerated lists -------------------------------------------------

type ordinal struct {
	format string // arabic, loweralpha, upperalpha, lowerroman, upperroman
	value  int
}

func parseOrdinal(text string) (ordinal, bool) {
	if text == "#" {
		return ordinal{format: "auto", value: 0}, true
	}
	if n, err := strconv.Atoi(text); err == nil {
		return ordinal{format: "arabic", value: n}, true
	}
	if len(text) == 1 {
		r := text[0]
		switch {
		case r == 'i' || r == 'I':
			v, _ := romanToInt(text)
			if r == 'i' {
				return ordinal{format: "lowerroman", value: v}, true
			}
			return ordinal{format: "upperroman", value: v}, true
		case r >= 'a' && r <= 'z':
			return ordinal{format: "loweralpha", value: int(r-'a') + 1}, true
		case r >= 'A' && r <= 'Z':
			return ordinal{format: "upperalpha", value: int(r-'A') + 1}, true
		}
	}
	if v, ok := romanToInt(text); ok {
		if text == strings.ToUpper(text) {
			return ordinal{format: "upperroman", value: v}, true
		}
		return ordinal{format: "lowerroman", value: v}, true
	}
	return ordinal{}, false
}

var romanValues = []struct {
	sym string
	val int
}{
	{"M", 1000}, {"CM", 900}, {"D", 500}, {"CD", 400},
	{"C", 100}, {"XC", 90}, {"L", 50}, {"XL", 40},
	{"X", 10}, {"IX", 9}, {"V", 5}, {"IV", 4}, {"I", 1},
}

// romanToInt parses an upper- or lower-case Roman numeral. It does not
// validate canonical form (e.g. "IIII" parses as 4 rather than
// rejecting), matching the leniency of the enumerator syntax this feeds.
func romanToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s)
	for _, r := range upper {
		if !strings.ContainsRune("IVXLCDM", r) {
			return 0, false
		}
	}
	total := 0
	i := 0
	for i < len(upper) {
		matched := false
		for _, rv := range romanValues {
			if strings.HasPrefix(upper[i:], rv.sym) {
				total += rv.val
				i += len(rv.sym)
				matched = true
				break
			}
		}
		if !matched {
			return 0, false
		}
	}
	return total, true
}

func enumeratedListState() *rstsm.State {
	return &rstsm.State{
		Name: "EnumeratedList",
		Transitions: []rstsm.Transition{
			{Name: "blank", Match: isBlankLine, Run: func(m *rstsm.StateMachine, _ string) rstsm.Result {
				m.NextLine()
				return rstsm.Continue
			}},
			{Name: "item", Match: func(line string) bool {
				return enumLine.MatchString(line)
			}, Run: runEnumeratedItem},
		},
		NoMatch: func(_ *rstsm.StateMachine, _ string) rstsm.Result {
			return rstsm.Result{EOF: true}
		},
	}
}

func enumAffix(match []string) string {
	switch {
	case match[1] == "(":
		return "parens"
	case match[3] == ")":
		return "rparen"
	default:
		return "period"
	}
}

func runEnumeratorStart(m *rstsm.StateMachine, line string) rstsm.Result {
	if !looksLikeEnumerator(m, line) {
		return runTextStart(m, line)
	}
	match := enumLine.FindStringSubmatch(line)
	ord, ok := parseOrdinal(match[2])
	if !ok {
		return runTextStart(m, line)
	}
	sourceID, ln := m.GetSourceAndLine()
	listNode := rstast.NewNode(rstast.NodeEnumeratedList)
	listNode.SourceID, listNode.Line = sourceID, ln
	format := ord.format
	auto := format == "auto"
	start := ord.value
	if auto {
		format = "arabic"
		start = 1
	}
	listNode.Attrs.SetString("enumtype", format)
	listNode.Attrs.SetString("prefix", "")
	listNode.Attrs.SetString("suffix", affixSuffix(enumAffix(match)))
	listNode.Attrs.SetInt("start", start)
	if !auto && format == "arabic" && start != 1 {
		sourceID, ln := m.GetSourceAndLine()
		memo := m.Memo.(*Memo)
		memo.Append(memo.system(rstast.LevelInfo,
			"Enumerated list start value not ordinal-1.", sourceID, ln))
	}
	return runMarkerList(m, "EnumeratedList", listNode, func(child *Memo) {
		child.Enum = &EnumContext{Format: format, Affix: enumAffix(match), Auto: auto, LastOrdinal: start - 1}
	})
}

func affixSuffix(affix string) string {
	switch affix {
	case "parens":
		return ")"
	case "rparen":
		return ")"
	default:
		return "."
	}
}

func runEnumeratedItem(m *rstsm.StateMachine, line string) rstsm.Result {
	memo := m.Memo.(*Memo)
	match := enumLine.FindStringSubmatch(line)
	ord, ok := parseOrdinal(match[2])
	affix := enumAffix(match)
	if !ok || memo.Enum == nil || affix != memo.Enum.Affix {
		return rstsm.Result{EOF: true}
	}
	value := ord.value
	if ord.format == "auto" {
		value = memo.Enum.LastOrdinal + 1
	} else if ord.format != memo.Enum.Format {
		return rstsm.Result{EOF: true}
	}
	if value != memo.Enum.LastOrdinal+1 {
		return rstsm.Result{EOF: true}
	}
	memo.Enum.LastOrdinal = value

	sourceID, ln := m.GetSourceAndLine()
	item := rstast.NewNode(rstast.NodeListItem)
	item.SourceID, item.Line = sourceID, ln
	memo.Append(item)

	markerEnd := len(match[1]) + len(match[2]) + len(match[3])
	firstIndent := markerContentIndent(line, markerEnd)
	start := m.AbsLineOffset()
	block, _, _, err := rstindent.FirstKnownIndent(m.Store(), start, firstIndent, false, true)
	if err != nil {
		m.NextLine()
		return rstsm.Continue
	}
	itemMemo := &Memo{
		Doc: memo.Doc, Reporter: memo.Reporter, Tokenizer: memo.Tokenizer,
		Directives: memo.Directives, SourceID: memo.SourceID, TabWidth: memo.TabWidth,
		Parent: item,
	}
	runItemSubMachine(m, block, itemMemo, item)
	m.GotoLine(start + block.Len())
	return rstsm.Continue
}
