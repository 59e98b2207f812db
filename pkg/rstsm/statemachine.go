// Package rstsm implements the line-oriented state machine that drives
// the parser: a cursor over a rstline.LineStore, a run loop that
// dispatches the current line to the active state's ordered
// transition list, and the control-flow results (EOF, transition
// correction, state correction) that replace docutils' exception-based
// control flow with explicit Go values.
package rstsm

import (
	"fmt"

	"github.com/i80and/snooty/pkg/rstline"
)

// Result is what a transition handler returns to the run loop: either
// "keep going" (Result{}), or one of the three control-flow signals
// docutils models as exceptions. Exactly one of the
// non-Continue fields is meaningful at a time; if several are somehow
// set, Err takes priority, then EOF.
type Result struct {
	EOF bool

	// TransitionCorrection, when non-empty, names a transition in the
	// *current* state to retry the current line against, without
	// advancing the cursor (docutils' TransitionCorrection).
	TransitionCorrection string

	// StateCorrection, when non-empty, names a state to switch into
	// before retrying; StateCorrectionTransition optionally names the
	// transition within that state to try first (docutils'
	// StateCorrection).
	StateCorrection           string
	StateCorrectionTransition string

	// NextState, when non-empty, names the state the machine should be
	// in for the *next* line (ordinary transition, not a correction).
	NextState string

	// Err aborts the run loop entirely (e.g. Reporter halt_level
	// reached by a transition handler).
	Err error
}

// Continue is the zero Result: advance to the next line, no state
// change.
var Continue = Result{}

// Transition is one ordered entry in a State's pattern list: Match
// decides whether the transition applies to the current line, and Run
// executes it.
type Transition struct {
	Name  string
	Match func(line string) bool
	Run   func(m *StateMachine, line string) Result
}

// State is a named, ordered list of transitions, the Go analogue of a
// docutils state class.
type State struct {
	Name        string
	Transitions []Transition
	// NoMatch runs when no transition in Transitions matches the
	// current line; nil means the machine panics (a genuine
	// programming error: every real state supplies a catch-all).
	NoMatch func(m *StateMachine, line string) Result
}

// Observer is called once for each line the run loop dispatches (and
// once more when Run reaches the end of input) and on every state
// change. Cursor moves made inside a transition handler (NextLine,
// GotoLine, PreviousLine) are not reported. The CLI's --debug flag
// wires this to internal/logging.
type Observer interface {
	OnLine(sourceID string, absLine int, state string, line string)
	OnStateChange(from, to string)
}

// ParserBug is the panic-recovery boundary's error type: a genuine
// programming error (an unreachable state, a missing NoMatch handler)
// rather than a malformed-input diagnostic.
type ParserBug struct {
	State string
	Line  string
	Cause any
}

func (e *ParserBug) Error() string {
	return fmt.Sprintf("rstsm: parser bug in state %q on line %q: %v", e.State, e.Line, e.Cause)
}

// StateMachine walks a LineStore line by line, dispatching to a
// registry of named States. It carries no domain-specific bookkeeping
// itself (that lives in whatever Memo the caller threads through
// m.Memo); it only owns the cursor, the state registry, and the
// observer list.
type StateMachine struct {
	store   *rstline.LineStore
	pos     int
	states  map[string]*State
	current string

	// Memo is an arbitrary payload the caller can stash domain state
	// in (a *rstast.Document, a *rstinline.Tokenizer, a *rstast.Reporter)
	// and retrieve from within transition Run functions via
	// m.Memo.(*yourType).
	Memo any

	observers []Observer

	// StopCheck, when non-nil, is consulted before each line; a true
	// return ends the run as if EOF had been reached (how halt_level
	// stops the parse without threading an error through every
	// transition).
	StopCheck func() bool

	// pool is a one-slot reuse pool for nested sub-machines spawned by
	// Nested, mirroring docutils' sub-machine reuse.
	pool *StateMachine
}

// New builds a StateMachine over store, starting in the named initial
// state. states must include an entry for initial.
func New(store *rstline.LineStore, states map[string]*State, initial string) (*StateMachine, error) {
	if _, ok := states[initial]; !ok {
		return nil, fmt.Errorf("rstsm: unknown initial state %q", initial)
	}
	return &StateMachine{store: store, states: states, current: initial}, nil
}

// WithObserver registers obs to receive cursor-move and state-change
// notifications and returns m for chaining.
func (m *StateMachine) WithObserver(obs Observer) *StateMachine {
	m.observers = append(m.observers, obs)
	return m
}

// CurrentState returns the name of the state the machine is presently in.
func (m *StateMachine) CurrentState() string { return m.current }

// AtEOF reports whether the cursor has moved past the last line.
func (m *StateMachine) AtEOF() bool { return m.pos >= m.store.Len() }

// AbsLineNumber returns the 1-based line number of the cursor's
// current position within store (not accounting for any parent view
// the store may have); EOF returns store.Len()+1.
func (m *StateMachine) AbsLineNumber() int { return m.pos + 1 }

// AbsLineOffset returns the 0-based offset, identical to AbsLineNumber
// minus one; provided separately since callers reach for one or the
// other depending on whether they are indexing or reporting.
func (m *StateMachine) AbsLineOffset() int { return m.pos }

// GetSourceAndLine returns the provenance of the current line (or of
// the last line, at EOF), per rstline.LineStore.Info.
func (m *StateMachine) GetSourceAndLine() (sourceID string, line int) {
	return m.store.Info(m.pos)
}

// CurrentLine returns the text of the line at the cursor, or "" at EOF.
func (m *StateMachine) CurrentLine() string {
	if m.AtEOF() {
		return ""
	}
	return m.store.Text(m.pos)
}

// NextLineText returns the text of the line after the cursor, or ""
// if there isn't one.
func (m *StateMachine) NextLineText() string {
	if m.pos+1 >= m.store.Len() {
		return ""
	}
	return m.store.Text(m.pos + 1)
}

// IsNextLineBlank reports whether the line after the cursor exists and
// is blank (or doesn't exist, which the Body state treats the same as
// blank for the purposes of paragraph termination).
func (m *StateMachine) IsNextLineBlank() bool {
	if m.pos+1 >= m.store.Len() {
		return true
	}
	return isBlankLine(m.store.Text(m.pos + 1))
}

func isBlankLine(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// GotoLine moves the cursor to an absolute offset (0-based).
func (m *StateMachine) GotoLine(offset int) { m.pos = offset }

// NextLine advances the cursor by one and returns the new line's text
// and whether the move landed at EOF.
func (m *StateMachine) NextLine() (string, bool) {
	m.pos++
	return m.CurrentLine(), m.AtEOF()
}

// PreviousLine moves the cursor back by one.
func (m *StateMachine) PreviousLine() {
	if m.pos > 0 {
		m.pos--
	}
}

// Store exposes the underlying LineStore for handlers that need to
// slice out a sub-block (e.g. to hand to a nested sub-machine).
func (m *StateMachine) Store() *rstline.LineStore { return m.store }

// Run drives the machine from its current cursor position to EOF,
// dispatching each line to the current state's transitions in order.
// It recovers a panic from a transition handler and converts it into a
// *ParserBug, so a genuine programming error never escapes as a raw
// panic to a library caller.
func (m *StateMachine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParserBug{State: m.current, Line: m.CurrentLine(), Cause: r}
		}
	}()

	for !m.AtEOF() {
		if m.StopCheck != nil && m.StopCheck() {
			return nil
		}
		if stop, runErr := m.step(); stop {
			return runErr
		}
	}
	m.notifyLine()
	return nil
}

// step processes exactly one line against the current state,
// including any TransitionCorrection/StateCorrection retries, and
// reports whether the run loop should stop (EOF or error).
func (m *StateMachine) step() (bool, error) {
	m.notifyLine()
	line := m.CurrentLine()
	state := m.states[m.current]
	if state == nil {
		panic(fmt.Sprintf("unknown state %q", m.current))
	}

	result, matched := m.tryTransitions(state, line, "")
	if !matched {
		if state.NoMatch == nil {
			panic(fmt.Sprintf("state %q has no matching transition and no NoMatch handler for line %q", state.Name, line))
		}
		result = state.NoMatch(m, line)
	}

	return m.applyResult(result)
}

// tryTransitions scans state's transitions in order and runs the first
// one whose Match accepts line. When only is non-empty (a
// TransitionCorrection or StateCorrectionTransition retry), just the
// transition of that name is tried.
func (m *StateMachine) tryTransitions(state *State, line string, only string) (Result, bool) {
	for _, tr := range state.Transitions {
		if only != "" && tr.Name != only {
			continue
		}
		if tr.Match(line) {
			return tr.Run(m, line), true
		}
	}
	return Result{}, false
}

// applyResult interprets a Result returned by a transition or NoMatch
// handler, performing any correction retries, and returns (stop, err).
func (m *StateMachine) applyResult(result Result) (bool, error) {
	for {
		switch {
		case result.Err != nil:
			return true, result.Err
		case result.EOF:
			return true, nil
		case result.TransitionCorrection != "":
			state := m.states[m.current]
			r, matched := m.tryTransitions(state, m.CurrentLine(), result.TransitionCorrection)
			if !matched {
				panic(fmt.Sprintf("TransitionCorrection %q not found in state %q", result.TransitionCorrection, state.Name))
			}
			result = r
			continue
		case result.StateCorrection != "":
			m.switchState(result.StateCorrection)
			state := m.states[m.current]
			r, matched := m.tryTransitions(state, m.CurrentLine(), result.StateCorrectionTransition)
			if !matched {
				if state.NoMatch == nil {
					panic(fmt.Sprintf("StateCorrection into %q has no matching transition", state.Name))
				}
				r = state.NoMatch(m, m.CurrentLine())
			}
			result = r
			continue
		case result.NextState != "":
			m.switchState(result.NextState)
			return false, nil
		default:
			return false, nil
		}
	}
}

func (m *StateMachine) switchState(name string) {
	if _, ok := m.states[name]; !ok {
		panic(fmt.Sprintf("unknown state %q", name))
	}
	if name == m.current {
		return
	}
	for _, obs := range m.observers {
		obs.OnStateChange(m.current, name)
	}
	m.current = name
}

func (m *StateMachine) notifyLine() {
	if len(m.observers) == 0 {
		return
	}
	sourceID, line := m.GetSourceAndLine()
	for _, obs := range m.observers {
		obs.OnLine(sourceID, line, m.current, m.CurrentLine())
	}
}

// Nested builds (or reuses, from the one-slot pool) a sub-StateMachine
// over a child LineStore view, sharing this machine's state registry
// and Memo but starting in its own initial state and at its own
// cursor position. Exactly one sub-machine is pooled at a time: a
// second concurrent Nested call while the first hasn't been released
// via Release allocates a fresh one rather than reusing a machine that
// is still in use.
func (m *StateMachine) Nested(store *rstline.LineStore, initial string) (*StateMachine, error) {
	if m.pool != nil {
		sub := m.pool
		m.pool = nil
		sub.store = store
		sub.pos = 0
		sub.current = initial
		sub.Memo = m.Memo
		sub.observers = m.observers
		sub.StopCheck = m.StopCheck
		if _, ok := sub.states[initial]; !ok {
			return nil, fmt.Errorf("rstsm: unknown initial state %q", initial)
		}
		return sub, nil
	}
	sub, err := New(store, m.states, initial)
	if err != nil {
		return nil, err
	}
	sub.Memo = m.Memo
	sub.observers = m.observers
	sub.StopCheck = m.StopCheck
	return sub, nil
}

// Release returns sub to this machine's one-slot reuse pool.
func (m *StateMachine) Release(sub *StateMachine) {
	m.pool = sub
}
