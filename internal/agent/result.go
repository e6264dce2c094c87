package agent

import "fmt"

// Code is the outcome class of one state run.
type Code uint8

const (
	CodeOK Code = iota
	// CodeCant: the action is illegal right now; recoverable.
	CodeCant
	// CodeLock: finish the round, then resume this state after Init.
	CodeLock
	// CodeEndOfTurn: skip straight to end-of-round bookkeeping.
	CodeEndOfTurn
	// CodeWarn: running behind or low on budget.
	CodeWarn
	// CodeErr: protocol anomaly; logged, never fatal.
	CodeErr

	codeCount
)

// CodeAny matches every code in a transition table row.
const CodeAny = codeCount

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeCant:
		return "CANT"
	case CodeLock:
		return "LOCK"
	case CodeEndOfTurn:
		return "END_OF_TURN"
	case CodeWarn:
		return "WARN"
	case CodeErr:
		return "ERR"
	case CodeAny:
		return "ANY"
	default:
		return "unknown"
	}
}

// Result is returned by every state run.
type Result struct {
	Code Code
	Msg  string
}

func (r Result) String() string {
	if r.Msg == "" {
		return r.Code.String()
	}
	return fmt.Sprintf("%s(%s)", r.Code, r.Msg)
}

func ok(msg string) Result        { return Result{Code: CodeOK, Msg: msg} }
func cant(msg string) Result      { return Result{Code: CodeCant, Msg: msg} }
func lock(msg string) Result      { return Result{Code: CodeLock, Msg: msg} }
func endOfTurn(msg string) Result { return Result{Code: CodeEndOfTurn, Msg: msg} }
func warn(msg string) Result      { return Result{Code: CodeWarn, Msg: msg} }
func fail(msg string) Result      { return Result{Code: CodeErr, Msg: msg} }
