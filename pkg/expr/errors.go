package expr

import "fmt"

// SyntaxError reports malformed embedded code. It is raised when the
// template is parsed, never during evaluation.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in ${%s} at offset %d: %s", e.Source, e.Pos, e.Msg)
}

// EvalError reports a failed evaluation of an embedded code block. It
// carries the offending source text so the calling agent gets a
// diagnosable message.
type EvalError struct {
	Source string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("failed to evaluate ${%s}: %s", e.Source, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// ErrKind names the error kind for catch matchers.
func (e *EvalError) ErrKind() string { return "ExpressionError" }

// UndefinedNameError reports a name absent from the whole scope chain. The
// visible-name list is included for diagnosability.
type UndefinedNameError struct {
	Name    string
	Visible []string
}

func (e *UndefinedNameError) Error() string {
	return fmt.Sprintf("%q is not defined, available names: %v", e.Name, e.Visible)
}
