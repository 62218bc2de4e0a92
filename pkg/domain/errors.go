package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoModelResponse is returned when a model call yields no message at all.
// It is unrecoverable within a turn and propagates to the caller.
var ErrNoModelResponse = errors.New("model call produced no message")

// ErrImmutableContext is returned when adding a binding to a frozen scope.
var ErrImmutableContext = errors.New("cannot add binding to immutable context")

// UnknownToolError reports a script referencing a tool that is not
// registered. It is raised at construction time, never mid-conversation.
type UnknownToolError struct {
	Name  string
	Known []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q, known tools: %v", e.Name, e.Known)
}

// ToolError is a runtime failure inside a tool body. By default it becomes
// visible tool-result content for the model rather than aborting the turn.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("tool error: %s", e.Err)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Kind returns the error-kind name used by catch matchers.
func (e *ToolError) Kind() string {
	return ErrorKind(e.Err)
}

// ErrorKind maps an error to the kind name matched by a Call statement's
// catch list.
func ErrorKind(err error) string {
	var unknown *UnknownToolError
	switch {
	case errors.As(err, &unknown):
		return "UnknownToolError"
	case errors.Is(err, ErrNoModelResponse):
		return "WorkerError"
	default:
		var kinder interface{ ErrKind() string }
		if errors.As(err, &kinder) {
			return kinder.ErrKind()
		}
		return "ToolError"
	}
}
