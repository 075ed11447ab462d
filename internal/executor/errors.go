package executor

import (
	"errors"

	"deskpilot/internal/registry"
)

var (
	// ErrBusy is returned by Run when a program is already executing.
	ErrBusy = errors.New("busy")

	// ErrStopped is returned from a checkpoint when Stop was requested or
	// the context ended. It marks an orderly termination, not a failure.
	ErrStopped = errors.New("stopped by request")

	// ErrMissingVariable is a substitution failure: a token referenced a
	// variable absent from the execution context.
	ErrMissingVariable = errors.New("missing_variable")

	// ErrUndefinedMacro is returned when a macro call names a macro the
	// program does not define.
	ErrUndefinedMacro = errors.New("undefined_macro")

	// ErrDangerousAction is returned when typed text matches a deny
	// pattern outside dry-run.
	ErrDangerousAction = errors.New("dangerous_action_blocked")

	// ErrUserInterrupted fires when the pointer drifts away from the last
	// commanded position, meaning a human grabbed the mouse.
	ErrUserInterrupted = errors.New("user_interrupted")
)

// kindOf maps an error to its taxonomy kind for ExecutionError records.
// The sentinel order matters: handler_failed double-wraps the underlying
// kind, so the specific kinds are matched first.
func kindOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingVariable):
		return "missing_variable"
	case errors.Is(err, ErrUndefinedMacro):
		return "undefined_macro"
	case errors.Is(err, ErrDangerousAction):
		return "dangerous_action_blocked"
	case errors.Is(err, ErrUserInterrupted):
		return "user_interrupted"
	case errors.Is(err, registry.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, registry.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, registry.ErrUnknownParameter):
		return "unknown_parameter"
	case errors.Is(err, registry.ErrTimeout):
		return "timeout"
	default:
		return "handler_failed"
	}
}
