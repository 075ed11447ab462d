package registry

import "errors"

// Registry dispatch errors. These map one-to-one onto the executor's
// error taxonomy kinds.
var (
	// ErrUnknownAction is returned when no handler is registered under
	// the requested name.
	ErrUnknownAction = errors.New("unknown_action")

	// ErrMissingParameter is returned when a required parameter is absent.
	ErrMissingParameter = errors.New("missing_parameter")

	// ErrUnknownParameter is returned when a supplied parameter is
	// neither required nor optional for the action.
	ErrUnknownParameter = errors.New("unknown_parameter")

	// ErrInvalidParameter is returned when a parameter has the wrong type.
	ErrInvalidParameter = errors.New("invalid_parameter")

	// ErrHandlerFailed wraps any error raised by an action handler.
	ErrHandlerFailed = errors.New("handler_failed")

	// ErrNotWired is returned when a handler needs a capability that was
	// never injected.
	ErrNotWired = errors.New("capability not wired")

	// ErrAlreadyWired is returned by the one-time dependency setters on
	// a second call.
	ErrAlreadyWired = errors.New("capability already wired")

	// ErrAlreadyRegistered is returned when registering a duplicate name.
	ErrAlreadyRegistered = errors.New("action already registered")

	// ErrMacroNotDirect is returned when a macro action reaches Execute;
	// macro dispatch belongs to the executor.
	ErrMacroNotDirect = errors.New("macro actions are dispatched by the executor")

	// ErrTimeout is returned by wait_for_* actions when the bounded wait
	// expires.
	ErrTimeout = errors.New("timeout")
)
