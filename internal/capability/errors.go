package capability

import "errors"

var (
	// ErrFailSafe is returned when the pointer reached a screen corner
	// and the driver aborted the in-flight operation.
	ErrFailSafe = errors.New("fail-safe triggered: pointer reached screen corner")

	// ErrUnsupported is returned for operations the platform cannot
	// perform (e.g. volume control on a headless host).
	ErrUnsupported = errors.New("operation not supported on this platform")
)
