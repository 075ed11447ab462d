package executor

import (
	"fmt"
	"strings"

	"deskpilot/internal/capability"
)

// textActions are the actions whose text parameter is screened against
// the dangerous-pattern deny list before dispatch.
var textActions = map[string]string{
	"type":                 "text",
	"type_with_delay":      "text",
	"paste_from_clipboard": "text",
	"set_clipboard":        "text",
}

// checkDangerous blocks keyboard-text steps whose input contains a deny
// pattern. Matching is a case-insensitive substring test. Dry-run skips
// the check entirely.
func (e *Executor) checkDangerous(action string, params map[string]any) error {
	if e.dryRun || len(e.dangerousPatterns) == 0 {
		return nil
	}
	paramName, screened := textActions[action]
	if !screened {
		return nil
	}
	text, ok := params[paramName].(string)
	if !ok {
		return nil
	}
	lowered := strings.ToLower(text)
	for _, pattern := range e.dangerousPatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return fmt.Errorf("%w: input matches deny pattern %q", ErrDangerousAction, pattern)
		}
	}
	return nil
}

// checkDrift compares the live pointer position against the last
// commanded position at each checkpoint. Drift past the threshold means
// a human took the mouse; the run terminates as user_interrupted.
func (e *Executor) checkDrift() error {
	if e.pointer == nil || e.driftThreshold <= 0 {
		return nil
	}
	e.mu.Lock()
	commanded := e.lastCommanded
	e.mu.Unlock()
	if commanded == nil {
		return nil
	}

	pos, err := e.pointer.Position()
	if err != nil {
		return nil // position unreadable, drift check is best-effort
	}
	if abs(pos.X-commanded.X) > e.driftThreshold || abs(pos.Y-commanded.Y) > e.driftThreshold {
		return fmt.Errorf("%w: pointer at (%d,%d), last commanded (%d,%d)",
			ErrUserInterrupted, pos.X, pos.Y, commanded.X, commanded.Y)
	}
	return nil
}

// noteCommandedPosition records where the executor last placed the
// pointer, feeding the drift check.
func (e *Executor) noteCommandedPosition(action string, params map[string]any) {
	var x, y any
	switch action {
	case "mouse_move":
		x, y = params["x"], params["y"]
	case "mouse_drag":
		x, y = params["to_x"], params["to_y"]
	default:
		return
	}
	xi, okX := asInt(x)
	yi, okY := asInt(y)
	if !okX || !okY {
		return
	}
	e.mu.Lock()
	e.lastCommanded = &capability.Point{X: xi, Y: yi}
	e.mu.Unlock()
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
