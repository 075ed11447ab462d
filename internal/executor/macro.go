package executor

import (
	"context"
	"fmt"

	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
)

// runMacro expands one macro invocation. The call counts as a single
// top-level action; a failing sub-action surfaces as if the macro call
// itself failed.
func (e *Executor) runMacro(ctx context.Context, prog *protocol.Program, action protocol.Action, outer map[string]any) error {
	name, ok := action.MacroName()
	if !ok {
		return fmt.Errorf("%w: macro call without a name", ErrUndefinedMacro)
	}
	body, defined := prog.Macros[name]
	if !defined {
		return fmt.Errorf("%w: %s", ErrUndefinedMacro, name)
	}
	vars, ok := action.MacroVars()
	if !ok {
		return fmt.Errorf("%w: %s: vars must be a mapping", ErrUndefinedMacro, name)
	}

	// Call-site bindings shadow the outer scope for this invocation only.
	scope := make(map[string]any, len(outer)+len(vars))
	for k, v := range outer {
		scope[k] = v
	}
	for k, v := range vars {
		scope[k] = v
	}

	logging.ExecutorDebug("macro %s: %d steps, %d bound vars", name, len(body), len(vars))
	for _, sub := range body {
		if stopped := e.checkpoint(ctx); stopped != nil {
			return stopped
		}
		if _, err := e.dispatch(ctx, prog, sub, scope); err != nil {
			return fmt.Errorf("in macro %s: %w", name, err)
		}
		e.waitAfter(sub.WaitAfterMs)
	}
	return nil
}
