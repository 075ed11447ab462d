package registry

import (
	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
)

// RegisterAll installs the complete action catalog. Capabilities may be
// wired before or after; handlers resolve them at call time.
func RegisterAll(r *Registry) {
	r.registerKeyboardActions()
	r.registerMouseActions()
	r.registerWindowActions()
	r.registerBrowserActions()
	r.registerClipboardActions()
	r.registerFileActions()
	r.registerScreenActions()
	r.registerTimingActions()
	r.registerVisionActions()
	r.registerSystemActions()
	r.registerEditActions()

	// The macro pseudo-action has no handler: the executor intercepts it
	// and expands the named macro itself. Registering it here keeps the
	// validator's parameter contract and the planner's catalog complete.
	r.MustRegister(&Spec{
		Name:           protocol.ActionMacro,
		Category:       CategoryMacro,
		Description:    "Invoke a macro defined in the program, optionally binding variables",
		RequiredParams: []string{"name"},
		OptionalParams: map[string]any{"vars": map[string]any{}},
		Examples:       []string{`{"action": "macro", "params": {"name": "search_in_browser", "vars": {"query": "weather"}}}`},
	})

	logging.Registry("action catalog registered: %d actions", r.Count())
}
