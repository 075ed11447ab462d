package registry

import "context"

func (r *Registry) registerKeyboardActions() {
	r.MustRegister(&Spec{
		Name:           "press_key",
		Category:       CategoryKeyboard,
		Description:    "Press and release a single key",
		RequiredParams: []string{"key"},
		Examples:       []string{`{"action": "press_key", "params": {"key": "enter"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			key, err := stringParam(params, "key")
			if err != nil {
				return nil, err
			}
			return nil, kb.Press(key)
		},
	})

	r.MustRegister(&Spec{
		Name:           "shortcut",
		Category:       CategoryKeyboard,
		Description:    "Press a key combination, e.g. ctrl+c",
		RequiredParams: []string{"keys"},
		Examples:       []string{`{"action": "shortcut", "params": {"keys": ["ctrl", "c"]}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			keys, err := stringsParam(params, "keys")
			if err != nil {
				return nil, err
			}
			return nil, kb.Shortcut(keys...)
		},
	})

	r.MustRegister(&Spec{
		Name:           "type",
		Category:       CategoryKeyboard,
		Description:    "Type text at the current focus",
		RequiredParams: []string{"text"},
		Examples:       []string{`{"action": "type", "params": {"text": "hello world"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			return nil, kb.Type(text, 0)
		},
	})

	r.MustRegister(&Spec{
		Name:           "type_with_delay",
		Category:       CategoryKeyboard,
		Description:    "Type text with a per-keystroke delay, for inputs that drop fast keystrokes",
		RequiredParams: []string{"text"},
		OptionalParams: map[string]any{"inter_key_delay_ms": 50},
		Examples:       []string{`{"action": "type_with_delay", "params": {"text": "slow input", "inter_key_delay_ms": 80}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			delay, err := intParam(params, "inter_key_delay_ms")
			if err != nil {
				return nil, err
			}
			return nil, kb.Type(text, delay)
		},
	})

	r.MustRegister(&Spec{
		Name:           "hold_key",
		Category:       CategoryKeyboard,
		Description:    "Hold a key down until release_key",
		RequiredParams: []string{"key"},
		Examples:       []string{`{"action": "hold_key", "params": {"key": "shift"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			key, err := stringParam(params, "key")
			if err != nil {
				return nil, err
			}
			return nil, kb.Hold(key)
		},
	})

	r.MustRegister(&Spec{
		Name:           "release_key",
		Category:       CategoryKeyboard,
		Description:    "Release a key held by hold_key",
		RequiredParams: []string{"key"},
		Examples:       []string{`{"action": "release_key", "params": {"key": "shift"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			key, err := stringParam(params, "key")
			if err != nil {
				return nil, err
			}
			return nil, kb.Release(key)
		},
	})
}
