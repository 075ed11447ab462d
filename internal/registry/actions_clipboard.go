package registry

import "context"

func (r *Registry) registerClipboardActions() {
	r.MustRegister(&Spec{
		Name:        "copy",
		Category:    CategoryClipboard,
		Description: "Copy the current selection (ctrl+c)",
		Examples:    []string{`{"action": "copy", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.shortcut("ctrl", "c")
		},
	})

	r.MustRegister(&Spec{
		Name:        "paste",
		Category:    CategoryClipboard,
		Description: "Paste the clipboard at the current focus (ctrl+v)",
		Examples:    []string{`{"action": "paste", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.shortcut("ctrl", "v")
		},
	})

	r.MustRegister(&Spec{
		Name:        "cut",
		Category:    CategoryClipboard,
		Description: "Cut the current selection (ctrl+x)",
		Examples:    []string{`{"action": "cut", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.shortcut("ctrl", "x")
		},
	})

	r.MustRegister(&Spec{
		Name:        "get_clipboard",
		Category:    CategoryClipboard,
		Description: "Read the clipboard contents",
		Returns:     map[string]string{"text": "string"},
		Examples:    []string{`{"action": "get_clipboard", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			clip, err := r.clip()
			if err != nil {
				return nil, err
			}
			text, err := clip.Read()
			if err != nil {
				return nil, err
			}
			return map[string]any{"text": text}, nil
		},
	})

	r.MustRegister(&Spec{
		Name:           "set_clipboard",
		Category:       CategoryClipboard,
		Description:    "Write text to the clipboard",
		RequiredParams: []string{"text"},
		Examples:       []string{`{"action": "set_clipboard", "params": {"text": "hello"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			clip, err := r.clip()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			return nil, clip.Write(text)
		},
	})

	r.MustRegister(&Spec{
		Name:           "paste_from_clipboard",
		Category:       CategoryClipboard,
		Description:    "Write text to the clipboard then paste it, for inputs that reject synthetic typing",
		RequiredParams: []string{"text"},
		Examples:       []string{`{"action": "paste_from_clipboard", "params": {"text": "p@ssw0rd"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			clip, err := r.clip()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			if err := clip.Write(text); err != nil {
				return nil, err
			}
			return nil, r.shortcut("ctrl", "v")
		},
	})
}

func (r *Registry) shortcut(keys ...string) error {
	kb, err := r.kb()
	if err != nil {
		return err
	}
	return kb.Shortcut(keys...)
}
