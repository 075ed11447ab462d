package registry

import "context"

func (r *Registry) registerEditActions() {
	shortcutActions := []struct {
		name, description string
		keys              []string
	}{
		{"select_all", "Select all content in the focused control", []string{"ctrl", "a"}},
		{"undo", "Undo the last edit", []string{"ctrl", "z"}},
		{"redo", "Redo the last undone edit", []string{"ctrl", "y"}},
		{"find_replace", "Open the find-and-replace dialog", []string{"ctrl", "h"}},
	}
	for _, sa := range shortcutActions {
		keys := sa.keys
		r.MustRegister(&Spec{
			Name:        sa.name,
			Category:    CategoryEdit,
			Description: sa.description,
			Examples:    []string{`{"action": "` + sa.name + `", "params": {}}`},
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				return nil, r.shortcut(keys...)
			},
		})
	}

	r.MustRegister(&Spec{
		Name:        "delete_line",
		Category:    CategoryEdit,
		Description: "Delete the current line (home, shift+end, delete)",
		Examples:    []string{`{"action": "delete_line", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			if err := kb.Press("home"); err != nil {
				return nil, err
			}
			if err := kb.Shortcut("shift", "end"); err != nil {
				return nil, err
			}
			return nil, kb.Press("delete")
		},
	})

	r.MustRegister(&Spec{
		Name:        "duplicate_line",
		Category:    CategoryEdit,
		Description: "Duplicate the current line via select, copy, end, enter, paste",
		Examples:    []string{`{"action": "duplicate_line", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			if err := kb.Press("home"); err != nil {
				return nil, err
			}
			if err := kb.Shortcut("shift", "end"); err != nil {
				return nil, err
			}
			if err := kb.Shortcut("ctrl", "c"); err != nil {
				return nil, err
			}
			if err := kb.Press("end"); err != nil {
				return nil, err
			}
			if err := kb.Press("enter"); err != nil {
				return nil, err
			}
			return nil, kb.Shortcut("ctrl", "v")
		},
	})
}
