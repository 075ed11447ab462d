package registry

import "context"

func (r *Registry) registerWindowActions() {
	r.MustRegister(&Spec{
		Name:           "open_app",
		Category:       CategoryWindow,
		Description:    "Launch an application by name",
		RequiredParams: []string{"name"},
		Examples:       []string{`{"action": "open_app", "params": {"name": "firefox"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			name, err := stringParam(params, "name")
			if err != nil {
				return nil, err
			}
			return nil, sys.OpenApplication(name)
		},
	})

	r.MustRegister(&Spec{
		Name:           "close_app",
		Category:       CategoryWindow,
		Description:    "Close an application by name",
		RequiredParams: []string{"name"},
		Examples:       []string{`{"action": "close_app", "params": {"name": "firefox"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			name, err := stringParam(params, "name")
			if err != nil {
				return nil, err
			}
			return nil, sys.CloseApplication(name)
		},
	})

	r.MustRegister(&Spec{
		Name:        "switch_window",
		Category:    CategoryWindow,
		Description: "Cycle to the next window (alt+tab)",
		Examples:    []string{`{"action": "switch_window", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			return nil, sys.SwitchWindow()
		},
	})

	r.MustRegister(&Spec{
		Name:        "minimize_window",
		Category:    CategoryWindow,
		Description: "Minimize the active window",
		Examples:    []string{`{"action": "minimize_window", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			return nil, sys.MinimizeWindow()
		},
	})

	r.MustRegister(&Spec{
		Name:        "maximize_window",
		Category:    CategoryWindow,
		Description: "Maximize the active window",
		Examples:    []string{`{"action": "maximize_window", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			return nil, sys.MaximizeWindow()
		},
	})

	r.MustRegister(&Spec{
		Name:        "get_active_window",
		Category:    CategoryWindow,
		Description: "Report the title of the active window",
		Returns:     map[string]string{"title": "string"},
		Examples:    []string{`{"action": "get_active_window", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			title, err := sys.ActiveWindow()
			if err != nil {
				return nil, err
			}
			return map[string]any{"title": title}, nil
		},
	})
}
