package registry

import (
	"context"
	"fmt"
)

// Browser actions drive whatever browser has focus through standard
// keyboard shortcuts, so they work without a browser automation bridge.
func (r *Registry) registerBrowserActions() {
	r.MustRegister(&Spec{
		Name:           "open_url",
		Category:       CategoryBrowser,
		Description:    "Open a URL in the default browser",
		RequiredParams: []string{"url"},
		Examples:       []string{`{"action": "open_url", "params": {"url": "https://example.com"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			url, err := stringParam(params, "url")
			if err != nil {
				return nil, err
			}
			return nil, sys.OpenURL(url)
		},
	})

	shortcutActions := []struct {
		name, description string
		keys              []string
	}{
		{"browser_back", "Navigate back in the focused browser", []string{"alt", "left"}},
		{"browser_forward", "Navigate forward in the focused browser", []string{"alt", "right"}},
		{"browser_refresh", "Refresh the current page", []string{"ctrl", "r"}},
		{"browser_new_tab", "Open a new browser tab", []string{"ctrl", "t"}},
		{"browser_close_tab", "Close the current browser tab", []string{"ctrl", "w"}},
		{"browser_address_bar", "Focus the browser address bar", []string{"ctrl", "l"}},
		{"browser_bookmark", "Bookmark the current page", []string{"ctrl", "d"}},
	}
	for _, sa := range shortcutActions {
		keys := sa.keys
		r.MustRegister(&Spec{
			Name:        sa.name,
			Category:    CategoryBrowser,
			Description: sa.description,
			Examples:    []string{fmt.Sprintf(`{"action": %q, "params": {}}`, sa.name)},
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				kb, err := r.kb()
				if err != nil {
					return nil, err
				}
				return nil, kb.Shortcut(keys...)
			},
		})
	}

	r.MustRegister(&Spec{
		Name:           "browser_switch_tab",
		Category:       CategoryBrowser,
		Description:    "Switch to a browser tab by number (1-8, 9 is the last tab)",
		RequiredParams: []string{"tab"},
		Examples:       []string{`{"action": "browser_switch_tab", "params": {"tab": 2}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			tab, err := intParam(params, "tab")
			if err != nil {
				return nil, err
			}
			if tab < 1 || tab > 9 {
				return nil, fmt.Errorf("%w: tab must be between 1 and 9 (got %d)", ErrInvalidParameter, tab)
			}
			return nil, kb.Shortcut("ctrl", fmt.Sprintf("%d", tab))
		},
	})

	r.MustRegister(&Spec{
		Name:           "browser_find",
		Category:       CategoryBrowser,
		Description:    "Open the browser find bar and type a search term",
		RequiredParams: []string{"text"},
		Examples:       []string{`{"action": "browser_find", "params": {"text": "checkout"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			if err := kb.Shortcut("ctrl", "f"); err != nil {
				return nil, err
			}
			return nil, kb.Type(text, 0)
		},
	})
}
