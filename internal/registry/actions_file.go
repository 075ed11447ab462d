package registry

import (
	"context"
	"os"
)

// File actions mix direct filesystem operations (create_folder,
// delete_file) with keystroke-driven dialogs (open_file, save_as).
func (r *Registry) registerFileActions() {
	r.MustRegister(&Spec{
		Name:           "open_file",
		Category:       CategoryFile,
		Description:    "Open a file via the focused app's open dialog (ctrl+o, type path, enter)",
		RequiredParams: []string{"path"},
		Examples:       []string{`{"action": "open_file", "params": {"path": "/home/user/notes.txt"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			path, err := stringParam(params, "path")
			if err != nil {
				return nil, err
			}
			if err := kb.Shortcut("ctrl", "o"); err != nil {
				return nil, err
			}
			if err := kb.Type(path, 0); err != nil {
				return nil, err
			}
			return nil, kb.Press("enter")
		},
	})

	r.MustRegister(&Spec{
		Name:        "save_file",
		Category:    CategoryFile,
		Description: "Save the current document (ctrl+s)",
		Examples:    []string{`{"action": "save_file", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.shortcut("ctrl", "s")
		},
	})

	r.MustRegister(&Spec{
		Name:           "save_as",
		Category:       CategoryFile,
		Description:    "Save the current document under a new path (ctrl+shift+s, type path, enter)",
		RequiredParams: []string{"path"},
		Examples:       []string{`{"action": "save_as", "params": {"path": "/home/user/copy.txt"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			kb, err := r.kb()
			if err != nil {
				return nil, err
			}
			path, err := stringParam(params, "path")
			if err != nil {
				return nil, err
			}
			if err := kb.Shortcut("ctrl", "shift", "s"); err != nil {
				return nil, err
			}
			if err := kb.Type(path, 0); err != nil {
				return nil, err
			}
			return nil, kb.Press("enter")
		},
	})

	r.MustRegister(&Spec{
		Name:        "open_file_dialog",
		Category:    CategoryFile,
		Description: "Open the system file dialog",
		Examples:    []string{`{"action": "open_file_dialog", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			return nil, sys.OpenFileDialog()
		},
	})

	r.MustRegister(&Spec{
		Name:           "create_folder",
		Category:       CategoryFile,
		Description:    "Create a folder on disk, including parents",
		RequiredParams: []string{"path"},
		Examples:       []string{`{"action": "create_folder", "params": {"path": "/home/user/reports/2026"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			path, err := stringParam(params, "path")
			if err != nil {
				return nil, err
			}
			return nil, os.MkdirAll(path, 0o755)
		},
	})

	r.MustRegister(&Spec{
		Name:           "delete_file",
		Category:       CategoryFile,
		Description:    "Delete a single file on disk",
		RequiredParams: []string{"path"},
		Examples:       []string{`{"action": "delete_file", "params": {"path": "/home/user/tmp.txt"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			path, err := stringParam(params, "path")
			if err != nil {
				return nil, err
			}
			return nil, os.Remove(path)
		},
	})
}
