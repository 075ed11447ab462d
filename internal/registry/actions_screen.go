package registry

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
)

func (r *Registry) registerScreenActions() {
	r.MustRegister(&Spec{
		Name:        "capture_screen",
		Category:    CategoryScreen,
		Description: "Capture the full screen",
		Returns:     map[string]string{"width": "int", "height": "int"},
		Examples:    []string{`{"action": "capture_screen", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			scr, err := r.scr()
			if err != nil {
				return nil, err
			}
			img, err := scr.CaptureFull()
			if err != nil {
				return nil, err
			}
			b := img.Bounds()
			return map[string]any{"width": b.Dx(), "height": b.Dy()}, nil
		},
	})

	r.MustRegister(&Spec{
		Name:           "capture_region",
		Category:       CategoryScreen,
		Description:    "Capture a rectangular region of the screen",
		RequiredParams: []string{"x", "y", "width", "height"},
		Returns:        map[string]string{"width": "int", "height": "int"},
		Examples:       []string{`{"action": "capture_region", "params": {"x": 0, "y": 0, "width": 800, "height": 600}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			scr, err := r.scr()
			if err != nil {
				return nil, err
			}
			x, err := intParam(params, "x")
			if err != nil {
				return nil, err
			}
			y, err := intParam(params, "y")
			if err != nil {
				return nil, err
			}
			w, err := intParam(params, "width")
			if err != nil {
				return nil, err
			}
			h, err := intParam(params, "height")
			if err != nil {
				return nil, err
			}
			img, err := scr.CaptureRegion(x, y, w, h)
			if err != nil {
				return nil, err
			}
			b := img.Bounds()
			return map[string]any{"width": b.Dx(), "height": b.Dy()}, nil
		},
	})

	r.MustRegister(&Spec{
		Name:        "capture_window",
		Category:    CategoryScreen,
		Description: "Capture the active window (full screen when the platform cannot isolate the window)",
		Returns:     map[string]string{"width": "int", "height": "int", "title": "string"},
		Examples:    []string{`{"action": "capture_window", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			scr, err := r.scr()
			if err != nil {
				return nil, err
			}
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			img, err := scr.CaptureFull()
			if err != nil {
				return nil, err
			}
			title, err := sys.ActiveWindow()
			if err != nil {
				return nil, err
			}
			b := img.Bounds()
			return map[string]any{"width": b.Dx(), "height": b.Dy(), "title": title}, nil
		},
	})

	r.MustRegister(&Spec{
		Name:           "save_screenshot",
		Category:       CategoryScreen,
		Description:    "Capture the full screen and write it to a PNG file",
		RequiredParams: []string{"path"},
		Returns:        map[string]string{"path": "string", "bytes": "int"},
		Examples:       []string{`{"action": "save_screenshot", "params": {"path": "/tmp/screen.png"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			scr, err := r.scr()
			if err != nil {
				return nil, err
			}
			path, err := stringParam(params, "path")
			if err != nil {
				return nil, err
			}
			img, err := scr.CaptureFull()
			if err != nil {
				return nil, err
			}
			data, err := encodeScreenshot(img)
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("write screenshot: %w", err)
			}
			return map[string]any{"path": path, "bytes": len(data)}, nil
		},
	})
}

func encodeScreenshot(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
