package registry

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"deskpilot/internal/vision"
)

const waitPollInterval = 250 * time.Millisecond

func (r *Registry) registerTimingActions() {
	r.MustRegister(&Spec{
		Name:           "delay",
		Category:       CategoryTiming,
		Description:    "Wait for a fixed number of milliseconds",
		RequiredParams: []string{"ms"},
		Examples:       []string{`{"action": "delay", "params": {"ms": 500}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ms, err := intParam(params, "ms")
			if err != nil {
				return nil, err
			}
			return nil, sleepCtx(ctx, time.Duration(ms)*time.Millisecond)
		},
	})

	r.MustRegister(&Spec{
		Name:           "wait_for_window",
		Category:       CategoryTiming,
		Description:    "Wait until the active window title contains the given text",
		RequiredParams: []string{"title"},
		OptionalParams: map[string]any{"timeout_ms": 10000},
		Returns:        map[string]string{"title": "string"},
		Examples:       []string{`{"action": "wait_for_window", "params": {"title": "Downloads", "timeout_ms": 5000}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			sys, err := r.sys()
			if err != nil {
				return nil, err
			}
			want, err := stringParam(params, "title")
			if err != nil {
				return nil, err
			}
			timeout, err := intParam(params, "timeout_ms")
			if err != nil {
				return nil, err
			}
			return pollUntil(ctx, timeout, fmt.Sprintf("window %q", want), func() (any, bool, error) {
				title, err := sys.ActiveWindow()
				if err != nil {
					return nil, false, err
				}
				if strings.Contains(strings.ToLower(title), strings.ToLower(want)) {
					return map[string]any{"title": title}, true, nil
				}
				return nil, false, nil
			})
		},
	})

	r.MustRegister(&Spec{
		Name:           "wait_for_image",
		Category:       CategoryTiming,
		Description:    "Wait until the described element is visible on screen, checked by the vision model",
		RequiredParams: []string{"description"},
		OptionalParams: map[string]any{"timeout_ms": 10000, "confidence_threshold": 0.7},
		Returns:        map[string]string{"confidence": "float"},
		Examples:       []string{`{"action": "wait_for_image", "params": {"description": "save confirmation dialog"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			vrf, err := r.vrf()
			if err != nil {
				return nil, err
			}
			desc, err := stringParam(params, "description")
			if err != nil {
				return nil, err
			}
			timeout, err := intParam(params, "timeout_ms")
			if err != nil {
				return nil, err
			}
			threshold, err := floatParam(params, "confidence_threshold")
			if err != nil {
				return nil, err
			}
			return pollUntil(ctx, timeout, fmt.Sprintf("image %q", desc), func() (any, bool, error) {
				res := vrf.Verify(ctx, vision.Request{
					Context:   "waiting for an element to appear",
					Expected:  desc,
					Threshold: threshold,
				})
				if res.SafeToProceed {
					return map[string]any{"confidence": res.Confidence}, true, nil
				}
				return nil, false, nil
			})
		},
	})

	r.MustRegister(&Spec{
		Name:           "wait_for_color",
		Category:       CategoryTiming,
		Description:    "Wait until the pixel at (x,y) matches a hex color like #ff8800",
		RequiredParams: []string{"x", "y", "color"},
		OptionalParams: map[string]any{"timeout_ms": 10000, "tolerance": 10},
		Examples:       []string{`{"action": "wait_for_color", "params": {"x": 100, "y": 200, "color": "#00ff00"}}`},
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
			hex, err := stringParam(params, "color")
			if err != nil {
				return nil, err
			}
			want, err := parseHexColor(hex)
			if err != nil {
				return nil, err
			}
			timeout, err := intParam(params, "timeout_ms")
			if err != nil {
				return nil, err
			}
			tolerance, err := intParam(params, "tolerance")
			if err != nil {
				return nil, err
			}
			return pollUntil(ctx, timeout, fmt.Sprintf("color %s at (%d,%d)", hex, x, y), func() (any, bool, error) {
				img, err := scr.CaptureRegion(x, y, 1, 1)
				if err != nil {
					return nil, false, err
				}
				got := color.RGBAModel.Convert(img.At(img.Bounds().Min.X, img.Bounds().Min.Y)).(color.RGBA)
				if colorClose(got, want, tolerance) {
					return nil, true, nil
				}
				return nil, false, nil
			})
		},
	})
}

// pollUntil runs check every waitPollInterval until it reports done or
// the timeout elapses.
func pollUntil(ctx context.Context, timeoutMs int, what string, check func() (any, bool, error)) (any, error) {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for {
		result, done, err := check()
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: waiting for %s (%dms)", ErrTimeout, what, timeoutMs)
		}
		if err := sleepCtx(ctx, waitPollInterval); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color must be #rrggbb (got %q)", ErrInvalidParameter, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color must be #rrggbb (got %q)", ErrInvalidParameter, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func colorClose(a, b color.RGBA, tolerance int) bool {
	diff := func(x, y uint8) int {
		d := int(x) - int(y)
		if d < 0 {
			d = -d
		}
		return d
	}
	return diff(a.R, b.R) <= tolerance && diff(a.G, b.G) <= tolerance && diff(a.B, b.B) <= tolerance
}
