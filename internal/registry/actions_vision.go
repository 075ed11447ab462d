package registry

import (
	"context"
	"fmt"

	"deskpilot/internal/vision"
)

// Vision actions return *vision.Result unchanged. The executor watches
// for that type to perform the coordinate re-binding side effect.
func (r *Registry) registerVisionActions() {
	r.MustRegister(&Spec{
		Name:           "verify_screen",
		Category:       CategoryVision,
		Description:    "Ask the vision model whether the expected screen state is present before proceeding",
		RequiredParams: []string{"context", "expected"},
		OptionalParams: map[string]any{"confidence_threshold": 0.7},
		Returns: map[string]string{
			"safe_to_proceed":     "bool",
			"confidence":          "float",
			"analysis":            "string",
			"updated_coordinates": "object",
		},
		Examples: []string{`{"action": "verify_screen", "params": {"context": "find login", "expected": "login button visible", "confidence_threshold": 0.7}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return r.verify(ctx, params, nil)
		},
	})

	r.MustRegister(&Spec{
		Name:           "verify_element",
		Category:       CategoryVision,
		Description:    "Verify a specific element inside a screen region",
		RequiredParams: []string{"context", "expected", "x", "y", "width", "height"},
		OptionalParams: map[string]any{"confidence_threshold": 0.7},
		Returns: map[string]string{
			"safe_to_proceed": "bool",
			"confidence":      "float",
			"analysis":        "string",
		},
		Examples: []string{`{"action": "verify_element", "params": {"context": "confirm dialog", "expected": "OK button", "x": 400, "y": 300, "width": 400, "height": 200}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			region, err := regionFromParams(params)
			if err != nil {
				return nil, err
			}
			return r.verify(ctx, params, region)
		},
	})

	r.MustRegister(&Spec{
		Name:           "find_element",
		Category:       CategoryVision,
		Description:    "Locate an element on screen and report its coordinates",
		RequiredParams: []string{"description"},
		OptionalParams: map[string]any{"confidence_threshold": 0.7},
		Returns: map[string]string{
			"found":      "bool",
			"x":          "int",
			"y":          "int",
			"confidence": "float",
		},
		Examples: []string{`{"action": "find_element", "params": {"description": "blue submit button"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			vrf, err := r.vrf()
			if err != nil {
				return nil, err
			}
			desc, err := stringParam(params, "description")
			if err != nil {
				return nil, err
			}
			threshold, err := floatParam(params, "confidence_threshold")
			if err != nil {
				return nil, err
			}
			res := vrf.Verify(ctx, vision.Request{
				Context:   fmt.Sprintf("locate the element: %s", desc),
				Expected:  fmt.Sprintf("%s is visible; report its center coordinates", desc),
				Threshold: threshold,
			})
			return res, nil
		},
	})

	r.MustRegister(&Spec{
		Name:           "verify_text",
		Category:       CategoryVision,
		Description:    "Verify that specific text is visible on screen",
		RequiredParams: []string{"text"},
		OptionalParams: map[string]any{"confidence_threshold": 0.7},
		Returns: map[string]string{
			"safe_to_proceed": "bool",
			"confidence":      "float",
			"analysis":        "string",
		},
		Examples: []string{`{"action": "verify_text", "params": {"text": "Payment complete"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			vrf, err := r.vrf()
			if err != nil {
				return nil, err
			}
			text, err := stringParam(params, "text")
			if err != nil {
				return nil, err
			}
			threshold, err := floatParam(params, "confidence_threshold")
			if err != nil {
				return nil, err
			}
			res := vrf.Verify(ctx, vision.Request{
				Context:   "confirm on-screen text",
				Expected:  fmt.Sprintf("the text %q is visible on screen", text),
				Threshold: threshold,
			})
			return res, nil
		},
	})

	r.MustRegister(&Spec{
		Name:           "navigate",
		Category:       CategoryVision,
		Description:    "Run the visual navigation loop: observe the screen, act, and iterate toward a goal",
		RequiredParams: []string{"task", "goal"},
		OptionalParams: map[string]any{"max_iterations": 5},
		Returns:        map[string]string{"status": "string", "iterations": "int"},
		Examples:       []string{`{"action": "navigate", "params": {"task": "dismiss the cookie banner", "goal": "banner is gone", "max_iterations": 5}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			nav, err := r.nav()
			if err != nil {
				return nil, err
			}
			task, err := stringParam(params, "task")
			if err != nil {
				return nil, err
			}
			goal, err := stringParam(params, "goal")
			if err != nil {
				return nil, err
			}
			maxIter, err := intParam(params, "max_iterations")
			if err != nil {
				return nil, err
			}
			return nav.Navigate(ctx, task, goal, maxIter)
		},
	})
}

func (r *Registry) verify(ctx context.Context, params map[string]any, region *vision.Region) (any, error) {
	vrf, err := r.vrf()
	if err != nil {
		return nil, err
	}
	taskCtx, err := stringParam(params, "context")
	if err != nil {
		return nil, err
	}
	expected, err := stringParam(params, "expected")
	if err != nil {
		return nil, err
	}
	threshold, err := floatParam(params, "confidence_threshold")
	if err != nil {
		return nil, err
	}
	res := vrf.Verify(ctx, vision.Request{
		Context:   taskCtx,
		Expected:  expected,
		Threshold: threshold,
		Region:    region,
	})
	return res, nil
}

func regionFromParams(params map[string]any) (*vision.Region, error) {
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
	return &vision.Region{X: x, Y: y, Width: w, Height: h}, nil
}
