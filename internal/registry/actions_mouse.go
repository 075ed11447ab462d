package registry

import (
	"context"
	"fmt"

	"deskpilot/internal/capability"
)

func parseButton(s string) (capability.MouseButton, error) {
	switch capability.MouseButton(s) {
	case capability.ButtonLeft, capability.ButtonRight, capability.ButtonMiddle:
		return capability.MouseButton(s), nil
	default:
		return "", fmt.Errorf("%w: button must be left, right or middle (got %q)", ErrInvalidParameter, s)
	}
}

func parseDirection(s string) (capability.ScrollDirection, error) {
	switch capability.ScrollDirection(s) {
	case capability.ScrollUp, capability.ScrollDown, capability.ScrollLeft, capability.ScrollRight:
		return capability.ScrollDirection(s), nil
	default:
		return "", fmt.Errorf("%w: direction must be up, down, left or right (got %q)", ErrInvalidParameter, s)
	}
}

func moveOptions(params map[string]any) capability.MoveOptions {
	opts := capability.MoveOptions{Profile: capability.MotionStraight, Speed: 1.0}
	if p := optionalString(params, "profile"); p != "" {
		opts.Profile = capability.MotionProfile(p)
	}
	if s, err := floatParam(params, "speed"); err == nil && s > 0 {
		opts.Speed = s
	}
	return opts
}

func (r *Registry) registerMouseActions() {
	r.MustRegister(&Spec{
		Name:           "mouse_move",
		Category:       CategoryMouse,
		Description:    "Move the pointer to absolute screen coordinates",
		RequiredParams: []string{"x", "y"},
		OptionalParams: map[string]any{"profile": "straight", "speed": 1.0},
		Examples:       []string{`{"action": "mouse_move", "params": {"x": 640, "y": 360}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ptr, err := r.ptr()
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
			return nil, ptr.Move(x, y, moveOptions(params))
		},
	})

	r.MustRegister(&Spec{
		Name:           "mouse_click",
		Category:       CategoryMouse,
		Description:    "Click at the current pointer position",
		OptionalParams: map[string]any{"button": "left"},
		Examples:       []string{`{"action": "mouse_click", "params": {"button": "left"}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.click(params, 1)
		},
	})

	r.MustRegister(&Spec{
		Name:           "mouse_double_click",
		Category:       CategoryMouse,
		Description:    "Double-click at the current pointer position",
		OptionalParams: map[string]any{"button": "left"},
		Examples:       []string{`{"action": "mouse_double_click", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, r.click(params, 2)
		},
	})

	r.MustRegister(&Spec{
		Name:        "mouse_right_click",
		Category:    CategoryMouse,
		Description: "Right-click at the current pointer position",
		Examples:    []string{`{"action": "mouse_right_click", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ptr, err := r.ptr()
			if err != nil {
				return nil, err
			}
			return nil, ptr.Click(capability.ButtonRight, 1)
		},
	})

	r.MustRegister(&Spec{
		Name:           "mouse_drag",
		Category:       CategoryMouse,
		Description:    "Drag from the current pointer position to target coordinates",
		RequiredParams: []string{"to_x", "to_y"},
		Examples:       []string{`{"action": "mouse_drag", "params": {"to_x": 800, "to_y": 200}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ptr, err := r.ptr()
			if err != nil {
				return nil, err
			}
			x, err := intParam(params, "to_x")
			if err != nil {
				return nil, err
			}
			y, err := intParam(params, "to_y")
			if err != nil {
				return nil, err
			}
			return nil, ptr.Drag(x, y)
		},
	})

	r.MustRegister(&Spec{
		Name:           "mouse_scroll",
		Category:       CategoryMouse,
		Description:    "Scroll the wheel in a direction",
		RequiredParams: []string{"direction"},
		OptionalParams: map[string]any{"amount": 3},
		Examples:       []string{`{"action": "mouse_scroll", "params": {"direction": "down", "amount": 5}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ptr, err := r.ptr()
			if err != nil {
				return nil, err
			}
			dir, err := stringParam(params, "direction")
			if err != nil {
				return nil, err
			}
			direction, err := parseDirection(dir)
			if err != nil {
				return nil, err
			}
			amount, err := intParam(params, "amount")
			if err != nil {
				return nil, err
			}
			return nil, ptr.Scroll(direction, amount)
		},
	})

	r.MustRegister(&Spec{
		Name:        "mouse_position",
		Category:    CategoryMouse,
		Description: "Report the current pointer position",
		Returns:     map[string]string{"x": "int", "y": "int"},
		Examples:    []string{`{"action": "mouse_position", "params": {}}`},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			ptr, err := r.ptr()
			if err != nil {
				return nil, err
			}
			pos, err := ptr.Position()
			if err != nil {
				return nil, err
			}
			return map[string]any{"x": pos.X, "y": pos.Y}, nil
		},
	})
}

func (r *Registry) click(params map[string]any, clicks int) error {
	ptr, err := r.ptr()
	if err != nil {
		return err
	}
	btn, err := stringParam(params, "button")
	if err != nil {
		return err
	}
	button, err := parseButton(btn)
	if err != nil {
		return err
	}
	return ptr.Click(button, clicks)
}
