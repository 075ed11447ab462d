package registry

import (
	"fmt"
	"math"
)

// Parameter coercion helpers. Values arrive from JSON decoding (float64
// numbers, []any arrays) or from typed substitution, so each helper
// accepts both shapes.

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: %q is required", ErrMissingParameter, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string (got %T)", ErrInvalidParameter, key, v)
	}
	return s, nil
}

func intParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q is required", ErrMissingParameter, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %q must be an integer (got %v)", ErrInvalidParameter, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %q must be an integer (got %T)", ErrInvalidParameter, key, v)
	}
}

func floatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q is required", ErrMissingParameter, key)
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q must be a number (got %T)", ErrInvalidParameter, key, v)
	}
}

func stringsParam(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q is required", ErrMissingParameter, key)
	}
	switch arr := v.(type) {
	case []string:
		return arr, nil
	case []any:
		out := make([]string, 0, len(arr))
		for _, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be an array of strings (got element %T)", ErrInvalidParameter, key, elem)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q must be an array (got %T)", ErrInvalidParameter, key, v)
	}
}

// optionalString reads a string param that has a default merged in;
// empty string counts as unset for callers that care.
func optionalString(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}
