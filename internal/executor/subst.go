package executor

import (
	"fmt"
	"sort"
	"strings"

	"deskpilot/internal/protocol"
)

// substituteParams resolves {{identifier}} tokens in a parameter map
// against the given scope. Maps and arrays recurse; non-string leaves
// pass through untouched.
func substituteParams(params map[string]any, scope map[string]any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		substituted, err := substituteValue(value, scope)
		if err != nil {
			return nil, err
		}
		out[key] = substituted
	}
	return out, nil
}

func substituteValue(value any, scope map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return substituteString(v, scope)
	case map[string]any:
		return substituteParams(v, scope)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			substituted, err := substituteValue(elem, scope)
			if err != nil {
				return nil, err
			}
			out[i] = substituted
		}
		return out, nil
	default:
		return value, nil
	}
}

// substituteString resolves tokens in one leaf string. A string that is
// exactly one token yields the raw typed value from scope, so integer
// coordinates survive substitution. Mixed strings interpolate each token
// as text.
func substituteString(s string, scope map[string]any) (any, error) {
	tokens := protocol.Tokens(s)
	if len(tokens) == 0 {
		return s, nil
	}

	var missing []string
	for _, name := range tokens {
		if _, ok := scope[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (available: %s)",
			ErrMissingVariable, strings.Join(missing, ", "), strings.Join(availableNames(scope), ", "))
	}

	if name, ok := protocol.IsToken(s); ok {
		return scope[name], nil
	}

	return protocol.ReplaceTokens(s, func(name string) string {
		return fmt.Sprintf("%v", scope[name])
	}), nil
}

func availableNames(scope map[string]any) []string {
	names := make([]string, 0, len(scope))
	for name := range scope {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
