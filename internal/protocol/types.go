// Package protocol defines the instruction program exchanged between the
// planner and the actuator: the Program document, its actions and macros,
// the JSON parser, and the layered validator.
package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ActionMacro is the reserved action name that invokes a macro. The
// executor intercepts it; it never reaches a registry handler.
const ActionMacro = "macro"

// Complexity levels for program metadata.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Program is the root document transmitted between processes.
type Program struct {
	// Version is the schema version, e.g. "1.0".
	Version string `json:"version"`

	Metadata Metadata `json:"metadata"`

	// Macros maps macro names to their action sequences.
	Macros map[string][]Action `json:"macros,omitempty"`

	// Actions is the top-level program body.
	Actions []Action `json:"actions"`
}

// Metadata describes a program for humans and for scheduling.
type Metadata struct {
	Description string `json:"description"`
	Complexity  string `json:"complexity"`
	UsesVision  bool   `json:"uses_vision"`

	// EstimatedDurationSeconds is optional; zero means not supplied.
	EstimatedDurationSeconds int `json:"estimated_duration_seconds,omitempty"`
}

// Action is one instruction.
type Action struct {
	// Action is a registered action name or the reserved name "macro".
	Action string `json:"action"`

	// Params maps parameter names to values. Leaf strings may contain
	// {{identifier}} substitution tokens.
	Params map[string]any `json:"params,omitempty"`

	// WaitAfterMs is slept after the handler returns successfully.
	WaitAfterMs int `json:"wait_after_ms,omitempty"`

	// Description is an optional human label for logs.
	Description string `json:"description,omitempty"`
}

// ScreenSize carries known screen dimensions for coordinate validation.
type ScreenSize struct {
	Width  int
	Height int
}

// tokenRe matches {{identifier}} substitution tokens.
var tokenRe = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// wholeTokenRe matches strings that are exactly one token.
var wholeTokenRe = regexp.MustCompile(`^\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}$`)

// Tokens returns the identifiers of all substitution tokens in s, in
// order of appearance. Duplicates are preserved.
func Tokens(s string) []string {
	matches := tokenRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// IsToken reports whether s is exactly one substitution token, and if so
// returns its identifier.
func IsToken(s string) (string, bool) {
	m := wholeTokenRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasToken reports whether s contains at least one substitution token.
func HasToken(s string) bool {
	return tokenRe.MatchString(s)
}

// ReplaceTokens rewrites every token in s through fn. fn receives the
// identifier and returns the replacement text.
func ReplaceTokens(s string, fn func(name string) string) string {
	return tokenRe.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-2]
		return fn(name)
	})
}

// Marshal serializes the program as compact JSON.
func (p *Program) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal program: %w", err)
	}
	return data, nil
}

// MacroName extracts the macro name from a macro action's params.
// Returns false when the action is not a well-formed macro call.
func (a *Action) MacroName() (string, bool) {
	if a.Action != ActionMacro {
		return "", false
	}
	name, ok := a.Params["name"].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// MacroVars extracts the vars mapping from a macro action's params.
// A missing vars key yields an empty map; a present non-map yields false.
func (a *Action) MacroVars() (map[string]any, bool) {
	raw, present := a.Params["vars"]
	if !present || raw == nil {
		return map[string]any{}, true
	}
	vars, ok := raw.(map[string]any)
	return vars, ok
}
