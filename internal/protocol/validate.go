package protocol

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ActionInfo is the parameter contract for one registered action.
type ActionInfo struct {
	// Required lists parameter names that must be supplied.
	Required []string

	// Optional maps parameter names to their defaults.
	Optional map[string]any
}

// Catalog is the validator's view of the action registry. It is a small
// interface so this package does not depend on the registry package.
type Catalog interface {
	Has(name string) bool
	Info(name string) (ActionInfo, bool)
}

// ValidationResult carries every finding discovered by a validation run.
// Errors make the program unexecutable; warnings do not.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Summary joins all errors into one line for wrapping in an error value.
func (r *ValidationResult) Summary() string {
	return strings.Join(r.Errors, "; ")
}

// Validator checks a Program against the action catalog and, when known,
// the screen geometry. The zero Margin treats coordinates at the screen
// edge as valid.
type Validator struct {
	Catalog Catalog
	Screen  *ScreenSize
	Margin  int
}

// timingParams are parameter names holding millisecond values.
var timingParams = map[string]bool{
	"ms":                 true,
	"delay_ms":           true,
	"timeout_ms":         true,
	"duration_ms":        true,
	"inter_key_delay_ms": true,
}

// coordParams are parameter names holding screen coordinates or extents.
var coordParams = map[string]bool{
	"x": true, "y": true,
	"to_x": true, "to_y": true,
	"width": true, "height": true,
}

var mouseButtons = map[string]bool{"left": true, "right": true, "middle": true}
var scrollDirections = map[string]bool{"up": true, "down": true, "left": true, "right": true}

// Validate runs every validation layer and collects all findings; it
// never stops at the first problem.
func (v *Validator) Validate(p *Program) *ValidationResult {
	res := &ValidationResult{IsValid: true}
	if p == nil {
		res.addError("program is nil")
		return res
	}

	v.validateStructure(p, res)
	v.validateActions(p, res)
	v.validateMacros(p, res)
	v.detectCycles(p, res)
	v.validateTiming(p, res)

	return res
}

// validateStructure checks required fields, shapes, and enums.
func (v *Validator) validateStructure(p *Program, res *ValidationResult) {
	if p.Version == "" {
		res.addError("version must be a non-empty string")
	}
	if p.Metadata.Description == "" {
		res.addError("metadata.description is required and must be non-empty")
	}
	switch p.Metadata.Complexity {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
	default:
		res.addError("metadata.complexity must be one of simple, medium, complex (got %q)", p.Metadata.Complexity)
	}
	if p.Metadata.EstimatedDurationSeconds < 0 {
		res.addError("metadata.estimated_duration_seconds must be positive")
	}

	if len(p.Actions) == 0 {
		res.addError("actions must be a non-empty list")
	}
	for name, body := range p.Macros {
		if name == "" {
			res.addError("macro names must be non-empty")
		}
		if len(body) == 0 {
			res.addError("macro %q must have a non-empty action list", name)
		}
	}
}

// validateActions checks every action, top-level and inside macro bodies.
func (v *Validator) validateActions(p *Program, res *ValidationResult) {
	for i := range p.Actions {
		v.validateAction(&p.Actions[i], fmt.Sprintf("actions[%d]", i), res)
	}
	for name, body := range p.Macros {
		for i := range body {
			v.validateAction(&body[i], fmt.Sprintf("macros[%s][%d]", name, i), res)
		}
	}
}

func (v *Validator) validateAction(a *Action, where string, res *ValidationResult) {
	if a.WaitAfterMs < 0 {
		res.addError("%s: wait_after_ms must be non-negative (got %d)", where, a.WaitAfterMs)
	}

	if a.Action == ActionMacro {
		// Macro references are checked in validateMacros.
		return
	}

	if v.Catalog == nil || !v.Catalog.Has(a.Action) {
		res.addError("%s: unknown_action: %q is not a registered action", where, a.Action)
		return
	}

	info, _ := v.Catalog.Info(a.Action)
	for _, req := range info.Required {
		if _, ok := a.Params[req]; !ok {
			res.addError("%s: missing_parameter: %s requires %q", where, a.Action, req)
		}
	}

	known := make(map[string]bool, len(info.Required)+len(info.Optional))
	for _, req := range info.Required {
		known[req] = true
	}
	for opt := range info.Optional {
		known[opt] = true
	}
	for name := range a.Params {
		if !known[name] {
			res.addWarning("%s: unknown parameter %q for action %s", where, name, a.Action)
		}
	}

	v.checkParamTypes(a, where, res)
	v.checkBounds(a, where, res)
}

// checkParamTypes enforces the per-parameter type constraints.
func (v *Validator) checkParamTypes(a *Action, where string, res *ValidationResult) {
	for name, value := range a.Params {
		// Token strings are resolved at execution time.
		if s, ok := value.(string); ok && HasToken(s) {
			continue
		}

		switch {
		case a.Action == "shortcut" && name == "keys":
			if _, ok := value.([]any); !ok {
				if _, ok := value.([]string); !ok {
					res.addError("%s: shortcut.keys must be an array", where)
				}
			}
		case name == "button":
			s, ok := value.(string)
			if !ok || !mouseButtons[s] {
				res.addError("%s: button must be one of left, right, middle (got %v)", where, value)
			}
		case a.Action == "mouse_scroll" && name == "direction":
			s, ok := value.(string)
			if !ok || !scrollDirections[s] {
				res.addError("%s: mouse_scroll.direction must be one of up, down, left, right (got %v)", where, value)
			}
		case timingParams[name]:
			n, ok := asNumber(value)
			if !ok || n < 0 {
				res.addError("%s: %s must be a non-negative number (got %v)", where, name, value)
			}
		case coordParams[name]:
			if _, ok := asInt(value); !ok {
				res.addError("%s: %s must be an integer coordinate or a substitution token (got %v)", where, name, value)
			}
		}
	}
}

// checkBounds warns when integer coordinates fall outside the screen
// (minus the configured margin). Only possible when the screen is known.
func (v *Validator) checkBounds(a *Action, where string, res *ValidationResult) {
	if v.Screen == nil {
		return
	}

	x, hasX := asInt(a.Params["x"])
	y, hasY := asInt(a.Params["y"])

	if a.Action == "capture_region" {
		w, hasW := asInt(a.Params["width"])
		h, hasH := asInt(a.Params["height"])
		if hasX && hasW && x+w > v.Screen.Width {
			res.addWarning("%s: capture_region extends past screen width (%d+%d > %d)", where, x, w, v.Screen.Width)
		}
		if hasY && hasH && y+h > v.Screen.Height {
			res.addWarning("%s: capture_region extends past screen height (%d+%d > %d)", where, y, h, v.Screen.Height)
		}
		return
	}

	if hasX && (x < v.Margin || x > v.Screen.Width-v.Margin-1) {
		res.addWarning("%s: x=%d is outside [%d, %d]", where, x, v.Margin, v.Screen.Width-v.Margin-1)
	}
	if hasY && (y < v.Margin || y > v.Screen.Height-v.Margin-1) {
		res.addWarning("%s: y=%d is outside [%d, %d]", where, y, v.Margin, v.Screen.Height-v.Margin-1)
	}
}

// validateMacros checks macro references, vars shapes, and var usage.
func (v *Validator) validateMacros(p *Program, res *ValidationResult) {
	check := func(a *Action, where string) {
		if a.Action != ActionMacro {
			return
		}
		name, ok := a.MacroName()
		if !ok {
			res.addError("%s: macro action requires params.name as a non-empty string", where)
			return
		}
		body, defined := p.Macros[name]
		if !defined {
			res.addError("%s: undefined_macro: %q is not defined in macros", where, name)
			return
		}
		vars, ok := a.MacroVars()
		if !ok {
			res.addError("%s: macro %q vars must be a mapping", where, name)
			return
		}

		used := macroTokens(body)
		for _, tok := range sortedKeys(used) {
			if _, supplied := vars[tok]; !supplied {
				res.addWarning("%s: macro %q uses {{%s}} which is not supplied in vars (must be present in the execution context at run time)", where, name, tok)
			}
		}
		for _, supplied := range sortedKeys(anyKeys(vars)) {
			if !used[supplied] {
				res.addWarning("%s: macro %q var %q is never used", where, name, supplied)
			}
		}
	}

	for i := range p.Actions {
		check(&p.Actions[i], fmt.Sprintf("actions[%d]", i))
	}
	for name, body := range p.Macros {
		for i := range body {
			check(&body[i], fmt.Sprintf("macros[%s][%d]", name, i))
		}
	}
}

// macroTokens collects every token identifier appearing in leaf strings
// of a macro body, including nested params.
func macroTokens(body []Action) map[string]bool {
	used := make(map[string]bool)
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			for _, tok := range Tokens(t) {
				used[tok] = true
			}
		case map[string]any:
			for _, elem := range t {
				walk(elem)
			}
		case []any:
			for _, elem := range t {
				walk(elem)
			}
		}
	}
	for _, a := range body {
		for _, v := range a.Params {
			walk(v)
		}
	}
	return used
}

// detectCycles rejects any cycle in the macro-call graph, including
// self-reference. Depth-first traversal with a recursion set.
func (v *Validator) detectCycles(p *Program, res *ValidationResult) {
	if len(p.Macros) == 0 {
		return
	}

	// Edges: macro -> macros its body invokes.
	edges := make(map[string][]string, len(p.Macros))
	for name, body := range p.Macros {
		for i := range body {
			if callee, ok := body[i].MacroName(); ok {
				edges[name] = append(edges[name], callee)
			}
		}
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var path []string
	reported := false

	var dfs func(name string)
	dfs = func(name string) {
		if reported {
			return
		}
		visited[name] = true
		inStack[name] = true
		path = append(path, name)

		for _, callee := range edges[name] {
			if inStack[callee] {
				cycle := append(cycleFrom(path, callee), callee)
				res.addError("circular_dependency: %s", strings.Join(cycle, " -> "))
				reported = true
				return
			}
			if !visited[callee] {
				dfs(callee)
			}
		}

		inStack[name] = false
		path = path[:len(path)-1]
	}

	for _, name := range sortedKeys(boolKeys(p.Macros)) {
		if !visited[name] {
			dfs(name)
		}
	}
}

// cycleFrom returns the suffix of path starting at the first occurrence
// of name.
func cycleFrom(path []string, name string) []string {
	for i, n := range path {
		if n == name {
			out := make([]string, len(path)-i)
			copy(out, path[i:])
			return out
		}
	}
	return append([]string(nil), path...)
}

// validateTiming warns when the declared waits disagree with the
// estimated duration by more than 20% in either direction.
func (v *Validator) validateTiming(p *Program, res *ValidationResult) {
	est := p.Metadata.EstimatedDurationSeconds
	if est <= 0 {
		return
	}

	totalMs := 0
	for i := range p.Actions {
		totalMs += p.Actions[i].WaitAfterMs
		if p.Actions[i].Action == "delay" {
			if ms, ok := asNumber(p.Actions[i].Params["ms"]); ok {
				totalMs += int(ms)
			}
		}
	}

	estMs := float64(est) * 1000
	if float64(totalMs) < estMs*0.8 || float64(totalMs) > estMs*1.2 {
		res.addWarning("declared waits total %dms but estimated_duration_seconds is %d (outside 20%% tolerance)", totalMs, est)
	}
}

// asInt converts int-like values, rejecting non-integral floats.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// asNumber converts numeric values to float64.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func anyKeys(m map[string]any) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func boolKeys(m map[string][]Action) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
