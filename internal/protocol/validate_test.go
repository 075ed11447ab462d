package protocol

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCatalog is a minimal Catalog for validator tests.
type stubCatalog struct {
	specs map[string]ActionInfo
}

func (c *stubCatalog) Has(name string) bool {
	_, ok := c.specs[name]
	return ok
}

func (c *stubCatalog) Info(name string) (ActionInfo, bool) {
	info, ok := c.specs[name]
	return info, ok
}

func testCatalog() *stubCatalog {
	return &stubCatalog{specs: map[string]ActionInfo{
		"press_key":      {Required: []string{"key"}},
		"type":           {Required: []string{"text"}, Optional: map[string]any{"inter_key_delay_ms": 0}},
		"shortcut":       {Required: []string{"keys"}},
		"delay":          {Required: []string{"ms"}},
		"mouse_move":     {Required: []string{"x", "y"}, Optional: map[string]any{"profile": "bezier", "speed": 1.0}},
		"mouse_click":    {Required: []string{"button"}, Optional: map[string]any{"clicks": 1}},
		"mouse_scroll":   {Required: []string{"direction"}, Optional: map[string]any{"amount": 3}},
		"capture_region": {Required: []string{"x", "y", "width", "height"}},
	}}
}

func validProgram() *Program {
	return &Program{
		Version: "1.0",
		Metadata: Metadata{
			Description: "test program",
			Complexity:  ComplexitySimple,
		},
		Actions: []Action{
			{Action: "press_key", Params: map[string]any{"key": "enter"}},
		},
	}
}

func newValidator() *Validator {
	return &Validator{Catalog: testCatalog()}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"query"}, Tokens("search for {{query}}"))
	assert.Equal(t, []string{"a", "b"}, Tokens("{{a}} and {{b}}"))
	assert.Nil(t, Tokens("no tokens here"))
	assert.Nil(t, Tokens("{{9bad}}"), "identifiers must not start with a digit")

	name, ok := IsToken("{{verified_x}}")
	require.True(t, ok)
	assert.Equal(t, "verified_x", name)

	_, ok = IsToken("x={{verified_x}}")
	assert.False(t, ok)
}

func TestMinimalProgramIsCleanlyValid(t *testing.T) {
	res := newValidator().Validate(validProgram())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestStructuralErrors(t *testing.T) {
	p := &Program{
		Metadata: Metadata{Complexity: "impossible"},
		Macros:   map[string][]Action{"empty": {}},
	}
	res := newValidator().Validate(p)

	assert.False(t, res.IsValid)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "version")
	assert.Contains(t, joined, "metadata.description")
	assert.Contains(t, joined, "complexity")
	assert.Contains(t, joined, "actions must be a non-empty list")
	assert.Contains(t, joined, `macro "empty"`)
}

func TestUnknownActionAndParams(t *testing.T) {
	p := validProgram()
	p.Actions = []Action{
		{Action: "teleport", Params: map[string]any{"x": 1}},
		{Action: "press_key", Params: map[string]any{"key": "a", "volume": 11}},
		{Action: "press_key"},
	}
	res := newValidator().Validate(p)

	assert.False(t, res.IsValid)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "unknown_action")
	assert.Contains(t, joined, "missing_parameter")

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `unknown parameter "volume"`)
}

func TestTokenSatisfiesRequiredPresence(t *testing.T) {
	p := validProgram()
	p.Actions = []Action{
		{Action: "mouse_move", Params: map[string]any{"x": "{{verified_x}}", "y": "{{verified_y}}"}},
	}
	res := newValidator().Validate(p)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestParamTypeConstraints(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		errSub string
	}{
		{"shortcut keys not array", Action{Action: "shortcut", Params: map[string]any{"keys": "ctrl+l"}}, "shortcut.keys must be an array"},
		{"bad button", Action{Action: "mouse_click", Params: map[string]any{"button": "side"}}, "button must be one of"},
		{"bad direction", Action{Action: "mouse_scroll", Params: map[string]any{"direction": "diagonal"}}, "direction must be one of"},
		{"negative timing", Action{Action: "delay", Params: map[string]any{"ms": -10}}, "non-negative"},
		{"float coordinate", Action{Action: "mouse_move", Params: map[string]any{"x": 1.5, "y": 2}}, "integer coordinate"},
		{"negative wait", Action{Action: "press_key", Params: map[string]any{"key": "a"}, WaitAfterMs: -1}, "wait_after_ms"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProgram()
			p.Actions = []Action{tc.action}
			res := newValidator().Validate(p)
			assert.False(t, res.IsValid)
			assert.Contains(t, strings.Join(res.Errors, "\n"), tc.errSub)
		})
	}
}

func TestMacroReferenceErrors(t *testing.T) {
	p := validProgram()
	p.Macros = map[string][]Action{
		"login": {{Action: "press_key", Params: map[string]any{"key": "enter"}}},
	}
	p.Actions = []Action{
		{Action: ActionMacro, Params: map[string]any{"name": "missing"}},
		{Action: ActionMacro, Params: map[string]any{"name": "login", "vars": "not-a-map"}},
		{Action: ActionMacro, Params: map[string]any{}},
	}
	res := newValidator().Validate(p)

	assert.False(t, res.IsValid)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "undefined_macro")
	assert.Contains(t, joined, "vars must be a mapping")
	assert.Contains(t, joined, "params.name")
}

func TestMacroVarUsageWarnings(t *testing.T) {
	p := validProgram()
	p.Macros = map[string][]Action{
		"search": {
			{Action: "type", Params: map[string]any{"text": "{{query}}"}},
		},
	}
	p.Actions = []Action{
		{Action: ActionMacro, Params: map[string]any{
			"name": "search",
			"vars": map[string]any{"unused_var": 1},
		}},
	}
	res := newValidator().Validate(p)

	assert.True(t, res.IsValid, "var mismatches are warnings, not errors")
	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "{{query}}")
	assert.Contains(t, joined, `"unused_var" is never used`)
}

func TestCycleRejected(t *testing.T) {
	p := validProgram()
	p.Macros = map[string][]Action{
		"a": {{Action: ActionMacro, Params: map[string]any{"name": "b"}}},
		"b": {{Action: ActionMacro, Params: map[string]any{"name": "a"}}},
	}
	res := newValidator().Validate(p)

	assert.False(t, res.IsValid)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "circular_dependency")
	assert.Contains(t, joined, "a")
	assert.Contains(t, joined, "b")
}

func TestSelfReferenceRejected(t *testing.T) {
	p := validProgram()
	p.Macros = map[string][]Action{
		"loop": {{Action: ActionMacro, Params: map[string]any{"name": "loop"}}},
	}
	res := newValidator().Validate(p)

	assert.False(t, res.IsValid)
	assert.Contains(t, strings.Join(res.Errors, "\n"), "circular_dependency: loop -> loop")
}

func TestAcyclicNestedMacrosAccepted(t *testing.T) {
	p := validProgram()
	p.Macros = map[string][]Action{
		"outer": {{Action: ActionMacro, Params: map[string]any{"name": "inner"}}},
		"inner": {{Action: "press_key", Params: map[string]any{"key": "tab"}}},
	}
	res := newValidator().Validate(p)
	assert.True(t, res.IsValid)
}

func TestCoordinateBounds(t *testing.T) {
	screen := &ScreenSize{Width: 1920, Height: 1080}

	t.Run("edges valid with zero margin", func(t *testing.T) {
		v := &Validator{Catalog: testCatalog(), Screen: screen, Margin: 0}
		p := validProgram()
		p.Actions = []Action{
			{Action: "mouse_move", Params: map[string]any{"x": 0, "y": 0}},
			{Action: "mouse_move", Params: map[string]any{"x": 1919, "y": 1079}},
		}
		res := v.Validate(p)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Warnings)
	})

	t.Run("edges warn with positive margin", func(t *testing.T) {
		v := &Validator{Catalog: testCatalog(), Screen: screen, Margin: 5}
		p := validProgram()
		p.Actions = []Action{
			{Action: "mouse_move", Params: map[string]any{"x": 0, "y": 540}},
		}
		res := v.Validate(p)
		assert.True(t, res.IsValid, "bounds findings are warnings")
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "x=0")
	})

	t.Run("capture_region overflow warns", func(t *testing.T) {
		v := &Validator{Catalog: testCatalog(), Screen: screen}
		p := validProgram()
		p.Actions = []Action{
			{Action: "capture_region", Params: map[string]any{"x": 1900, "y": 0, "width": 100, "height": 100}},
		}
		res := v.Validate(p)
		assert.True(t, res.IsValid)
		assert.Contains(t, strings.Join(res.Warnings, "\n"), "past screen width")
	})
}

func TestTimingSanity(t *testing.T) {
	p := validProgram()
	p.Metadata.EstimatedDurationSeconds = 10
	p.Actions = []Action{
		{Action: "delay", Params: map[string]any{"ms": 500}},
	}
	res := newValidator().Validate(p)
	assert.True(t, res.IsValid)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "estimated_duration_seconds")

	// Within tolerance: no warning.
	p.Actions = []Action{
		{Action: "delay", Params: map[string]any{"ms": 9500}, WaitAfterMs: 500},
	}
	res = newValidator().Validate(p)
	assert.Empty(t, res.Warnings)
}

func TestParseRoundTrip(t *testing.T) {
	v := newValidator()
	p := validProgram()
	p.Macros = map[string][]Action{
		"seq": {{Action: "type", Params: map[string]any{"text": "{{q}}"}, WaitAfterMs: 100}},
	}
	p.Actions = append(p.Actions, Action{
		Action: ActionMacro,
		Params: map[string]any{"name": "seq", "vars": map[string]any{"q": "hi"}},
	})

	data, err := p.Marshal()
	require.NoError(t, err)

	parsed, res, err := v.Parse(data)
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	// Re-serialize both sides so numeric params compare as JSON values.
	want, err := p.Marshal()
	require.NoError(t, err)
	got, err := parsed.Marshal()
	require.NoError(t, err)
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, res, err := newValidator().Parse([]byte("{nope"))
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.False(t, res.IsValid)
	assert.NotEmpty(t, res.Errors)
}

func TestParseDocument(t *testing.T) {
	doc := map[string]any{
		"version": "1.0",
		"metadata": map[string]any{
			"description": "doc parse",
			"complexity":  "simple",
		},
		"actions": []any{
			map[string]any{"action": "press_key", "params": map[string]any{"key": "a"}},
		},
	}
	p, res, err := newValidator().ParseDocument(doc)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, "press_key", p.Actions[0].Action)
}

func TestParseCollectsAllErrors(t *testing.T) {
	p := &Program{
		Version:  "",
		Metadata: Metadata{},
		Actions: []Action{
			{Action: "bogus_one"},
			{Action: "bogus_two"},
		},
	}
	data, err := p.Marshal()
	require.NoError(t, err)

	_, res, parseErr := newValidator().Parse(data)
	require.ErrorIs(t, parseErr, ErrValidationFailed)
	assert.GreaterOrEqual(t, len(res.Errors), 4, "all findings surface, not just the first")
}
