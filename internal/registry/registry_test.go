package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpilot/internal/capability/sim"
	"deskpilot/internal/vision"
)

// newWired builds a fully registered registry over a sim surface.
func newWired(t *testing.T) (*Registry, *sim.Surface) {
	t.Helper()
	r := New()
	RegisterAll(r)
	surface := sim.New()
	require.NoError(t, r.SetKeyboard(surface))
	require.NoError(t, r.SetPointer(surface))
	require.NoError(t, r.SetScreen(surface))
	require.NoError(t, r.SetClipboard(surface))
	require.NoError(t, r.SetSystem(surface))
	return r, surface
}

func TestExecuteUnknownAction(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "teleport", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestExecuteMissingParameter(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "press_key", map[string]any{})
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), "key")
}

func TestExecuteUnknownParameter(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "press_key", map[string]any{
		"key":   "enter",
		"force": true,
	})
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.Contains(t, err.Error(), "force")
}

func TestExecuteMergesDefaults(t *testing.T) {
	r, surface := newWired(t)

	// mouse_click with no button uses the default; explicit button wins.
	_, err := r.Execute(context.Background(), "mouse_click", map[string]any{})
	require.NoError(t, err)
	_, err = r.Execute(context.Background(), "mouse_click", map[string]any{"button": "right"})
	require.NoError(t, err)

	calls := surface.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "button=left clicks=1", calls[0].Args)
	assert.Equal(t, "button=right clicks=1", calls[1].Args)
}

func TestExecuteDefaultsEquivalence(t *testing.T) {
	// Omitting an optional param behaves exactly like passing its default.
	r1, s1 := newWired(t)
	r2, s2 := newWired(t)

	_, err := r1.Execute(context.Background(), "type_with_delay", map[string]any{"text": "x"})
	require.NoError(t, err)
	_, err = r2.Execute(context.Background(), "type_with_delay", map[string]any{"text": "x", "inter_key_delay_ms": 50})
	require.NoError(t, err)

	assert.Equal(t, s2.Calls(), s1.Calls())
}

func TestExecuteMacroNotDirect(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "macro", map[string]any{"name": "m"})
	assert.ErrorIs(t, err, ErrMacroNotDirect)
}

func TestExecuteWrapsHandlerError(t *testing.T) {
	r, surface := newWired(t)
	surface.FailOn["keyboard.press"] = errors.New("device busy")

	_, err := r.Execute(context.Background(), "press_key", map[string]any{"key": "enter"})
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.Contains(t, err.Error(), "device busy")
}

func TestExecuteRecoversPanic(t *testing.T) {
	r := New()
	r.MustRegister(&Spec{
		Name:     "explode",
		Category: CategorySystem,
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			panic("boom")
		},
	})

	_, err := r.Execute(context.Background(), "explode", nil)
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecuteNotWired(t *testing.T) {
	r := New()
	RegisterAll(r)
	_, err := r.Execute(context.Background(), "press_key", map[string]any{"key": "enter"})
	assert.ErrorIs(t, err, ErrNotWired)
}

func TestSettersAreOneTime(t *testing.T) {
	r := New()
	surface := sim.New()
	require.NoError(t, r.SetKeyboard(surface))
	assert.ErrorIs(t, r.SetKeyboard(surface), ErrAlreadyWired)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	RegisterAll(r)
	err := r.Register(&Spec{
		Name:     "press_key",
		Category: CategoryKeyboard,
		Handler:  func(ctx context.Context, params map[string]any) (any, error) { return nil, nil },
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestCatalogIsComplete(t *testing.T) {
	r := New()
	RegisterAll(r)

	for _, name := range []string{
		"press_key", "shortcut", "type", "type_with_delay", "hold_key", "release_key",
		"mouse_move", "mouse_click", "mouse_double_click", "mouse_right_click",
		"mouse_drag", "mouse_scroll", "mouse_position",
		"open_app", "close_app", "switch_window", "minimize_window", "maximize_window", "get_active_window",
		"open_url", "browser_back", "browser_forward", "browser_refresh", "browser_new_tab",
		"browser_close_tab", "browser_switch_tab", "browser_address_bar", "browser_bookmark", "browser_find",
		"copy", "paste", "cut", "get_clipboard", "set_clipboard", "paste_from_clipboard",
		"open_file", "save_file", "save_as", "open_file_dialog", "create_folder", "delete_file",
		"capture_screen", "capture_region", "capture_window", "save_screenshot",
		"delay", "wait_for_window", "wait_for_image", "wait_for_color",
		"verify_screen", "verify_element", "find_element", "verify_text", "navigate",
		"lock_screen", "sleep_system", "shutdown_system", "restart_system",
		"volume_up", "volume_down", "volume_mute",
		"select_all", "undo", "redo", "find_replace", "delete_line", "duplicate_line",
		"macro",
	} {
		assert.True(t, r.Has(name), "missing action %s", name)
	}
}

func TestDescribe(t *testing.T) {
	r := New()
	RegisterAll(r)

	lib := r.Describe()
	assert.Len(t, lib, r.Count())

	move, ok := lib["mouse_move"]
	require.True(t, ok)
	assert.Equal(t, "mouse", move.Category)
	assert.Equal(t, []string{"x", "y"}, move.RequiredParams)
	assert.NotEmpty(t, move.Examples)

	macro, ok := lib["macro"]
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, macro.RequiredParams)
}

func TestInfoFeedsValidator(t *testing.T) {
	r := New()
	RegisterAll(r)

	info, ok := r.Info("mouse_scroll")
	require.True(t, ok)
	assert.Equal(t, []string{"direction"}, info.Required)
	assert.Contains(t, info.Optional, "amount")

	_, ok = r.Info("nope")
	assert.False(t, ok)
}

func TestKeyboardActions(t *testing.T) {
	r, surface := newWired(t)
	ctx := context.Background()

	_, err := r.Execute(ctx, "shortcut", map[string]any{"keys": []any{"ctrl", "l"}})
	require.NoError(t, err)
	_, err = r.Execute(ctx, "type", map[string]any{"text": "hello"})
	require.NoError(t, err)
	_, err = r.Execute(ctx, "hold_key", map[string]any{"key": "shift"})
	require.NoError(t, err)
	_, err = r.Execute(ctx, "release_key", map[string]any{"key": "shift"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"keyboard.shortcut", "keyboard.type", "keyboard.hold", "keyboard.release",
	}, surface.CallNames())
}

func TestMouseMoveRejectsNonIntegerCoordinates(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "mouse_move", map[string]any{"x": 1.5, "y": 2})
	assert.ErrorIs(t, err, ErrHandlerFailed)
}

func TestMouseScrollRejectsBadDirection(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "mouse_scroll", map[string]any{"direction": "sideways"})
	assert.ErrorIs(t, err, ErrHandlerFailed)
}

func TestMousePositionReturnsCoordinates(t *testing.T) {
	r, surface := newWired(t)
	surface.SetPointer(100, 200)

	res, err := r.Execute(context.Background(), "mouse_position", nil)
	require.NoError(t, err)
	pos := res.(map[string]any)
	assert.Equal(t, 100, pos["x"])
	assert.Equal(t, 200, pos["y"])
}

func TestBrowserActionsAreShortcutDriven(t *testing.T) {
	r, surface := newWired(t)
	ctx := context.Background()

	_, err := r.Execute(ctx, "browser_back", nil)
	require.NoError(t, err)
	_, err = r.Execute(ctx, "browser_switch_tab", map[string]any{"tab": 3})
	require.NoError(t, err)
	_, err = r.Execute(ctx, "browser_find", map[string]any{"text": "checkout"})
	require.NoError(t, err)

	calls := surface.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "keys=alt+left", calls[0].Args)
	assert.Equal(t, "keys=ctrl+3", calls[1].Args)
	assert.Equal(t, "keys=ctrl+f", calls[2].Args)
	assert.Equal(t, `text="checkout" delay=0`, calls[3].Args)
}

func TestBrowserSwitchTabBounds(t *testing.T) {
	r, _ := newWired(t)
	_, err := r.Execute(context.Background(), "browser_switch_tab", map[string]any{"tab": 12})
	assert.ErrorIs(t, err, ErrHandlerFailed)
}

func TestClipboardRoundTrip(t *testing.T) {
	r, _ := newWired(t)
	ctx := context.Background()

	_, err := r.Execute(ctx, "set_clipboard", map[string]any{"text": "stash"})
	require.NoError(t, err)

	res, err := r.Execute(ctx, "get_clipboard", nil)
	require.NoError(t, err)
	assert.Equal(t, "stash", res.(map[string]any)["text"])
}

func TestPasteFromClipboard(t *testing.T) {
	r, surface := newWired(t)

	_, err := r.Execute(context.Background(), "paste_from_clipboard", map[string]any{"text": "secret"})
	require.NoError(t, err)
	assert.Equal(t, []string{"clipboard.write", "keyboard.shortcut"}, surface.CallNames())
}

func TestFileActionsOnDisk(t *testing.T) {
	r, _ := newWired(t)
	ctx := context.Background()
	dir := t.TempDir() + "/a/b"

	_, err := r.Execute(ctx, "create_folder", map[string]any{"path": dir})
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestSaveScreenshot(t *testing.T) {
	r, _ := newWired(t)
	path := t.TempDir() + "/shot.png"

	res, err := r.Execute(context.Background(), "save_screenshot", map[string]any{"path": path})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Greater(t, res.(map[string]any)["bytes"].(int), 0)
}

func TestWaitForWindowSucceeds(t *testing.T) {
	r, surface := newWired(t)
	surface.ActiveWindowTitle = "Downloads - Files"

	res, err := r.Execute(context.Background(), "wait_for_window", map[string]any{
		"title":      "downloads",
		"timeout_ms": 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Downloads - Files", res.(map[string]any)["title"])
}

func TestWaitForWindowTimesOut(t *testing.T) {
	r, surface := newWired(t)
	surface.ActiveWindowTitle = "something else"

	_, err := r.Execute(context.Background(), "wait_for_window", map[string]any{
		"title":      "downloads",
		"timeout_ms": 0,
	})
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.Contains(t, err.Error(), "timeout")
}

func TestDelayHonorsContextCancel(t *testing.T) {
	r, _ := newWired(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, "delay", map[string]any{"ms": 5000})
	assert.Error(t, err)
}

type stubVerifier struct {
	result *vision.Result
	last   vision.Request
}

func (s *stubVerifier) Verify(ctx context.Context, req vision.Request) *vision.Result {
	s.last = req
	return s.result
}

func TestVerifyScreenReturnsVisionResult(t *testing.T) {
	r, _ := newWired(t)
	stub := &stubVerifier{result: &vision.Result{
		SafeToProceed:      true,
		Confidence:         0.9,
		UpdatedCoordinates: &vision.Coordinates{X: 640, Y: 360},
	}}
	require.NoError(t, r.SetVerifier(stub))

	res, err := r.Execute(context.Background(), "verify_screen", map[string]any{
		"context":  "find login",
		"expected": "login button",
	})
	require.NoError(t, err)

	vres, ok := res.(*vision.Result)
	require.True(t, ok, "verify actions must return *vision.Result for the executor side effect")
	assert.Equal(t, 640, vres.UpdatedCoordinates.X)
	assert.Equal(t, 0.7, stub.last.Threshold, "default threshold flows through")
}

func TestVerifyElementPassesRegion(t *testing.T) {
	r, _ := newWired(t)
	stub := &stubVerifier{result: &vision.Result{SafeToProceed: true, Confidence: 1}}
	require.NoError(t, r.SetVerifier(stub))

	_, err := r.Execute(context.Background(), "verify_element", map[string]any{
		"context": "c", "expected": "e",
		"x": 10, "y": 20, "width": 100, "height": 50,
	})
	require.NoError(t, err)
	require.NotNil(t, stub.last.Region)
	assert.Equal(t, 100, stub.last.Region.Width)
}

type stubNavigator struct {
	task, goal string
	maxIter    int
}

func (s *stubNavigator) Navigate(ctx context.Context, task, goal string, maxIterations int) (any, error) {
	s.task, s.goal, s.maxIter = task, goal, maxIterations
	return map[string]any{"status": "complete", "iterations": 2}, nil
}

func TestNavigateDelegates(t *testing.T) {
	r, _ := newWired(t)
	nav := &stubNavigator{}
	require.NoError(t, r.SetNavigator(nav))

	res, err := r.Execute(context.Background(), "navigate", map[string]any{
		"task": "dismiss banner",
		"goal": "banner gone",
	})
	require.NoError(t, err)
	assert.Equal(t, "complete", res.(map[string]any)["status"])
	assert.Equal(t, 5, nav.maxIter, "default max_iterations applies")
}
