// Package sim provides an in-memory capability surface. It records every
// call in order, tracks pointer position and clipboard contents, and
// synthesizes screenshots, so the executor and registry can be exercised
// end-to-end without touching the host OS.
package sim

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"deskpilot/internal/capability"
)

// Call is one recorded capability invocation.
type Call struct {
	// Name is the method, e.g. "keyboard.press" or "pointer.move".
	Name string

	// Args is a human-readable rendering of the arguments.
	Args string
}

// Surface implements every capability interface against in-memory state.
type Surface struct {
	mu        sync.Mutex
	calls     []Call
	pointer   capability.Point
	clipboard string
	screen    capability.Size
	held      map[string]bool

	// FailOn, when non-empty, makes the named call (e.g.
	// "keyboard.press") return an error. Used by failure tests.
	FailOn map[string]error

	// ActiveWindowTitle is returned by ActiveWindow.
	ActiveWindowTitle string
}

// New creates a Surface with a 1920x1080 virtual screen.
func New() *Surface {
	return &Surface{
		screen:            capability.Size{Width: 1920, Height: 1080},
		held:              make(map[string]bool),
		FailOn:            make(map[string]error),
		ActiveWindowTitle: "sim",
	}
}

// Calls returns a copy of the recorded call log.
func (s *Surface) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallNames returns just the method names, in order.
func (s *Surface) CallNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.calls))
	for i, c := range s.calls {
		names[i] = c.Name
	}
	return names
}

// SetPointer overrides the tracked pointer position. Drift tests use this
// to simulate the user grabbing the mouse.
func (s *Surface) SetPointer(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = capability.Point{X: x, Y: y}
}

// SetScreenSize overrides the virtual screen dimensions.
func (s *Surface) SetScreenSize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = capability.Size{Width: w, Height: h}
}

func (s *Surface) record(name string, format string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Name: name, Args: fmt.Sprintf(format, args...)})
	if err, ok := s.FailOn[name]; ok {
		return err
	}
	return nil
}

// --- Keyboard ---

func (s *Surface) Press(key string) error {
	return s.record("keyboard.press", "key=%s", key)
}

func (s *Surface) Hold(key string) error {
	if err := s.record("keyboard.hold", "key=%s", key); err != nil {
		return err
	}
	s.mu.Lock()
	s.held[key] = true
	s.mu.Unlock()
	return nil
}

func (s *Surface) Release(key string) error {
	if err := s.record("keyboard.release", "key=%s", key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.held, key)
	s.mu.Unlock()
	return nil
}

func (s *Surface) Type(text string, interKeyDelayMs int) error {
	return s.record("keyboard.type", "text=%q delay=%d", text, interKeyDelayMs)
}

func (s *Surface) Shortcut(keys ...string) error {
	return s.record("keyboard.shortcut", "keys=%s", strings.Join(keys, "+"))
}

// --- Pointer ---

func (s *Surface) Move(x, y int, opts capability.MoveOptions) error {
	if err := s.record("pointer.move", "x=%d y=%d profile=%s", x, y, opts.Profile); err != nil {
		return err
	}
	s.mu.Lock()
	s.pointer = capability.Point{X: x, Y: y}
	s.mu.Unlock()
	return nil
}

func (s *Surface) Click(button capability.MouseButton, clicks int) error {
	return s.record("pointer.click", "button=%s clicks=%d", button, clicks)
}

func (s *Surface) Drag(x, y int) error {
	if err := s.record("pointer.drag", "x=%d y=%d", x, y); err != nil {
		return err
	}
	s.mu.Lock()
	s.pointer = capability.Point{X: x, Y: y}
	s.mu.Unlock()
	return nil
}

func (s *Surface) Scroll(direction capability.ScrollDirection, amount int) error {
	return s.record("pointer.scroll", "direction=%s amount=%d", direction, amount)
}

func (s *Surface) Position() (capability.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer, nil
}

// --- ScreenCapture ---

func (s *Surface) CaptureFull() (image.Image, error) {
	if err := s.record("screen.capture_full", ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	sz := s.screen
	s.mu.Unlock()
	return synthesize(sz.Width, sz.Height), nil
}

func (s *Surface) CaptureRegion(x, y, width, height int) (image.Image, error) {
	if err := s.record("screen.capture_region", "x=%d y=%d w=%d h=%d", x, y, width, height); err != nil {
		return nil, err
	}
	return synthesize(width, height), nil
}

func (s *Surface) Size() (capability.Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen, nil
}

func synthesize(w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 32, G: 32, B: 40, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

// --- Clipboard ---

func (s *Surface) Read() (string, error) {
	if err := s.record("clipboard.read", ""); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clipboard, nil
}

func (s *Surface) Write(text string) error {
	if err := s.record("clipboard.write", "text=%q", text); err != nil {
		return err
	}
	s.mu.Lock()
	s.clipboard = text
	s.mu.Unlock()
	return nil
}

// --- System ---

func (s *Surface) OpenApplication(name string) error {
	return s.record("system.open_application", "name=%s", name)
}

func (s *Surface) CloseApplication(name string) error {
	return s.record("system.close_application", "name=%s", name)
}

func (s *Surface) SwitchWindow() error   { return s.record("system.switch_window", "") }
func (s *Surface) MinimizeWindow() error { return s.record("system.minimize_window", "") }
func (s *Surface) MaximizeWindow() error { return s.record("system.maximize_window", "") }

func (s *Surface) ActiveWindow() (string, error) {
	if err := s.record("system.active_window", ""); err != nil {
		return "", err
	}
	return s.ActiveWindowTitle, nil
}

func (s *Surface) OpenURL(url string) error {
	return s.record("system.open_url", "url=%s", url)
}

func (s *Surface) OpenFileDialog() error { return s.record("system.open_file_dialog", "") }

func (s *Surface) Lock() error     { return s.record("system.lock", "") }
func (s *Surface) Sleep() error    { return s.record("system.sleep", "") }
func (s *Surface) Shutdown() error { return s.record("system.shutdown", "") }
func (s *Surface) Restart() error  { return s.record("system.restart", "") }

func (s *Surface) VolumeUp() error   { return s.record("system.volume_up", "") }
func (s *Surface) VolumeDown() error { return s.record("system.volume_down", "") }
func (s *Surface) VolumeMute() error { return s.record("system.volume_mute", "") }

// Interface conformance.
var (
	_ capability.Keyboard      = (*Surface)(nil)
	_ capability.Pointer       = (*Surface)(nil)
	_ capability.ScreenCapture = (*Surface)(nil)
	_ capability.Clipboard     = (*Surface)(nil)
	_ capability.System        = (*Surface)(nil)
)
