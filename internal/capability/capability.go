// Package capability defines the narrow OS-facing surfaces the automation
// core depends on: keyboard, pointer, screen capture, clipboard, and
// system control. Every surface is an interface so hosts can wire real
// input drivers while tests and dry-run hosts wire the sim package.
//
// All implementations report OS failures as errors; the executor converts
// them into structured step errors. Implementations are expected to be
// safe for use from a single executor goroutine at a time and must honor
// the pointer fail-safe: if the pointer reaches a screen corner, the
// in-flight operation aborts with ErrFailSafe.
package capability

import "image"

// MotionProfile selects the cursor path used for pointer moves.
type MotionProfile string

const (
	MotionStraight MotionProfile = "straight"
	MotionBezier   MotionProfile = "bezier"
	MotionArc      MotionProfile = "arc"
	MotionWave     MotionProfile = "wave"
)

// MouseButton identifies a pointer button.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ScrollDirection identifies a scroll axis and sense.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// MoveOptions tunes pointer motion. The zero value means the driver's
// default smooth curved motion at normal speed.
type MoveOptions struct {
	// Profile selects the motion curve. Empty means driver default
	// (curved motion).
	Profile MotionProfile

	// Speed is a multiplier on the driver's base speed. Zero means 1.0.
	Speed float64
}

// Point is a screen coordinate in pixels, origin top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a screen dimension in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Keyboard abstracts key-level input.
type Keyboard interface {
	// Press taps a single named key (e.g. "enter", "tab", "a").
	Press(key string) error

	// Hold presses a key down without releasing it.
	Hold(key string) error

	// Release releases a previously held key.
	Release(key string) error

	// Type writes text one rune at a time, sleeping interKeyDelayMs
	// between runes. A zero delay types at driver speed.
	Type(text string, interKeyDelayMs int) error

	// Shortcut chords the given keys (e.g. ["ctrl","shift","t"]).
	Shortcut(keys ...string) error
}

// Pointer abstracts mouse-level input.
type Pointer interface {
	Move(x, y int, opts MoveOptions) error
	Click(button MouseButton, clicks int) error

	// Drag moves to (x, y) with the primary button held.
	Drag(x, y int) error

	Scroll(direction ScrollDirection, amount int) error
	Position() (Point, error)
}

// ScreenCapture abstracts screenshot acquisition.
type ScreenCapture interface {
	CaptureFull() (image.Image, error)
	CaptureRegion(x, y, width, height int) (image.Image, error)
	Size() (Size, error)
}

// Clipboard abstracts the system clipboard.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// System abstracts window and host-level operations. Implementations are
// OS-specific but uniformly callable; operations a platform cannot
// perform return an error rather than silently succeeding.
type System interface {
	OpenApplication(name string) error
	CloseApplication(name string) error
	SwitchWindow() error
	MinimizeWindow() error
	MaximizeWindow() error
	ActiveWindow() (string, error)

	OpenURL(url string) error
	OpenFileDialog() error

	Lock() error
	Sleep() error
	Shutdown() error
	Restart() error

	VolumeUp() error
	VolumeDown() error
	VolumeMute() error
}
