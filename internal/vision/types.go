// Package vision implements the visual verifier: it captures the screen,
// asks a vision model whether the expected state is present, and returns
// a structured verdict with optional corrected coordinates. A primary
// model is tried first with a bounded timeout; a fallback model covers
// primary failures.
package vision

import "context"

// Region restricts a capture to a screen rectangle.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Coordinates is a point in screen pixels.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Request describes one verification: what the program is doing, what it
// expects to see, and how confident the model must be.
type Request struct {
	// Context describes the current task, e.g. "find login button".
	Context string

	// Expected describes the screen state to confirm.
	Expected string

	// Threshold is the minimum confidence for safe_to_proceed to
	// survive. Zero means the verifier's default.
	Threshold float64

	// Region, when non-nil, restricts the capture.
	Region *Region
}

// Result is the structured verdict returned to the executor.
type Result struct {
	SafeToProceed      bool         `json:"safe_to_proceed"`
	Confidence         float64      `json:"confidence"`
	Analysis           string       `json:"analysis"`
	UpdatedCoordinates *Coordinates `json:"updated_coordinates,omitempty"`
	SuggestedActions   []string     `json:"suggested_actions,omitempty"`
	ModelUsed          string       `json:"model_used"`
}

// Model is one vision-capable model. Analyze receives the prompt and a
// PNG screenshot and returns the raw model text.
type Model interface {
	Name() string
	Analyze(ctx context.Context, prompt string, png []byte) (string, error)
}

// Stats counts verifier activity across calls.
type Stats struct {
	Total        int `json:"total"`
	FallbackUses int `json:"fallback_uses"`
	Errors       int `json:"errors"`
}
