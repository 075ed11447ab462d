package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"deskpilot/internal/capability"
	"deskpilot/internal/logging"
)

const defaultTimeout = 10 * time.Second

// Verifier converts (screenshot, context, expectation) into a structured
// verdict. Calls are single-shot: concurrent calls each own their own
// timeout and share nothing but the counters.
type Verifier struct {
	primary  Model
	fallback Model
	screen   capability.ScreenCapture

	timeout          time.Duration
	defaultThreshold float64

	mu    sync.Mutex
	stats Stats
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimeout bounds each model call. The default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithDefaultThreshold sets the confidence threshold used when a request
// supplies none.
func WithDefaultThreshold(t float64) Option {
	return func(v *Verifier) {
		if t > 0 {
			v.defaultThreshold = t
		}
	}
}

// WithFallback sets the fallback model.
func WithFallback(m Model) Option {
	return func(v *Verifier) { v.fallback = m }
}

// NewVerifier creates a verifier over the given screen capture surface
// and primary model.
func NewVerifier(screen capability.ScreenCapture, primary Model, opts ...Option) *Verifier {
	v := &Verifier{
		primary:          primary,
		screen:           screen,
		timeout:          defaultTimeout,
		defaultThreshold: 0.7,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Stats returns a copy of the call counters.
func (v *Verifier) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

func (v *Verifier) countCall()     { v.mu.Lock(); v.stats.Total++; v.mu.Unlock() }
func (v *Verifier) countFallback() { v.mu.Lock(); v.stats.FallbackUses++; v.mu.Unlock() }
func (v *Verifier) countError()    { v.mu.Lock(); v.stats.Errors++; v.mu.Unlock() }

// Verify runs one verification. Trouble at any stage comes back as a
// Result with SafeToProceed=false rather than a Go error, so the
// executor can record it and keep the program policy-free.
func (v *Verifier) Verify(ctx context.Context, req Request) *Result {
	v.countCall()

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = v.defaultThreshold
	}

	img, err := v.capture(req.Region)
	if err != nil {
		v.countError()
		return &Result{
			SafeToProceed: false,
			Confidence:    0,
			Analysis:      fmt.Sprintf("capture failed: %v", err),
			ModelUsed:     "none",
		}
	}

	pngBytes, err := encodePNG(img)
	if err != nil {
		v.countError()
		return &Result{
			SafeToProceed: false,
			Confidence:    0,
			Analysis:      fmt.Sprintf("capture failed: %v", err),
			ModelUsed:     "none",
		}
	}

	prompt := buildPrompt(req.Context, req.Expected, threshold)

	result, primaryErr := v.ask(ctx, v.primary, prompt, pngBytes)
	if primaryErr != nil {
		logging.VisionWarn("primary model failed, trying fallback: %v", primaryErr)
		if v.fallback == nil {
			v.countError()
			return &Result{
				SafeToProceed: false,
				Confidence:    0,
				Analysis:      fmt.Sprintf("verification_failed: primary: %v (no fallback configured)", primaryErr),
				ModelUsed:     "none",
			}
		}
		v.countFallback()
		var fallbackErr error
		result, fallbackErr = v.ask(ctx, v.fallback, prompt, pngBytes)
		if fallbackErr != nil {
			v.countError()
			return &Result{
				SafeToProceed: false,
				Confidence:    0,
				Analysis:      fmt.Sprintf("verification_failed: primary: %v; fallback: %v", primaryErr, fallbackErr),
				ModelUsed:     "none",
			}
		}
	}

	// Threshold gate: below-threshold confidence forces safe=false while
	// preserving the raw confidence for the program to inspect.
	if result.Confidence < threshold {
		result.SafeToProceed = false
	}

	logging.Vision("verify: safe=%v confidence=%.2f model=%s", result.SafeToProceed, result.Confidence, result.ModelUsed)
	return result
}

// ask calls one model under the verifier timeout and parses its output.
// An unparseable response counts as a model failure so the fallback gets
// its turn.
func (v *Verifier) ask(ctx context.Context, m Model, prompt string, pngBytes []byte) (*Result, error) {
	if m == nil {
		return nil, fmt.Errorf("no model configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := m.Analyze(callCtx, prompt, pngBytes)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name(), err)
	}

	result, err := parseModelOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("model %s returned unparseable output: %w", m.Name(), err)
	}
	result.ModelUsed = m.Name()
	return result, nil
}

func (v *Verifier) capture(region *Region) (image.Image, error) {
	if v.screen == nil {
		return nil, fmt.Errorf("no screen capture wired")
	}
	if region != nil {
		return v.screen.CaptureRegion(region.X, region.Y, region.Width, region.Height)
	}
	return v.screen.CaptureFull()
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

func buildPrompt(context, expected string, threshold float64) string {
	return fmt.Sprintf(`You are verifying a desktop automation step against a screenshot.

## Current Task
%s

## Expected Screen State
%s

## Instructions
Inspect the screenshot and decide whether it is safe to proceed. If the
target element is visible but at a different position than expected,
report its center coordinates. Confidence below %.2f will block the step.

## Response Format (JSON only, no markdown)
{
  "safe_to_proceed": true/false,
  "confidence": 0.0-1.0,
  "analysis": "what you see and why",
  "coordinates": {"x": int, "y": int},
  "suggested_actions": ["optional next steps"]
}

Only return the JSON object, no other text.`, context, expected, threshold)
}
