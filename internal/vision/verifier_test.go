package vision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpilot/internal/capability/sim"
)

// fakeModel scripts a Model for verifier tests.
type fakeModel struct {
	name     string
	response string
	err      error
	delay    time.Duration
	calls    int
}

func (f *fakeModel) Name() string { return f.name }

func (f *fakeModel) Analyze(ctx context.Context, prompt string, png []byte) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func verdict(safe bool, confidence float64) string {
	return fmt.Sprintf(`{"safe_to_proceed": %v, "confidence": %v, "analysis": "ok"}`, safe, confidence)
}

func TestVerifySuccess(t *testing.T) {
	primary := &fakeModel{name: "primary", response: `{
		"safe_to_proceed": true,
		"confidence": 0.9,
		"analysis": "login button visible",
		"coordinates": {"x": 640, "y": 360},
		"suggested_actions": ["click it"]
	}`}

	v := NewVerifier(sim.New(), primary)
	res := v.Verify(context.Background(), Request{Context: "find login", Expected: "login button", Threshold: 0.7})

	assert.True(t, res.SafeToProceed)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Equal(t, "primary", res.ModelUsed)
	require.NotNil(t, res.UpdatedCoordinates)
	assert.Equal(t, 640, res.UpdatedCoordinates.X)
	assert.Equal(t, 360, res.UpdatedCoordinates.Y)
	assert.Equal(t, []string{"click it"}, res.SuggestedActions)

	stats := v.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.FallbackUses)
	assert.Equal(t, 0, stats.Errors)
}

func TestVerifyBelowThresholdOverridesSafe(t *testing.T) {
	primary := &fakeModel{name: "primary", response: verdict(true, 0.5)}

	v := NewVerifier(sim.New(), primary)
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e", Threshold: 0.8})

	assert.False(t, res.SafeToProceed, "confidence below threshold forces safe=false")
	assert.Equal(t, 0.5, res.Confidence, "raw confidence is preserved")
}

func TestVerifyFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeModel{name: "primary", err: errors.New("rate limited")}
	fallback := &fakeModel{name: "fallback", response: verdict(true, 0.85)}

	v := NewVerifier(sim.New(), primary, WithFallback(fallback))
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e", Threshold: 0.7})

	assert.True(t, res.SafeToProceed)
	assert.Equal(t, "fallback", res.ModelUsed)
	assert.Equal(t, 1, v.Stats().FallbackUses)
}

func TestVerifyFallsBackOnUnparseableOutput(t *testing.T) {
	primary := &fakeModel{name: "primary", response: "I think it looks fine!"}
	fallback := &fakeModel{name: "fallback", response: "```json\n" + verdict(true, 0.9) + "\n```"}

	v := NewVerifier(sim.New(), primary, WithFallback(fallback))
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e", Threshold: 0.7})

	assert.True(t, res.SafeToProceed, "fenced fallback output parses")
	assert.Equal(t, "fallback", res.ModelUsed)
}

func TestVerifyBothModelsFail(t *testing.T) {
	primary := &fakeModel{name: "primary", err: errors.New("down")}
	fallback := &fakeModel{name: "fallback", err: errors.New("also down")}

	v := NewVerifier(sim.New(), primary, WithFallback(fallback))
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e"})

	assert.False(t, res.SafeToProceed)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "none", res.ModelUsed)
	assert.Contains(t, res.Analysis, "verification_failed")
	assert.Equal(t, 1, v.Stats().Errors)
}

func TestVerifyTimeoutTriggersFallback(t *testing.T) {
	primary := &fakeModel{name: "primary", response: verdict(true, 0.9), delay: 500 * time.Millisecond}
	fallback := &fakeModel{name: "fallback", response: verdict(true, 0.9)}

	v := NewVerifier(sim.New(), primary, WithFallback(fallback), WithTimeout(50*time.Millisecond))
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e", Threshold: 0.7})

	assert.Equal(t, "fallback", res.ModelUsed)
}

func TestVerifyCaptureFailure(t *testing.T) {
	surface := sim.New()
	surface.FailOn["screen.capture_full"] = errors.New("no display")

	v := NewVerifier(surface, &fakeModel{name: "primary", response: verdict(true, 1)})
	res := v.Verify(context.Background(), Request{Context: "c", Expected: "e"})

	assert.False(t, res.SafeToProceed)
	assert.Zero(t, res.Confidence)
	assert.Contains(t, res.Analysis, "capture failed")
	assert.Equal(t, "none", res.ModelUsed)
}

func TestVerifyRegionCapture(t *testing.T) {
	surface := sim.New()
	primary := &fakeModel{name: "primary", response: verdict(true, 0.9)}

	v := NewVerifier(surface, primary)
	v.Verify(context.Background(), Request{
		Context:  "c",
		Expected: "e",
		Region:   &Region{X: 10, Y: 20, Width: 100, Height: 50},
	})

	assert.Contains(t, surface.CallNames(), "screen.capture_region")
}

func TestConfidenceClamped(t *testing.T) {
	res, err := parseModelOutput(`{"safe_to_proceed": true, "confidence": 1.7, "analysis": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)

	res, err = parseModelOutput(`{"safe_to_proceed": false, "confidence": -0.3, "analysis": "x"}`)
	require.NoError(t, err)
	assert.Zero(t, res.Confidence)
}
