package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// modelOutput is the wire shape vision models are prompted to return.
type modelOutput struct {
	SafeToProceed    bool         `json:"safe_to_proceed"`
	Confidence       float64      `json:"confidence"`
	Analysis         string       `json:"analysis"`
	Coordinates      *Coordinates `json:"coordinates"`
	SuggestedActions []string     `json:"suggested_actions"`
}

// parseModelOutput decodes a model response, tolerating markdown fences.
func parseModelOutput(raw string) (*Result, error) {
	cleaned := stripFences(raw)

	var out modelOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}

	return &Result{
		SafeToProceed:      out.SafeToProceed,
		Confidence:         clamp01(out.Confidence),
		Analysis:           out.Analysis,
		UpdatedCoordinates: out.Coordinates,
		SuggestedActions:   out.SuggestedActions,
	}, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
