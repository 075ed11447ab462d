// Package planner turns a natural-language command into a validated
// program, submits it on the bus, and answers the actuator's visual
// navigation requests with model-backed decisions.
package planner

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator produces raw program JSON from a command and the action
// library. The output is parsed and validated before submission, so the
// generator itself is treated as untrusted.
type Generator interface {
	GenerateProgram(ctx context.Context, command string, library string) ([]byte, error)
}

// GeminiGenerator generates programs with a Gemini text model.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator wraps one model name over a shared client.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// GenerateProgram asks the model for a program document.
func (g *GeminiGenerator) GenerateProgram(ctx context.Context, command string, library string) ([]byte, error) {
	prompt := buildGenerationPrompt(command, library)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate program: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("model %s returned an empty program", g.model)
	}
	return []byte(stripFences(text)), nil
}

func buildGenerationPrompt(command, library string) string {
	return fmt.Sprintf(`You are a desktop automation planner. Convert the user's command into
a JSON automation program.

## User Command
%s

## Available Actions (name, parameters, examples)
%s

## Program Format
{
  "version": "1.0",
  "metadata": {
    "description": "what this program does",
    "complexity": "simple|medium|complex",
    "uses_vision": true/false,
    "estimated_duration_seconds": int
  },
  "macros": { "<name>": [ actions... ] },
  "actions": [
    { "action": "<name>", "params": { ... }, "wait_after_ms": int }
  ]
}

## Rules
- Use only the listed actions with their declared parameters.
- Reuse repeated sequences as macros; bind values with {{variable}}
  tokens and the macro's "vars" mapping.
- Insert verify_screen before coordinate-sensitive clicks and reference
  {{verified_x}}/{{verified_y}} afterwards.
- Give every UI-changing action a wait_after_ms long enough for the
  screen to settle.

Only return the JSON program, no other text.`, command, library)
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
