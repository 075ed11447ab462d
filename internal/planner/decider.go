package planner

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"deskpilot/internal/bus"
	"deskpilot/internal/logging"
	"deskpilot/internal/vision"
)

// Decider converts one observed screen into a navigation action.
type Decider interface {
	Decide(ctx context.Context, req bus.VisionRequest, resp bus.VisionResponse) (*bus.VisionAction, error)
}

// ModelDecider backs Decide with a vision-capable model.
type ModelDecider struct {
	model vision.Model
}

// NewModelDecider creates a decider over any vision.Model.
func NewModelDecider(m vision.Model) *ModelDecider {
	return &ModelDecider{model: m}
}

// decisionOutput is the JSON shape the model is prompted to return.
type decisionOutput struct {
	Action          string        `json:"action"`
	Coordinates     *bus.Position `json:"coordinates"`
	Text            string        `json:"text,omitempty"`
	RequestFollowup bool          `json:"request_followup"`
	Reasoning       string        `json:"reasoning,omitempty"`
}

// Decide sends the screenshot and task to the model and parses its
// decision.
func (d *ModelDecider) Decide(ctx context.Context, req bus.VisionRequest, resp bus.VisionResponse) (*bus.VisionAction, error) {
	png, err := base64.StdEncoding.DecodeString(resp.ScreenshotBase64)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	prompt := buildDecisionPrompt(req, resp)
	raw, err := d.model.Analyze(ctx, prompt, png)
	if err != nil {
		return nil, fmt.Errorf("decision model %s: %w", d.model.Name(), err)
	}

	var out decisionOutput
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("decision model %s returned unparseable output: %w", d.model.Name(), err)
	}
	switch out.Action {
	case bus.NavClick, bus.NavDoubleClick, bus.NavRightClick, bus.NavType:
	default:
		return nil, fmt.Errorf("decision model %s chose unknown action %q", d.model.Name(), out.Action)
	}

	return &bus.VisionAction{
		RequestID:       req.RequestID,
		Action:          out.Action,
		Coordinates:     out.Coordinates,
		Text:            out.Text,
		RequestFollowup: out.RequestFollowup,
	}, nil
}

func buildDecisionPrompt(req bus.VisionRequest, resp bus.VisionResponse) string {
	return fmt.Sprintf(`You are navigating a desktop GUI one input at a time.

## Current Task
%s

## Overall Goal
%s

## Screen
Size: %dx%d. Mouse at (%d,%d). Iteration %d of %d.

## Instructions
Inspect the screenshot and choose exactly one input to move the task
forward. Set request_followup=true when the goal is not yet reached and
another observation will be needed.

## Response Format (JSON only, no markdown)
{
  "action": "click|double_click|right_click|type",
  "coordinates": {"x": int, "y": int},
  "text": "only for type",
  "request_followup": true/false,
  "reasoning": "one sentence"
}

Only return the JSON object, no other text.`,
		req.TaskDescription, req.WorkflowGoal,
		resp.ScreenSize.Width, resp.ScreenSize.Height,
		resp.MousePosition.X, resp.MousePosition.Y,
		req.Iteration, req.MaxIterations)
}

// Respond serves one navigation round: take the next vision.request,
// collect its paired vision.response, ask the decider, and publish the
// vision.action under the same id. Returns false when no request arrived
// within the wait.
func (p *Planner) Respond(ctx context.Context, decider Decider, wait time.Duration) (bool, error) {
	reqMsg, err := p.bus.Receive(ctx, bus.TopicVisionRequest, wait)
	if err != nil || reqMsg == nil {
		return false, err
	}
	var req bus.VisionRequest
	if err := reqMsg.Decode(&req); err != nil {
		return false, err
	}

	respMsg, err := p.bus.ReceiveByID(ctx, bus.TopicVisionResponse, reqMsg.ID, wait)
	if err != nil {
		return false, err
	}
	if respMsg == nil {
		return false, fmt.Errorf("no screenshot response for vision request %s", reqMsg.ID)
	}
	var resp bus.VisionResponse
	if err := respMsg.Decode(&resp); err != nil {
		return false, err
	}

	action, err := decider.Decide(ctx, req, resp)
	if err != nil {
		return false, err
	}

	actionMsg, err := bus.Reply(reqMsg, bus.TypeVisionAction, action)
	if err != nil {
		return false, err
	}
	if err := p.bus.Send(bus.TopicVisionAction, actionMsg); err != nil {
		return false, err
	}
	logging.Planner("navigation decision %s: %s followup=%v", req.RequestID, action.Action, action.RequestFollowup)
	return true, nil
}

// ServeNavigation answers navigation requests until the context ends.
func (p *Planner) ServeNavigation(ctx context.Context, decider Decider) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.Respond(ctx, decider, time.Second); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.PlannerWarn("navigation round failed: %v", err)
		}
	}
}
