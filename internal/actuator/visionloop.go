package actuator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/google/uuid"

	"deskpilot/internal/bus"
	"deskpilot/internal/capability"
	"deskpilot/internal/logging"
)

const defaultActionWait = 30 * time.Second

// NavigationLoop is the host side of the visual navigation round-trip:
// publish a request plus screenshot, wait for the planner's decision,
// perform it, report the outcome, and iterate. It implements the
// registry's Navigator dependency.
type NavigationLoop struct {
	bus      *bus.Bus
	screen   capability.ScreenCapture
	pointer  capability.Pointer
	keyboard capability.Keyboard

	// ActionWait bounds the wait for each vision.action decision.
	ActionWait time.Duration
}

// NewNavigationLoop wires the loop over the bus and the input surfaces.
func NewNavigationLoop(b *bus.Bus, screen capability.ScreenCapture, pointer capability.Pointer, keyboard capability.Keyboard) *NavigationLoop {
	return &NavigationLoop{
		bus:        b,
		screen:     screen,
		pointer:    pointer,
		keyboard:   keyboard,
		ActionWait: defaultActionWait,
	}
}

// Navigate runs up to maxIterations decision rounds toward the goal.
func (n *NavigationLoop) Navigate(ctx context.Context, task, goal string, maxIterations int) (any, error) {
	if maxIterations <= 0 {
		maxIterations = 1
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		followup, err := n.round(ctx, task, goal, iteration, maxIterations)
		if err != nil {
			return nil, err
		}
		if !followup {
			logging.Actuator("navigation complete after %d iteration(s)", iteration)
			return map[string]any{"status": "complete", "iterations": iteration}, nil
		}
	}

	logging.ActuatorWarn("navigation hit the iteration cap (%d)", maxIterations)
	return map[string]any{"status": "max_iterations", "iterations": maxIterations}, nil
}

// round performs one request/observe/decide/act/report cycle. Returns
// whether the planner asked for a follow-up observation.
func (n *NavigationLoop) round(ctx context.Context, task, goal string, iteration, maxIterations int) (bool, error) {
	// The envelope id doubles as the request id for correlation.
	requestID := uuid.NewString()
	reqMsg, err := bus.NewMessage(bus.TypeVisionRequest, bus.VisionRequest{
		RequestID:       requestID,
		TaskDescription: task,
		WorkflowGoal:    goal,
		Iteration:       iteration,
		MaxIterations:   maxIterations,
	})
	if err != nil {
		return false, err
	}
	reqMsg.ID = requestID
	if err := n.bus.Send(bus.TopicVisionRequest, reqMsg); err != nil {
		return false, err
	}

	response, err := n.observe(reqMsg.ID)
	if err != nil {
		return false, err
	}
	respMsg, err := bus.Reply(reqMsg, bus.TypeVisionResponse, response)
	if err != nil {
		return false, err
	}
	if err := n.bus.Send(bus.TopicVisionResponse, respMsg); err != nil {
		return false, err
	}

	actionMsg, err := n.bus.ReceiveByID(ctx, bus.TopicVisionAction, reqMsg.ID, n.ActionWait)
	if err != nil {
		return false, err
	}
	if actionMsg == nil {
		n.report(reqMsg, bus.VisionResult{
			RequestID: reqMsg.ID,
			Status:    bus.VisionStatusTimeout,
			Error:     fmt.Sprintf("no decision within %s", n.ActionWait),
		})
		return false, fmt.Errorf("timeout: no navigation decision for request %s", reqMsg.ID)
	}

	var action bus.VisionAction
	if err := actionMsg.Decode(&action); err != nil {
		return false, err
	}

	if err := n.perform(action); err != nil {
		n.report(reqMsg, bus.VisionResult{
			RequestID: reqMsg.ID,
			Status:    bus.VisionStatusError,
			Error:     err.Error(),
		})
		return false, err
	}

	result := bus.VisionResult{
		RequestID: reqMsg.ID,
		Status:    bus.VisionStatusSuccess,
	}
	if after, err := n.observe(reqMsg.ID); err == nil {
		result.ScreenshotBase64 = after.ScreenshotBase64
		result.MousePosition = after.MousePosition
	}
	n.report(reqMsg, result)

	return action.RequestFollowup, nil
}

// observe captures the current screen state for the planner.
func (n *NavigationLoop) observe(requestID string) (bus.VisionResponse, error) {
	img, err := n.screen.CaptureFull()
	if err != nil {
		return bus.VisionResponse{}, fmt.Errorf("capture failed: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return bus.VisionResponse{}, fmt.Errorf("png encode: %w", err)
	}

	pos, err := n.pointer.Position()
	if err != nil {
		return bus.VisionResponse{}, fmt.Errorf("pointer position: %w", err)
	}
	size, err := n.screen.Size()
	if err != nil {
		return bus.VisionResponse{}, fmt.Errorf("screen size: %w", err)
	}

	return bus.VisionResponse{
		RequestID:        requestID,
		ScreenshotBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MousePosition:    bus.Position{X: pos.X, Y: pos.Y},
		ScreenSize:       bus.Dimensions{Width: size.Width, Height: size.Height},
	}, nil
}

// perform executes the planner's decision through the input surfaces.
func (n *NavigationLoop) perform(action bus.VisionAction) error {
	if action.Coordinates != nil {
		if err := n.pointer.Move(action.Coordinates.X, action.Coordinates.Y, capability.MoveOptions{Profile: capability.MotionStraight, Speed: 1}); err != nil {
			return err
		}
	}
	switch action.Action {
	case bus.NavClick:
		return n.pointer.Click(capability.ButtonLeft, 1)
	case bus.NavDoubleClick:
		return n.pointer.Click(capability.ButtonLeft, 2)
	case bus.NavRightClick:
		return n.pointer.Click(capability.ButtonRight, 1)
	case bus.NavType:
		return n.keyboard.Type(action.Text, 0)
	default:
		return fmt.Errorf("unknown navigation action %q", action.Action)
	}
}

func (n *NavigationLoop) report(req *bus.Message, result bus.VisionResult) {
	msg, err := bus.Reply(req, bus.TypeVisionResult, result)
	if err != nil {
		logging.ActuatorError("build vision result: %v", err)
		return
	}
	if err := n.bus.Send(bus.TopicVisionResult, msg); err != nil {
		logging.ActuatorError("publish vision result: %v", err)
	}
}
