// Package bus is the file-system message channel between the planner and
// the actuator. Each topic is a directory; each message is one JSON file
// named <id>.json, written whole via temp-then-rename and deleted on
// read, giving at-most-once delivery in oldest-first order.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deskpilot/internal/executor"
	"deskpilot/internal/protocol"
)

// Topic names the six channel directories.
type Topic string

const (
	// TopicProgram carries program submissions, planner to actuator.
	TopicProgram Topic = "program"

	// TopicProgramStatus carries terminal run results back.
	TopicProgramStatus Topic = "program_status"

	// TopicVisionRequest, TopicVisionResponse, TopicVisionAction and
	// TopicVisionResult implement the visual navigation round-trip.
	TopicVisionRequest  Topic = "vision_request"
	TopicVisionResponse Topic = "vision_response"
	TopicVisionAction   Topic = "vision_action"
	TopicVisionResult   Topic = "vision_result"
)

// AllTopics lists every topic, for directory setup.
var AllTopics = []Topic{
	TopicProgram, TopicProgramStatus,
	TopicVisionRequest, TopicVisionResponse,
	TopicVisionAction, TopicVisionResult,
}

// Message type strings carried in the envelope.
const (
	TypeProgramSubmit  = "program.submit"
	TypeProgramStatus  = "program.status"
	TypeVisionRequest  = "vision.request"
	TypeVisionResponse = "vision.response"
	TypeVisionAction   = "vision.action"
	TypeVisionResult   = "vision.result"
)

// Message is the wire envelope.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewMessage builds an envelope with a fresh UUID and the current time.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Reply builds an envelope reusing the id of a request, so the requester
// can poll for the response by id.
func Reply(req *Message, msgType string, payload any) (*Message, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	msg.ID = req.ID
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: payload of %s message %s: %v", ErrMalformedMessage, m.Type, m.ID, err)
	}
	return nil
}

// ProgramSubmit is the program topic payload.
type ProgramSubmit struct {
	Program *protocol.Program `json:"program"`
}

// ProgramStatus is the program_status topic payload, mirroring the
// executor's terminal result.
type ProgramStatus struct {
	ProgramID        string                     `json:"program_id"`
	Status           string                     `json:"status"`
	ActionsCompleted int                        `json:"actions_completed"`
	TotalActions     int                        `json:"total_actions"`
	DurationMs       int64                      `json:"duration_ms"`
	Error            string                     `json:"error,omitempty"`
	ErrorDetails     *executor.ExecutionError   `json:"error_details,omitempty"`
	Context          *executor.ContextSnapshot  `json:"context,omitempty"`
}

// StatusFromResult converts an executor result into the wire payload.
func StatusFromResult(res *executor.Result) *ProgramStatus {
	return &ProgramStatus{
		ProgramID:        res.ProgramID,
		Status:           string(res.Status),
		ActionsCompleted: res.ActionsCompleted,
		TotalActions:     res.TotalActions,
		DurationMs:       res.DurationMs,
		Error:            res.Error,
		ErrorDetails:     res.ErrorDetails,
		Context:          res.Context,
	}
}

// Position is a pointer location on the wire.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Dimensions is a screen size on the wire.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VisionRequest asks the planner for a navigation decision.
type VisionRequest struct {
	RequestID       string `json:"request_id"`
	TaskDescription string `json:"task_description"`
	WorkflowGoal    string `json:"workflow_goal"`
	Iteration       int    `json:"iteration"`
	MaxIterations   int    `json:"max_iterations"`
}

// VisionResponse carries the observed screen back to the planner.
type VisionResponse struct {
	RequestID        string     `json:"request_id"`
	ScreenshotBase64 string     `json:"screenshot_base64"`
	MousePosition    Position   `json:"mouse_position"`
	ScreenSize       Dimensions `json:"screen_size"`
}

// Navigation decision actions.
const (
	NavClick       = "click"
	NavDoubleClick = "double_click"
	NavRightClick  = "right_click"
	NavType        = "type"
)

// VisionAction is the planner's decision for one navigation iteration.
type VisionAction struct {
	RequestID       string    `json:"request_id"`
	Action          string    `json:"action"`
	Coordinates     *Position `json:"coordinates,omitempty"`
	Text            string    `json:"text,omitempty"`
	RequestFollowup bool      `json:"request_followup"`
}

// Vision result statuses.
const (
	VisionStatusSuccess = "success"
	VisionStatusError   = "error"
	VisionStatusTimeout = "timeout"
)

// VisionResult reports the outcome of one performed navigation action.
type VisionResult struct {
	RequestID        string   `json:"request_id"`
	Status           string   `json:"status"`
	Error            string   `json:"error,omitempty"`
	ScreenshotBase64 string   `json:"screenshot_base64,omitempty"`
	MousePosition    Position `json:"mouse_position"`
}
