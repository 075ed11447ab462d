package executor

import "time"

// Status is the terminal state of one program run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusStopped Status = "stopped"
)

// ExecutionError is the structured record of the step that terminated a
// run.
type ExecutionError struct {
	ActionIndex  int            `json:"action_index"`
	ActionName   string         `json:"action_name"`
	ErrorKind    string         `json:"error_kind"`
	ErrorMessage string         `json:"error_message"`
	Params       map[string]any `json:"params,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// StepRecord is one entry in the run's audit trail, appended per
// top-level action. Result carries the handler's opaque return value.
type StepRecord struct {
	Index      int       `json:"index"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	Result     any       `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// ContextSnapshot is an immutable copy of the live execution context.
type ContextSnapshot struct {
	ProgramID string         `json:"program_id"`
	Variables map[string]any `json:"variables"`
	Results   []StepRecord   `json:"results"`
}

// Result is the terminal record of one program run.
type Result struct {
	ProgramID        string           `json:"program_id"`
	Status           Status           `json:"status"`
	ActionsCompleted int              `json:"actions_completed"`
	TotalActions     int              `json:"total_actions"`
	DurationMs       int64            `json:"duration_ms"`
	Error            string           `json:"error,omitempty"`
	ErrorDetails     *ExecutionError  `json:"error_details,omitempty"`
	Context          *ContextSnapshot `json:"context,omitempty"`
}
