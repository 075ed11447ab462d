// Package executor drives a validated program to a terminal state:
// ordered dispatch, variable substitution, macro expansion, pause/
// resume/stop at explicit checkpoints, a safety floor for typed text and
// pointer drift, and the verification side effect that re-binds
// coordinates mid-run.
package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"deskpilot/internal/capability"
	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
	"deskpilot/internal/registry"
	"deskpilot/internal/vision"
)

const defaultPauseTick = 100 * time.Millisecond

// Options configure an Executor at construction.
type Options struct {
	// PauseTick is the sleep interval while paused. Zero means 100ms.
	PauseTick time.Duration

	// DryRun replaces every handler invocation and timing wait with
	// logging. State transitions still run.
	DryRun bool

	// DangerousPatterns is the case-insensitive substring deny list for
	// keyboard-text actions.
	DangerousPatterns []string

	// DriftThresholdPx enables the pointer-drift interrupt when positive.
	DriftThresholdPx int

	// Pointer, when set, feeds the drift check. Usually the same surface
	// the registry dispatches to.
	Pointer capability.Pointer
}

// Executor runs one program at a time. Control methods are safe to call
// from any goroutine; the run loop itself is single-threaded.
type Executor struct {
	registry *registry.Registry

	pauseTick         time.Duration
	dryRun            bool
	dangerousPatterns []string
	driftThreshold    int
	pointer           capability.Pointer

	mu             sync.Mutex
	running        bool
	paused         bool
	pauseRequested bool
	stopRequested  bool
	currentIndex   int
	totalActions   int
	programID      string
	vars           map[string]any
	results        []StepRecord
	lastCommanded  *capability.Point
}

// New creates an executor over the given registry.
func New(reg *registry.Registry, opts Options) *Executor {
	tick := opts.PauseTick
	if tick <= 0 {
		tick = defaultPauseTick
	}
	return &Executor{
		registry:          reg,
		pauseTick:         tick,
		dryRun:            opts.DryRun,
		dangerousPatterns: opts.DangerousPatterns,
		driftThreshold:    opts.DriftThresholdPx,
		pointer:           opts.Pointer,
	}
}

// StatusInfo is the snapshot returned by Status.
type StatusInfo struct {
	Running      bool   `json:"running"`
	Paused       bool   `json:"paused"`
	CurrentIndex int    `json:"current_index"`
	TotalActions int    `json:"total_actions"`
	ProgramID    string `json:"program_id"`
	DryRun       bool   `json:"dry_run"`
}

// Status returns a consistent snapshot of the executor state.
func (e *Executor) Status() StatusInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StatusInfo{
		Running:      e.running,
		Paused:       e.paused,
		CurrentIndex: e.currentIndex,
		TotalActions: e.totalActions,
		ProgramID:    e.programID,
		DryRun:       e.dryRun,
	}
}

// Pause requests cooperative suspension at the next checkpoint. Returns
// true only when a program is running and not already pausing.
func (e *Executor) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.pauseRequested {
		return false
	}
	e.pauseRequested = true
	logging.Executor("pause requested")
	return true
}

// Resume clears a pending pause. Returns true only when a pause was
// pending.
func (e *Executor) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || !e.pauseRequested {
		return false
	}
	e.pauseRequested = false
	logging.Executor("resumed")
	return true
}

// Stop requests termination at the next checkpoint, clearing any pause
// so the loop can wake. Returns true iff a program was running.
func (e *Executor) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.stopRequested = true
	e.pauseRequested = false
	logging.Executor("stop requested")
	return true
}

// ContextSnapshot copies the live execution context for external
// readers.
func (e *Executor) ContextSnapshot() *ContextSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Executor) snapshotLocked() *ContextSnapshot {
	vars := make(map[string]any, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	results := make([]StepRecord, len(e.results))
	copy(results, e.results)
	return &ContextSnapshot{
		ProgramID: e.programID,
		Variables: vars,
		Results:   results,
	}
}

// Run executes a program to a terminal Result. A second concurrent call
// fails with ErrBusy and leaves the first run untouched.
func (e *Executor) Run(ctx context.Context, programID string, prog *protocol.Program) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: program %s is running", ErrBusy, e.programID)
	}
	e.running = true
	e.paused = false
	e.pauseRequested = false
	e.stopRequested = false
	e.currentIndex = 0
	e.totalActions = len(prog.Actions)
	e.programID = programID
	e.vars = make(map[string]any)
	e.results = nil
	e.lastCommanded = nil
	e.mu.Unlock()

	logging.Executor("run start: program=%s actions=%d dry_run=%v", programID, len(prog.Actions), e.dryRun)
	start := time.Now()
	result := e.runLoop(ctx, prog)
	result.ProgramID = programID
	result.TotalActions = len(prog.Actions)
	result.DurationMs = time.Since(start).Milliseconds()

	e.mu.Lock()
	result.Context = e.snapshotLocked()
	e.running = false
	e.paused = false
	e.mu.Unlock()

	logging.Executor("run end: program=%s status=%s completed=%d/%d duration=%dms",
		programID, result.Status, result.ActionsCompleted, result.TotalActions, result.DurationMs)
	return result, nil
}

func (e *Executor) runLoop(ctx context.Context, prog *protocol.Program) *Result {
	completed := 0
	for i, action := range prog.Actions {
		e.mu.Lock()
		e.currentIndex = i
		e.mu.Unlock()

		if err := e.checkpoint(ctx); err != nil {
			return e.stoppedResult(completed, i, action.Action, err)
		}

		stepStart := time.Now()
		out, err := e.dispatch(ctx, prog, action, e.vars)
		if err != nil {
			// A stop observed at a checkpoint inside a macro surfaces here
			// through the dispatch path; it is still an orderly stop.
			if errors.Is(err, ErrStopped) {
				e.appendResult(StepRecord{
					Index:      i,
					Action:     action.Action,
					Status:     "stopped",
					Error:      err.Error(),
					DurationMs: time.Since(stepStart).Milliseconds(),
					Timestamp:  stepStart.UTC(),
				})
				return e.stoppedResult(completed, i, action.Action, err)
			}
			e.appendResult(StepRecord{
				Index:      i,
				Action:     action.Action,
				Status:     "error",
				Error:      err.Error(),
				DurationMs: time.Since(stepStart).Milliseconds(),
				Timestamp:  stepStart.UTC(),
			})
			status := StatusFailed
			if errors.Is(err, ErrUserInterrupted) {
				status = StatusStopped
			}
			logging.ExecutorError("action %d (%s) failed: %v", i, action.Action, err)
			return &Result{
				Status:           status,
				ActionsCompleted: completed,
				Error:            fmt.Sprintf("%s: %v", action.Action, err),
				ErrorDetails:     e.executionError(i, action.Action, err, action.Params),
			}
		}

		e.appendResult(StepRecord{
			Index:      i,
			Action:     action.Action,
			Status:     "success",
			Result:     out,
			DurationMs: time.Since(stepStart).Milliseconds(),
			Timestamp:  stepStart.UTC(),
		})
		completed++

		e.waitAfter(action.WaitAfterMs)
	}

	// Final checkpoint: a pause requested during the last wait suspends
	// here before the run closes out.
	if err := e.checkpoint(ctx); err != nil {
		name := ""
		if n := len(prog.Actions); n > 0 {
			name = prog.Actions[n-1].Action
		}
		return e.stoppedResult(completed, len(prog.Actions)-1, name, err)
	}
	return &Result{Status: StatusSuccess, ActionsCompleted: completed}
}

// stoppedResult shapes every stopped termination the same way: a stop by
// request carries only the message, while a drift interrupt keeps its
// structured user_interrupted record.
func (e *Executor) stoppedResult(completed, index int, name string, err error) *Result {
	res := &Result{
		Status:           StatusStopped,
		ActionsCompleted: completed,
		Error:            err.Error(),
	}
	if errors.Is(err, ErrUserInterrupted) {
		res.ErrorDetails = e.executionError(index, name, err, nil)
	}
	return res
}

// dispatch substitutes, screens, and executes one action against the
// given variable scope, returning the handler's result. Macro calls
// expand in place; their params (the vars bindings included) substitute
// against the invoking scope first, so call-site tokens resolve before
// the fresh scope is built.
func (e *Executor) dispatch(ctx context.Context, prog *protocol.Program, action protocol.Action, scope map[string]any) (any, error) {
	params, err := substituteParams(action.Params, scope)
	if err != nil {
		return nil, err
	}

	if action.Action == protocol.ActionMacro {
		action.Params = params
		return nil, e.runMacro(ctx, prog, action, scope)
	}

	if err := e.checkDangerous(action.Action, params); err != nil {
		return nil, err
	}

	if e.dryRun {
		logging.Executor("dry-run: %s params=%v", action.Action, params)
		return nil, nil
	}

	result, err := e.registry.Execute(ctx, action.Action, params)
	if err != nil {
		return nil, err
	}
	e.noteCommandedPosition(action.Action, params)

	if vres, ok := result.(*vision.Result); ok {
		e.applyVerification(vres, scope)
	}
	return result, nil
}

// applyVerification performs the adaptive re-binding side effect. It
// never aborts on safe_to_proceed=false; the program decides what to do
// with the flag.
func (e *Executor) applyVerification(res *vision.Result, scope map[string]any) {
	logging.Executor("verification: safe=%v confidence=%.2f analysis=%s",
		res.SafeToProceed, res.Confidence, res.Analysis)

	// Writes land in the run context and, when expanding a macro, also in
	// the local scope so the remaining macro steps observe them.
	topLevel := reflect.ValueOf(scope).Pointer() == reflect.ValueOf(e.vars).Pointer()
	write := func(key string, value any) {
		e.mu.Lock()
		e.vars[key] = value
		e.mu.Unlock()
		if !topLevel {
			scope[key] = value
		}
	}

	if res.UpdatedCoordinates != nil {
		write("verified_x", res.UpdatedCoordinates.X)
		write("verified_y", res.UpdatedCoordinates.Y)
	}
	if res.SuggestedActions != nil {
		write("suggested_actions", res.SuggestedActions)
	}
	write("last_verification_safe", res.SafeToProceed)
	write("last_verification_confidence", res.Confidence)
	write("last_verification_analysis", res.Analysis)
}

// checkpoint observes the stop flag, the pause flag, and pointer drift.
// These are the only suspension points; a non-nil return terminates the
// run as stopped.
func (e *Executor) checkpoint(ctx context.Context) error {
	for {
		e.mu.Lock()
		stop := e.stopRequested
		pause := e.pauseRequested
		e.paused = pause && !stop
		e.mu.Unlock()

		if stop {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStopped, err)
		}
		if err := e.checkDrift(); err != nil {
			return err
		}
		if !pause {
			return nil
		}
		time.Sleep(e.pauseTick)
	}
}

// waitAfter sleeps the post-action delay. The sleep always completes: a
// pause or stop requested during the wait takes effect at the next
// checkpoint, after the wait expires.
func (e *Executor) waitAfter(ms int) {
	if ms <= 0 {
		return
	}
	if e.dryRun {
		logging.Executor("dry-run: wait %dms", ms)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (e *Executor) appendResult(rec StepRecord) {
	e.mu.Lock()
	e.results = append(e.results, rec)
	e.mu.Unlock()
}

func (e *Executor) executionError(index int, name string, err error, params map[string]any) *ExecutionError {
	return &ExecutionError{
		ActionIndex:  index,
		ActionName:   name,
		ErrorKind:    kindOf(err),
		ErrorMessage: err.Error(),
		Params:       params,
		Timestamp:    time.Now().UTC(),
	}
}
