package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deskpilot/internal/bus"
	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
	"deskpilot/internal/registry"
)

const (
	defaultStatusTimeout = 30 * time.Second
	statusTimeoutFactor  = 2
)

// Planner is the command-to-program facade.
type Planner struct {
	bus       *bus.Bus
	generator Generator
	registry  *registry.Registry
	validator *protocol.Validator
}

// New creates a planner. The validator checks generated programs against
// the registry's parameter contracts before anything hits the bus.
func New(b *bus.Bus, gen Generator, reg *registry.Registry, validator *protocol.Validator) *Planner {
	return &Planner{
		bus:       b,
		generator: gen,
		registry:  reg,
		validator: validator,
	}
}

// Plan generates a program for the command, validates it, submits it,
// and waits for the actuator's terminal status.
func (p *Planner) Plan(ctx context.Context, command string) (*bus.ProgramStatus, error) {
	library, err := json.MarshalIndent(p.registry.Describe(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal action library: %w", err)
	}

	logging.Planner("generating program for command: %s", command)
	raw, err := p.generator.GenerateProgram(ctx, command, string(library))
	if err != nil {
		return nil, fmt.Errorf("program generation failed: %w", err)
	}

	// Generators are untrusted; strip a markdown fence here regardless of
	// which model wrapper produced the bytes.
	prog, validation, err := p.validator.Parse([]byte(stripFences(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("generated program rejected: %w", err)
	}
	for _, warning := range validation.Warnings {
		logging.PlannerWarn("program warning: %s", warning)
	}

	return p.Submit(ctx, prog)
}

// Submit publishes an already-validated program and waits for its
// terminal status.
func (p *Planner) Submit(ctx context.Context, prog *protocol.Program) (*bus.ProgramStatus, error) {
	msg, err := bus.NewMessage(bus.TypeProgramSubmit, bus.ProgramSubmit{Program: prog})
	if err != nil {
		return nil, err
	}
	if err := p.bus.Send(bus.TopicProgram, msg); err != nil {
		return nil, fmt.Errorf("submit program: %w", err)
	}
	logging.Planner("submitted program %s (%d actions)", msg.ID, len(prog.Actions))

	return p.awaitStatus(ctx, msg.ID, statusTimeout(prog))
}

func (p *Planner) awaitStatus(ctx context.Context, programID string, timeout time.Duration) (*bus.ProgramStatus, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("timeout: no status for program %s after %s", programID, timeout)
		}
		msg, err := p.bus.Receive(ctx, bus.TopicProgramStatus, remaining)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			continue
		}
		var status bus.ProgramStatus
		if err := msg.Decode(&status); err != nil {
			return nil, err
		}
		if status.ProgramID != "" && status.ProgramID != programID {
			logging.PlannerWarn("ignoring status for stale program %s", status.ProgramID)
			continue
		}
		logging.Planner("program %s finished: %s (%d/%d, %dms)",
			programID, status.Status, status.ActionsCompleted, status.TotalActions, status.DurationMs)
		return &status, nil
	}
}

// statusTimeout budgets the wait for a run from the program's own
// estimate, with a floor for programs that carry none.
func statusTimeout(prog *protocol.Program) time.Duration {
	est := prog.Metadata.EstimatedDurationSeconds
	if est <= 0 {
		return defaultStatusTimeout
	}
	budget := time.Duration(est*statusTimeoutFactor) * time.Second
	if budget < defaultStatusTimeout {
		return defaultStatusTimeout
	}
	return budget
}
