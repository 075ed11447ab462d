// Package actuator hosts program execution: a long-lived loop that polls
// the program topic, validates and runs each submission through the
// executor, and publishes terminal statuses. It also implements the host
// side of the visual navigation loop.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"deskpilot/internal/bus"
	"deskpilot/internal/executor"
	"deskpilot/internal/logging"
	"deskpilot/internal/protocol"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultBackoff      = 2 * time.Second
)

// Options configure an Actuator.
type Options struct {
	// PollInterval is the wait per receive on the program topic. Zero
	// means 500ms.
	PollInterval time.Duration

	// Backoff is the pause after a bus error. Zero means 2s.
	Backoff time.Duration
}

// Actuator runs one program at a time.
type Actuator struct {
	bus       *bus.Bus
	executor  *executor.Executor
	validator *protocol.Validator

	pollInterval time.Duration
	backoff      time.Duration
}

// New creates an actuator over a bus, an executor, and the validator
// guarding submissions.
func New(b *bus.Bus, exec *executor.Executor, validator *protocol.Validator, opts Options) *Actuator {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Actuator{
		bus:          b,
		executor:     exec,
		validator:    validator,
		pollInterval: poll,
		backoff:      backoff,
	}
}

// Executor exposes the underlying executor for control surfaces.
func (a *Actuator) Executor() *executor.Executor { return a.executor }

// Run polls for programs until the context ends. The poll loop and the
// status publisher run under one errgroup; either failing tears down
// both.
func (a *Actuator) Run(ctx context.Context) error {
	statuses := make(chan *bus.ProgramStatus, 4)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(statuses)
		return a.pollLoop(ctx, statuses)
	})
	g.Go(func() error {
		return a.publishLoop(ctx, statuses)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Actuator) pollLoop(ctx context.Context, statuses chan<- *bus.ProgramStatus) error {
	logging.Actuator("polling for programs every %s", a.pollInterval)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := a.bus.Receive(ctx, bus.TopicProgram, a.pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Malformed submissions stay in place for diagnosis; back off
			// so the log does not flood.
			logging.ActuatorError("program receive failed: %v", err)
			a.sleep(ctx, a.backoff)
			continue
		}
		if msg == nil {
			continue
		}

		status := a.handle(ctx, msg)
		select {
		case statuses <- status:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *Actuator) publishLoop(ctx context.Context, statuses <-chan *bus.ProgramStatus) error {
	for {
		select {
		case status, ok := <-statuses:
			if !ok {
				return nil
			}
			msg, err := bus.NewMessage(bus.TypeProgramStatus, status)
			if err != nil {
				return err
			}
			if err := a.bus.Send(bus.TopicProgramStatus, msg); err != nil {
				logging.ActuatorError("status publish failed: %v", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle validates and runs one submission, always producing a status.
func (a *Actuator) handle(ctx context.Context, msg *bus.Message) *bus.ProgramStatus {
	var submit bus.ProgramSubmit
	if err := msg.Decode(&submit); err != nil || submit.Program == nil {
		logging.ActuatorError("malformed submission %s: %v", msg.ID, err)
		return &bus.ProgramStatus{
			ProgramID: msg.ID,
			Status:    string(executor.StatusFailed),
			Error:     fmt.Sprintf("communication_error: malformed submission: %v", err),
		}
	}

	validation := a.validator.Validate(submit.Program)
	if !validation.IsValid {
		logging.ActuatorWarn("program %s rejected: %s", msg.ID, validation.Summary())
		return &bus.ProgramStatus{
			ProgramID: msg.ID,
			Status:    string(executor.StatusFailed),
			Error:     fmt.Sprintf("validation_failed: %s", validation.Summary()),
		}
	}
	for _, warning := range validation.Warnings {
		logging.ActuatorWarn("program %s warning: %s", msg.ID, warning)
	}

	result, err := a.executor.Run(ctx, msg.ID, submit.Program)
	if err != nil {
		if errors.Is(err, executor.ErrBusy) {
			return &bus.ProgramStatus{
				ProgramID: msg.ID,
				Status:    "busy",
				Error:     err.Error(),
			}
		}
		return &bus.ProgramStatus{
			ProgramID: msg.ID,
			Status:    string(executor.StatusFailed),
			Error:     err.Error(),
		}
	}
	return bus.StatusFromResult(result)
}

func (a *Actuator) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
