package main

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"deskpilot/internal/bus"
	"deskpilot/internal/capability/sim"
	"deskpilot/internal/config"
	"deskpilot/internal/executor"
	"deskpilot/internal/protocol"
	"deskpilot/internal/registry"
	"deskpilot/internal/vision"
)

// runtime bundles the wired components shared by the subcommands.
type runtime struct {
	registry  *registry.Registry
	surface   *sim.Surface
	bus       *bus.Bus
	executor  *executor.Executor
	validator *protocol.Validator
	genai     *genai.Client
}

// buildRuntime wires the action registry over the simulated capability
// surface, the message bus, and the executor. Real OS input drivers plug
// in through the same capability interfaces.
func buildRuntime(ctx context.Context, needVision bool) (*runtime, error) {
	r := registry.New()
	registry.RegisterAll(r)

	surface := sim.New()
	if err := wireCapabilities(r, surface); err != nil {
		return nil, err
	}

	b := bus.New(cfg.Bus.BaseDir, bus.WithPollTick(cfg.Bus.PollTickDuration()))
	if err := b.EnsureTopics(); err != nil {
		return nil, err
	}

	rt := &runtime{
		registry: r,
		surface:  surface,
		bus:      b,
		executor: newExecutor(r, surface, cfg),
		validator: &protocol.Validator{
			Catalog: r,
			Margin:  cfg.Executor.CoordinateMargin,
		},
	}

	if needVision {
		if cfg.Vision.APIKey == "" {
			return nil, fmt.Errorf("vision requires an API key (set GEMINI_API_KEY)")
		}
		client, err := vision.NewGeminiClient(ctx, cfg.Vision.APIKey)
		if err != nil {
			return nil, err
		}
		rt.genai = client

		verifier := vision.NewVerifier(surface,
			vision.NewGeminiModel(client, cfg.Vision.PrimaryModel),
			vision.WithFallback(vision.NewGeminiModel(client, cfg.Vision.FallbackModel)),
			vision.WithTimeout(cfg.Vision.TimeoutDuration()),
			vision.WithDefaultThreshold(cfg.Vision.DefaultThreshold),
		)
		if err := r.SetVerifier(verifier); err != nil {
			return nil, err
		}
	}

	return rt, nil
}

func wireCapabilities(r *registry.Registry, surface *sim.Surface) error {
	if err := r.SetKeyboard(surface); err != nil {
		return err
	}
	if err := r.SetPointer(surface); err != nil {
		return err
	}
	if err := r.SetScreen(surface); err != nil {
		return err
	}
	if err := r.SetClipboard(surface); err != nil {
		return err
	}
	return r.SetSystem(surface)
}

func newExecutor(r *registry.Registry, surface *sim.Surface, cfg *config.Config) *executor.Executor {
	return executor.New(r, executor.Options{
		PauseTick:         cfg.Executor.PauseTickDuration(),
		DryRun:            cfg.Executor.DryRun,
		DangerousPatterns: cfg.Safety.DangerousPatterns,
		DriftThresholdPx:  cfg.Safety.DriftThresholdPx,
		Pointer:           surface,
	})
}
