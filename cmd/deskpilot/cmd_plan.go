package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"deskpilot/internal/planner"
	"deskpilot/internal/vision"
)

var planCmd = &cobra.Command{
	Use:   "plan \"<command>\"",
	Short: "Generate a program for a command and run it via the actuator",
	Long: `Converts a natural-language command into a validated automation
program, submits it on the bus, and waits for the actuator's terminal
status. While waiting, navigation requests from the actuator are
answered with vision-model decisions. Requires a running actuator.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := buildRuntime(ctx, true)
		if err != nil {
			return err
		}

		command := strings.Join(args, " ")
		gen := planner.NewGeminiGenerator(rt.genai, cfg.Vision.PrimaryModel)
		p := planner.New(rt.bus, gen, rt.registry, rt.validator)

		// Serve navigation decisions while the program runs.
		navCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		decider := planner.NewModelDecider(vision.NewGeminiModel(rt.genai, cfg.Vision.PrimaryModel))
		go func() { _ = p.ServeNavigation(navCtx, decider) }()

		status, err := p.Plan(ctx, command)
		if err != nil {
			return err
		}

		fmt.Println(renderStatus(status))
		return nil
	},
}
