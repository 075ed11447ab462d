package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deskpilot/internal/actuator"
)

var actuatorNoVision bool

var actuatorCmd = &cobra.Command{
	Use:   "actuator",
	Short: "Run the program-executing host loop",
	Long: `Polls the program topic, validates and executes each submitted program,
and publishes terminal statuses. Runs until interrupted; Ctrl-C shuts
down orderly after the current program finishes its checkpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := buildRuntime(ctx, !actuatorNoVision)
		if err != nil {
			return err
		}

		nav := actuator.NewNavigationLoop(rt.bus, rt.surface, rt.surface, rt.surface)
		if err := rt.registry.SetNavigator(nav); err != nil {
			return err
		}

		a := actuator.New(rt.bus, rt.executor, rt.validator, actuator.Options{
			PollInterval: cfg.Bus.ProgramPollDuration(),
		})

		logger.Info("actuator started",
			zap.String("bus", rt.bus.Base()),
			zap.Duration("poll", cfg.Bus.ProgramPollDuration()),
			zap.Bool("dry_run", cfg.Executor.DryRun))
		return a.Run(ctx)
	},
}

func init() {
	actuatorCmd.Flags().BoolVar(&actuatorNoVision, "no-vision", false, "run without the visual verifier")
}
