package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"deskpilot/internal/bus"
	"deskpilot/internal/executor"
)

var (
	runDry      bool
	runNoVision bool
)

var runCmd = &cobra.Command{
	Use:   "run <program.json>",
	Short: "Execute a program file locally",
	Long: `Parses, validates, and executes a program without going through the
bus. With --dry-run every handler invocation is replaced by logging, so
a program can be rehearsed safely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runDry {
			cfg.Executor.DryRun = true
		}

		rt, err := buildRuntime(ctx, !runNoVision && cfg.Vision.APIKey != "")
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read program: %w", err)
		}
		prog, result, err := rt.validator.Parse(data)
		if err != nil {
			fmt.Println(renderValidation(args[0], result))
			return fmt.Errorf("program is invalid")
		}
		for _, warning := range result.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}

		// Stop on Ctrl-C at the next checkpoint.
		go func() {
			<-ctx.Done()
			rt.executor.Stop()
		}()

		res, err := rt.executor.Run(ctx, args[0], prog)
		if err != nil {
			return err
		}

		fmt.Println(renderStatus(bus.StatusFromResult(res)))
		if res.Status != executor.StatusSuccess {
			return fmt.Errorf("program finished with status %s", res.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDry, "dry-run", false, "log actions instead of executing them")
	runCmd.Flags().BoolVar(&runNoVision, "no-vision", false, "run without the visual verifier")
}
