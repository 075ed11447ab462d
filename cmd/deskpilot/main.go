// deskpilot is a desktop automation pair: a planner that turns commands
// into validated instruction programs and an actuator that executes them
// against the host, exchanging messages over a file-system bus.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"deskpilot/internal/config"
	"deskpilot/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "deskpilot",
	Short: "deskpilot - AI-planned desktop automation",
	Long: `deskpilot splits desktop automation into two processes: a planner that
converts natural-language commands into validated instruction programs,
and an actuator that executes them through OS input capabilities.

The two sides exchange JSON messages over a directory-backed bus, with a
visual verifier re-binding coordinates against live screenshots.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment wins.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		_ = logging.Initialize(filepath.Dir(resolveConfigPath()))

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "deskpilot", "config.yaml")
	}
	return filepath.Join(home, ".deskpilot", "config.yaml")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.deskpilot/config.yaml)")

	rootCmd.AddCommand(actuatorCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
