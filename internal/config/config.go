// Package config holds all deskpilot configuration: the message bus
// layout, executor timing and safety settings, vision model selection,
// and logging. Configuration is loaded from YAML with environment
// overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all deskpilot configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Message bus settings
	Bus BusConfig `yaml:"bus"`

	// Protocol executor settings
	Executor ExecutorConfig `yaml:"executor"`

	// Visual verifier settings
	Vision VisionConfig `yaml:"vision"`

	// Safety floor
	Safety SafetyConfig `yaml:"safety"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BusConfig configures the file-system message bus.
type BusConfig struct {
	// BaseDir is the directory containing one subdirectory per topic.
	BaseDir string `yaml:"base_dir"`

	// PollTick is the fallback polling interval for blocking receives.
	PollTick string `yaml:"poll_tick"`

	// ProgramPoll is the actuator's program-topic polling interval.
	ProgramPoll string `yaml:"program_poll"`
}

// ExecutorConfig configures the protocol executor.
type ExecutorConfig struct {
	// PauseTick is the cooperative sleep while paused.
	PauseTick string `yaml:"pause_tick"`

	// DryRun replaces handler invocations with logging.
	DryRun bool `yaml:"dry_run"`

	// CoordinateMargin is the warning margin for coordinate bounds
	// validation, in pixels.
	CoordinateMargin int `yaml:"coordinate_margin"`
}

// VisionConfig configures the visual verifier.
type VisionConfig struct {
	// PrimaryModel and FallbackModel are vision model names.
	PrimaryModel  string `yaml:"primary_model"`
	FallbackModel string `yaml:"fallback_model"`

	// APIKey for the model provider. Usually supplied via GEMINI_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a single model call.
	Timeout string `yaml:"timeout"`

	// DefaultThreshold is the confidence threshold used when a program
	// does not supply one.
	DefaultThreshold float64 `yaml:"default_threshold"`
}

// SafetyConfig configures the executor safety floor.
type SafetyConfig struct {
	// DangerousPatterns is the case-insensitive substring deny list
	// applied to keyboard-text actions.
	DangerousPatterns []string `yaml:"dangerous_patterns"`

	// DriftThresholdPx stops the run with user_interrupted when the
	// pointer drifts this far from the last commanded position.
	DriftThresholdPx int `yaml:"drift_threshold_px"`
}

// LoggingConfig configures category file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "deskpilot",
		Version: "1.0.0",

		Bus: BusConfig{
			BaseDir:     defaultBusDir(),
			PollTick:    "200ms",
			ProgramPoll: "500ms",
		},

		Executor: ExecutorConfig{
			PauseTick:        "100ms",
			DryRun:           false,
			CoordinateMargin: 0,
		},

		Vision: VisionConfig{
			PrimaryModel:     "gemini-2.5-flash",
			FallbackModel:    "gemini-2.0-flash",
			Timeout:          "10s",
			DefaultThreshold: 0.7,
		},

		Safety: SafetyConfig{
			DangerousPatterns: []string{
				"rm -rf",
				"mkfs",
				"dd if=",
				"format c:",
				"del /f /s /q",
				":(){ :|:& };:",
				"shutdown -h now",
			},
			DriftThresholdPx: 120,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultBusDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "deskpilot", "bus")
	}
	return filepath.Join(home, ".deskpilot", "bus")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides overrides config fields from the environment.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Vision.APIKey = key
	}
	if dir := os.Getenv("DESKPILOT_BUS_DIR"); dir != "" {
		c.Bus.BaseDir = dir
	}
	if model := os.Getenv("DESKPILOT_VISION_MODEL"); model != "" {
		c.Vision.PrimaryModel = model
	}
	if model := os.Getenv("DESKPILOT_VISION_FALLBACK"); model != "" {
		c.Vision.FallbackModel = model
	}
	if v := os.Getenv("DESKPILOT_DRY_RUN"); v == "1" || v == "true" {
		c.Executor.DryRun = true
	}
}

// Duration helpers. Invalid or empty strings fall back to the given
// default rather than failing at call sites.

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// PollTickDuration returns the parsed bus poll tick.
func (b BusConfig) PollTickDuration() time.Duration {
	return parseDuration(b.PollTick, 200*time.Millisecond)
}

// ProgramPollDuration returns the parsed actuator poll interval.
func (b BusConfig) ProgramPollDuration() time.Duration {
	return parseDuration(b.ProgramPoll, 500*time.Millisecond)
}

// PauseTickDuration returns the parsed executor pause tick.
func (e ExecutorConfig) PauseTickDuration() time.Duration {
	return parseDuration(e.PauseTick, 100*time.Millisecond)
}

// TimeoutDuration returns the parsed vision call timeout.
func (v VisionConfig) TimeoutDuration() time.Duration {
	return parseDuration(v.Timeout, 10*time.Second)
}
