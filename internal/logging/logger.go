// Package logging provides config-driven categorized file logging for
// deskpilot. Logs are written to <base>/logs/ with one file per category
// per day. Logging is controlled by logging.debug_mode in the deskpilot
// config file - when false, no log files are written at all.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and initialization
	CategoryBus        Category = "bus"        // Message bus send/receive
	CategoryRegistry   Category = "registry"   // Action dispatch
	CategoryExecutor   Category = "executor"   // Protocol executor state machine
	CategoryVision     Category = "vision"     // Visual verifier and model calls
	CategoryPlanner    Category = "planner"    // Planner facade
	CategoryActuator   Category = "actuator"   // Actuator loop
	CategoryCapability Category = "capability" // OS capability surfaces
)

// loggingConfig mirrors the logging section of config.Config to avoid a
// circular import with the config package.
type loggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
// A Logger with a nil inner logger is a no-op.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	baseDir   string
	cfg       loggingConfig
	cfgMu     sync.RWMutex
	logLevel  int
)

// Initialize sets up the logging directory and loads the logging section
// of the config. Call once at startup with the deskpilot base directory
// (the directory holding config.yaml).
func Initialize(base string) error {
	if base == "" {
		return fmt.Errorf("base directory required")
	}

	baseDir = base
	logsDir = filepath.Join(base, "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not load config: %v\n", err)
		cfg.DebugMode = false
	}

	if !cfg.DebugMode {
		return nil // Silent no-op in production mode.
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== deskpilot logging initialized ===")
	boot.Info("base: %s", baseDir)
	boot.Info("level: %s", cfg.Level)
	return nil
}

func loadConfig() error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	configPath := filepath.Join(baseDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DebugMode = false
			return nil
		}
		return err
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// ReloadConfig reloads the logging config from disk.
func ReloadConfig() error {
	return loadConfig()
}

// IsDebugMode reports whether debug logging is enabled.
func IsDebugMode() bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled reports whether a category is enabled.
func IsCategoryEnabled(category Category) bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()

	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a
// no-op logger when debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions. No-ops when the category is disabled.

func Boot(format string, args ...any)     { Get(CategoryBoot).Info(format, args...) }
func BootWarn(format string, args ...any) { Get(CategoryBoot).Warn(format, args...) }

func Bus(format string, args ...any)      { Get(CategoryBus).Info(format, args...) }
func BusDebug(format string, args ...any) { Get(CategoryBus).Debug(format, args...) }
func BusWarn(format string, args ...any)  { Get(CategoryBus).Warn(format, args...) }
func BusError(format string, args ...any) { Get(CategoryBus).Error(format, args...) }

func Registry(format string, args ...any)      { Get(CategoryRegistry).Info(format, args...) }
func RegistryDebug(format string, args ...any) { Get(CategoryRegistry).Debug(format, args...) }

func Executor(format string, args ...any)      { Get(CategoryExecutor).Info(format, args...) }
func ExecutorDebug(format string, args ...any) { Get(CategoryExecutor).Debug(format, args...) }
func ExecutorWarn(format string, args ...any)  { Get(CategoryExecutor).Warn(format, args...) }
func ExecutorError(format string, args ...any) { Get(CategoryExecutor).Error(format, args...) }

func Vision(format string, args ...any)      { Get(CategoryVision).Info(format, args...) }
func VisionDebug(format string, args ...any) { Get(CategoryVision).Debug(format, args...) }
func VisionWarn(format string, args ...any)  { Get(CategoryVision).Warn(format, args...) }

func Planner(format string, args ...any)     { Get(CategoryPlanner).Info(format, args...) }
func PlannerWarn(format string, args ...any) { Get(CategoryPlanner).Warn(format, args...) }

func Actuator(format string, args ...any)      { Get(CategoryActuator).Info(format, args...) }
func ActuatorWarn(format string, args ...any)  { Get(CategoryActuator).Warn(format, args...) }
func ActuatorError(format string, args ...any) { Get(CategoryActuator).Error(format, args...) }

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
