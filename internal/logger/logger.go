// Package logger provides verbose logging for the ragchat CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow requests to the gateway.
// A log file, when set, receives every message regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	rotator *lumberjack.Logger
	sugar   = zap.NewNop().Sugar()
	file    = zap.NewNop()
)

// consoleEncoderConfig renders "[LEVEL] message" lines with no timestamp.
func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:   "level",
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
		ConsoleSeparator: " ",
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// rebuild recreates the zap core. Callers must hold mu for writing.
func rebuild() {
	var cores []zapcore.Core
	if verbose {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(output)),
			zapcore.DebugLevel,
		))
	}
	file = zap.NewNop()
	if rotator != nil {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(rotator),
			zapcore.DebugLevel,
		)
		cores = append(cores, fileCore)
		file = zap.New(fileCore)
	}
	sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetLogFile routes all log levels to a size-rotated JSON file.
// An empty path disables file logging.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     28, // Days
			Compress:   true,
		}
	}

	rebuild()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	_ = sugar.Sync()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	rebuild()
	return err
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	file.Info("section", zap.String("name", name))
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, args...)
}

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, args...)
}
