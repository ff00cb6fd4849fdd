// Package logging builds the zap loggers used across subtasker.
//
// The interactive UI owns the terminal, so logs go to a file. An empty path
// disables logging entirely.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name (debug, info, warn, error) to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// New creates a JSON logger appending to path at the given level.
// If path is empty it returns a no-op logger. Parent directories are created.
// The returned close function flushes and closes the file.
func New(path, level string) (*zap.Logger, func() error, error) {
	if path == "" {
		return Nop(), func() error { return nil }, nil
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), lvl)
	logger := zap.New(core, zap.AddCaller()).Named("subtasker")

	closeFn := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// DefaultPath returns the log file used when logging is enabled without an
// explicit path: $XDG_STATE_HOME/subtasker/subtasker.log or
// ~/.local/state/subtasker/subtasker.log.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "subtasker", "subtasker.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "subtasker.log")
	}
	return filepath.Join(home, ".local", "state", "subtasker", "subtasker.log")
}
