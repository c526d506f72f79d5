package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"warden/internal/config"
	"warden/internal/logging"
)

// newLoggerFromConfig creates a logger using application config defaults. When
// a log directory is configured, output is mirrored to warden.log inside it.
func newLoggerFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return logging.New(logging.Options{Level: "info", Format: "console"})
	}

	outputPaths := []string{"stdout"}
	errorOutputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath := filepath.Join(cfg.Paths.LogDir, "warden.log")
		outputPaths = append(outputPaths, logPath)
		errorOutputs = append(errorOutputs, logPath)
	}

	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputs,
	})
}
