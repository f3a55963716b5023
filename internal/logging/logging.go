// Package logging builds the shell's diagnostic logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marcelocantos/mysh/internal/config"
)

// New returns a production zap logger for cfg. With a log path the logger
// writes JSON there at the configured level. Without one it writes
// human-readable lines to stderr, warnings and above only, so diagnostics
// do not interleave with command output. debug forces debug level.
func New(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	zc := zap.NewProductionConfig()
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zc.OutputPaths = []string{cfg.Path}
	} else {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.DisableStacktrace = true
		level = max(level, zapcore.WarnLevel)
	}
	if debug {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
