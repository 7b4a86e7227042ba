// Package logging builds the file-backed logger used while the TUI owns
// the terminal. Stdout belongs to bubbletea, so log output goes to
// <config dir>/logs/careerpilot.log; with debug disabled everything is a
// no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFileLogger returns a logger writing JSON lines under dir/logs. When
// debug is false it returns a no-op logger and touches nothing on disk.
func NewFileLogger(dir string, debug bool) (*zap.Logger, func(), error) {
	if !debug {
		return zap.NewNop(), func() {}, nil
	}

	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s_careerpilot.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logsDir, name),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(file),
		zapcore.DebugLevel,
	)

	logger := zap.New(core)
	cleanup := func() {
		_ = logger.Sync()
		_ = file.Close()
	}
	return logger, cleanup, nil
}
