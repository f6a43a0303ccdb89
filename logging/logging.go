// Package logging builds the process logger
// The interactive client owns the terminal, so output only ever goes to a file
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogDir      = "logs"
	LogFileName = "spotglobe.log"
	MaxLogSize  = 10 * 1024 * 1024
)

// Setup returns a no-op logger when debug is false; otherwise a JSON logger on logs/spotglobe.log
// close flushes and releases the file and is never nil
func Setup(debug bool) (*zap.Logger, func() error, error) {
	return SetupIn(LogDir, debug)
}

// SetupIn is Setup with an explicit directory
func SetupIn(dir string, debug bool) (*zap.Logger, func() error, error) {
	if !debug {
		log.SetOutput(io.Discard)
		return zap.NewNop(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, LogFileName)
	if err := rotate(path); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	logger := zap.New(core, zap.AddCaller())

	// Third-party packages using the std logger land in the same file
	restore := zap.RedirectStdLog(logger)

	closeFn := func() error {
		restore()
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}

// rotate renames an oversized log to a timestamped sibling
func rotate(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= MaxLogSize {
		return nil
	}
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	rotated := fmt.Sprintf("%s-%s%s", base, time.Now().Format("20060102-150405"), ext)
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("logging: rotate %s: %w", path, err)
	}
	return nil
}
