package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger that writes JSON to the given log file path
// and also writes to stderr. Session name and PID are included as initial fields.
func New(logPath, sessionName string) (*zap.Logger, error) {
	fileCore, err := fileCore(logPath)
	if err != nil {
		return nil, err
	}
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig())
	stderrCore := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)

	return zap.New(zapcore.NewTee(fileCore, stderrCore), initialFields(sessionName)), nil
}

// NewFileOnly creates a logger that writes JSON to logPath only.
// The TUI uses it because stderr belongs to the terminal screen.
func NewFileOnly(logPath, sessionName string) (*zap.Logger, error) {
	core, err := fileCore(logPath)
	if err != nil {
		return nil, err
	}
	return zap.New(core, initialFields(sessionName)), nil
}

func fileCore(logPath string) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig())
	return zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), zapcore.InfoLevel), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func initialFields(sessionName string) zap.Option {
	return zap.Fields(
		zap.String("session", sessionName),
		zap.Int("pid", os.Getpid()),
	)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
