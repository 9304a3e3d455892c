// Package logger provides logging interfaces and implementations for prompteval.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface used for all logging in prompteval.
// Args are alternating key/value pairs, compatible with slog, zap and logrus style loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a zap-backed logger.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string

	// Output is where log lines are written. Defaults to stderr.
	Output io.Writer
}

// NewDefaultLogger creates a logger writing to stderr.
// Debug logging is enabled if PROMPTEVAL_DEBUG=true
func NewDefaultLogger() Logger {
	level := "info"
	if strings.ToLower(os.Getenv("PROMPTEVAL_DEBUG")) == "true" {
		level = "debug"
	}
	return New(Options{Level: level})
}

// New creates a zap-backed logger with a console encoder.
// An unknown level falls back to info.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(level),
	)
	return FromZap(zap.New(core).Named("prompteval"))
}

// FromZap adapts an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	if z == nil {
		return Discard()
	}
	return &zapLogger{s: z.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }

func (l *zapLogger) Info(msg string, args ...any) { l.s.Infow(msg, args...) }

func (l *zapLogger) Warn(msg string, args ...any) { l.s.Warnw(msg, args...) }

func (l *zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }

// discardLogger is a logger that discards all log messages.
type discardLogger struct{}

// Discard returns a logger that discards all log messages.
// Useful for testing or when logging is not desired.
func Discard() Logger {
	return &discardLogger{}
}

// Debug discards the message.
func (l *discardLogger) Debug(msg string, args ...any) {}

// Info discards the message.
func (l *discardLogger) Info(msg string, args ...any) {}

// Warn discards the message.
func (l *discardLogger) Warn(msg string, args ...any) {}

// Error discards the message.
func (l *discardLogger) Error(msg string, args ...any) {}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}
