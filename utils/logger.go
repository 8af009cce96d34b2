package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled, printf-style logging throughout the application.
// It is backed by a zap SugaredLogger so child loggers can carry fields such
// as the run ID.
type Logger struct {
	s *zap.SugaredLogger
}

// LoggerOptions controls where and how verbosely the Logger writes.
type LoggerOptions struct {
	Level string // debug, info, warn, error
	File  string // empty means stderr
}

// NewLogger creates an info-level Logger writing to stderr.
func NewLogger() *Logger {
	return NewLoggerWithOptions(LoggerOptions{Level: "info"})
}

// NewLoggerWithOptions creates a Logger from the given options. If zap fails
// to open the output, a no-op logger is returned so callers never get nil.
func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))

	out := "stderr"
	if opts.File != "" {
		out = opts.File
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build()
	if err != nil {
		return NewNopLogger()
	}
	return &Logger{s: z.Sugar()}
}

// NewNopLogger returns a Logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// With returns a child logger that attaches the given key/value pairs to
// every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{s: l.s.With(keysAndValues...)}
}

func (l *Logger) Info(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.s.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.s.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.s.Debugf(format, args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.s.Sync()
}
