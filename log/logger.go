// Package log provides structured logging with conversion context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for the interpreter runtime (structured
//     fields, no allocation for formatting)
//   - SugaredLogger: Printf-style logging for CLI surfaces
//
// Every entry carries the request_id of the conversion it belongs to, so
// interleaved conversions in one process remain attributable.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pagesmith-io/pagesmith/types"
)

// Logger provides structured logging with conversion context.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger carrying the conversion's request context.
// Output defaults to os.Stderr so log lines never mix with streamed code on
// stdout.
func NewLogger(meta types.ConversionMeta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr, zapcore.InfoLevel)
}

// NewDebugLogger creates a logger that also emits per-line debug entries.
// Debug logging on a busy stream is voluminous; it is opt-in via the CLI.
func NewDebugLogger(meta types.ConversionMeta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr, zapcore.DebugLevel)
}

// Nop returns a logger that discards everything. Used by tests and by the
// TUI, which owns the terminal and cannot share it with log output.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithOutput returns a new logger writing to w at the same level.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := newCore(w, zapcore.DebugLevel)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func newCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
}

func newLoggerWithWriter(meta types.ConversionMeta, w io.Writer, level zapcore.Level) *Logger {
	contextFields := []zap.Field{
		zap.String("request_id", meta.RequestID),
		zap.Bool("heuristic", meta.Heuristic),
	}
	zapLogger := zap.New(newCore(w, level)).With(contextFields...)
	return &Logger{zap: zapLogger}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
