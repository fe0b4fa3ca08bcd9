// Package obslog is the structured-logging and progress-event sink shared
// across the module. It adapts the teacher's internal/dbg (a package-level
// debug-print gate) and internal/debug (pretty-printers for internal
// structures) into a real zap logger, since every ambient concern in this
// module follows the pack's convention of reaching for zap rather than
// log/slog or a bare fmt.Fprintf gate.
package obslog

import "go.uber.org/zap"

// Logger wraps a *zap.Logger with a nil-safe zero value, so a caller who
// never supplies one via an option gets silent no-op logging rather than a
// nil-pointer panic.
type Logger struct {
	z *zap.Logger
}

// Nop returns a Logger that discards everything.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// New wraps an existing *zap.Logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

func (l *Logger) zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

// Info logs at info level with structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.zap().Info(msg, fields...) }

// Warn logs at warn level with structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.zap().Warn(msg, fields...) }

// Error logs at error level with structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap().Error(msg, fields...) }

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap().Debug(msg, fields...) }

// With returns a Logger with fields attached to every subsequent entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.zap().With(fields...)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.zap().Sync() }
