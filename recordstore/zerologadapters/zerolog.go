// Package zerologadapters bridges the record store logging ports to zerolog.
// The adapters translate the slog-style alternating key/value argument lists
// used by the ports into zerolog fields.
package zerologadapters

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to the Logger port.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a Logger adapter around the given zerolog.Logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Debug(msg string, args ...any) {
	applyFields(l.logger.Debug(), args).Msg(msg)
}

func (l *Logger) Info(msg string, args ...any) {
	applyFields(l.logger.Info(), args).Msg(msg)
}

func (l *Logger) Warn(msg string, args ...any) {
	applyFields(l.logger.Warn(), args).Msg(msg)
}

func (l *Logger) Error(msg string, args ...any) {
	applyFields(l.logger.Error(), args).Msg(msg)
}

// ContextualLogger adapts a zerolog.Logger to the ContextualLogger port.
// Log events are built from the logger attached to the context when one is
// present, so request-scoped fields propagate automatically.
type ContextualLogger struct {
	logger zerolog.Logger
}

// NewContextualLogger creates a ContextualLogger adapter around the given zerolog.Logger.
func NewContextualLogger(logger zerolog.Logger) *ContextualLogger {
	return &ContextualLogger{logger: logger}
}

func (l *ContextualLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	logger := l.fromContext(ctx)
	applyFields(logger.Debug(), args).Msg(msg)
}

func (l *ContextualLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	logger := l.fromContext(ctx)
	applyFields(logger.Info(), args).Msg(msg)
}

func (l *ContextualLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	logger := l.fromContext(ctx)
	applyFields(logger.Warn(), args).Msg(msg)
}

func (l *ContextualLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	logger := l.fromContext(ctx)
	applyFields(logger.Error(), args).Msg(msg)
}

func (l *ContextualLogger) fromContext(ctx context.Context) zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		return *ctxLogger
	}

	return l.logger
}

// applyFields interprets args as alternating key/value pairs. A trailing key
// without a value is logged under the "arg" field so it is not silently lost.
func applyFields(event *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}

		event = event.Interface(key, args[i+1])
	}

	if len(args)%2 != 0 {
		event = event.Interface("arg", args[len(args)-1])
	}

	return event
}

// ParseLevel maps a configured level name to a zerolog level, defaulting to
// info for unknown names.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return parsed
}
