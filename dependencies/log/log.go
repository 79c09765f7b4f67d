package log

import (
	"context"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/internal/model"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for misuse diagnostics, e.g. sends to stale scopes.
	LogWarn LogLevel = "warn"

	// LogError is used for failures nobody handled, e.g. an uncaught effect error.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is the payload structure for the log handler.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

func (lp LogPayload) PartitionKey() string {
	return "unpartitioned"
}

// WithZapEffectHandler registers a fire-and-forget log handler backed by logger.
// The teardown closes the handler and syncs the logger.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return dependencies.WithFireAndForgetHandler(
		ctx,
		bufferSize,
		model.HandlerLog,
		func(ctx context.Context, payload LogPayload) {
			write(logger, payload)
		},
		func() {
			// stdout/stderr sinks refuse fsync on most platforms
			_ = logger.Sync()
		},
	)
}

// Effect emits a structured log through the handler registered in ctx.
// Without a handler the message goes to zap's global logger.
func Effect(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	payload := LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	}
	if !dependencies.FireAndForget(ctx, model.HandlerLog, payload) {
		write(zap.L(), payload)
	}
}

func write(logger *zap.Logger, payload LogPayload) {
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogInfo:
		logger.Info(payload.Message, fields...)
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}
