package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const observedBufferSize = 64

// WithObservedEffectHandler registers a debug-level log handler that
// records every entry it writes. Entries are also echoed to stdout.
// Logging is asynchronous; poll the returned logs rather than reading them
// right after an effect.
func WithObservedEffectHandler(
	ctx context.Context,
) (context.Context, func() context.Context, *observer.ObservedLogs) {
	recording, logs := observer.New(zap.DebugLevel)
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	ctx, end := WithZapEffectHandler(ctx, observedBufferSize, zap.New(zapcore.NewTee(console, recording)))
	return ctx, end, logs
}

// WithTestEffectHandler is WithObservedEffectHandler for callers that
// never look at the entries.
func WithTestEffectHandler(ctx context.Context) (context.Context, func() context.Context) {
	ctx, end, _ := WithObservedEffectHandler(ctx)
	return ctx, end
}
