package logger_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	uniLogger := logger.NewZap(zap.New(core))

	ctx := logger.Inject(context.Background(), logger.Tracer{AppTraceID: "test"})
	ctx = logger.WithRevision(ctx, "1_init")

	uniLogger.Info(ctx, "upgrade", logger.KV("target", "1_init"), logger.KV("error", errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "upgrade", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, logger.TypeSys, fields["tag"])
	assert.Equal(t, "1_init", fields["target"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, logger.Tracer{AppTraceID: "test", Revision: "1_init"}, fields["tracer"])
}

func TestGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetGlobalLogger(logger.NewZap(zap.New(core)))
	defer logger.SetGlobalLogger(logger.Noop{})

	logger.SetGlobalLogger(nil) // ignored
	logger.Debug(context.Background(), "debug")
	logger.Warn(context.Background(), "warn")

	assert.Equal(t, 2, logs.Len())
}

func TestExtract(t *testing.T) {
	_, ok := logger.Extract(context.Background())
	assert.False(t, ok)

	tracer, ok := logger.Extract(logger.Inject(context.Background(), logger.Tracer{RemoteAddr: "system"}))
	assert.True(t, ok)
	assert.Equal(t, "system", tracer.RemoteAddr)
}

func BenchmarkNewZap(b *testing.B) {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(io.Discard)), // pipe to multiple writer
		zapcore.DebugLevel,
	)
	zapLogger := zap.New(core)
	uniLogger := logger.NewZap(zapLogger)

	ctx := logger.Inject(context.Background(), logger.Tracer{AppTraceID: "test"})
	for i := 0; i < b.N; i++ {
		uniLogger.Error(ctx, "message")
	}
}
