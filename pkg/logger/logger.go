package logger

import (
	"context"
	"sync"
)

type Logger interface {
	Debug(ctx context.Context, msg string, fields ...KeyValue)
	Info(ctx context.Context, msg string, fields ...KeyValue)
	Warn(ctx context.Context, msg string, fields ...KeyValue)
	Error(ctx context.Context, msg string, fields ...KeyValue)
}

type KeyValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func KV(k string, v interface{}) KeyValue {
	return KeyValue{
		Key:   k,
		Value: v,
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = Noop{}
)

// SetGlobalLogger replace the logger used by package level function. Nil value is ignored.
func SetGlobalLogger(l Logger) {
	if l == nil {
		return
	}

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func getLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func Debug(ctx context.Context, msg string, fields ...KeyValue) {
	getLogger().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...KeyValue) {
	getLogger().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...KeyValue) {
	getLogger().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...KeyValue) {
	getLogger().Error(ctx, msg, fields...)
}

// Noop discards everything, used until SetGlobalLogger is called.
type Noop struct{}

func (Noop) Debug(context.Context, string, ...KeyValue) {}
func (Noop) Info(context.Context, string, ...KeyValue)  {}
func (Noop) Warn(context.Context, string, ...KeyValue)  {}
func (Noop) Error(context.Context, string, ...KeyValue) {}

var _ Logger = Noop{}
