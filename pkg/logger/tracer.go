package logger

import "context"

type tracerKey struct{}

// Tracer is the data carried in context and written on every log line.
type Tracer struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	AppTraceID string `json:"app_trace_id,omitempty"`
	Revision   string `json:"revision,omitempty"`
}

func Inject(ctx context.Context, tracer Tracer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, tracerKey{}, tracer)
}

func Extract(ctx context.Context) (Tracer, bool) {
	if ctx == nil {
		return Tracer{}, false
	}

	tracer, ok := ctx.Value(tracerKey{}).(Tracer)
	return tracer, ok
}

// WithRevision returns a context whose Tracer is tagged with the revision being migrated.
func WithRevision(ctx context.Context, revision string) context.Context {
	tracer, _ := Extract(ctx)
	tracer.Revision = revision
	return Inject(ctx, tracer)
}
