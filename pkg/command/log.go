package command

import (
	"context"
	"time"

	"github.com/yusufsyaifudin/migtest/pkg/logger"
)

type logged struct {
	next Executor
}

// WithLog wraps executor so each command is written to the global logger.
func WithLog(next Executor) Executor {
	if next == nil {
		return nil
	}

	return &logged{next: next}
}

func (l *logged) Upgrade(ctx context.Context, target Target) error {
	start := time.Now()
	err := l.next.Upgrade(ctx, target)
	l.log(ctx, Upgrade{}.Name(), start, err, logger.KV("target", target.String()))
	return err
}

func (l *logged) Downgrade(ctx context.Context, target Target) error {
	start := time.Now()
	err := l.next.Downgrade(ctx, target)
	l.log(ctx, Downgrade{}.Name(), start, err, logger.KV("target", target.String()))
	return err
}

func (l *logged) History(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := l.next.History(ctx)
	l.log(ctx, History{}.Name(), start, err, logger.KV("lines", len(out)))
	return out, err
}

func (l *logged) Heads(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := l.next.Heads(ctx)
	l.log(ctx, Heads{}.Name(), start, err, logger.KV("heads", out))
	return out, err
}

func (l *logged) Current(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := l.next.Current(ctx)
	l.log(ctx, Current{}.Name(), start, err, logger.KV("current", out))
	return out, err
}

func (l *logged) Revision(ctx context.Context, opts RevisionOptions) (RevisionResult, error) {
	start := time.Now()
	out, err := l.next.Revision(ctx, opts)
	l.log(ctx, Revision{}.Name(), start, err,
		logger.KV("revision", out.Directives.RevisionID),
		logger.KV("cancelled", out.Cancelled),
		logger.KV("path", out.Path),
	)
	return out, err
}

func (l *logged) Close() error {
	return l.next.Close()
}

func (l *logged) log(ctx context.Context, name string, start time.Time, err error, fields ...logger.KeyValue) {
	fields = append(fields,
		logger.KV("command", name),
		logger.KV("elapsed_time", time.Since(start).Milliseconds()),
	)

	if err != nil {
		logger.Error(ctx, "migration command failed", append(fields, logger.KV("error", err))...)
		return
	}

	logger.Debug(ctx, "migration command", fields...)
}

var _ Executor = (*logged)(nil)
