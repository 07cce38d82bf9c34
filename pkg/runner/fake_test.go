package runner_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
)

// fakeExecutor is a linear migration environment recording every command into calls.
type fakeExecutor struct {
	revisions []string
	applied   int
	calls     *[]string

	currentLines []string // when set, returned as is by Current
	upgradeErr   error
	revisionErr  error
	closeErr     error
	closed       bool
}

func newFake(calls *[]string, revisions ...string) *fakeExecutor {
	return &fakeExecutor{revisions: revisions, calls: calls}
}

func (f *fakeExecutor) record(format string, args ...interface{}) {
	*f.calls = append(*f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeExecutor) index(target command.Target) (int, error) {
	for i, rev := range f.revisions {
		if rev == target.String() {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %s", command.ErrUnknownTarget, target)
}

func (f *fakeExecutor) Upgrade(_ context.Context, target command.Target) error {
	f.record("upgrade %s", target)
	if f.upgradeErr != nil {
		return f.upgradeErr
	}

	if steps, ok := target.Steps(); ok {
		f.applied += steps
		return nil
	}

	idx, err := f.index(target)
	if err != nil {
		return err
	}

	f.applied = idx + 1
	return nil
}

func (f *fakeExecutor) Downgrade(_ context.Context, target command.Target) error {
	f.record("downgrade %s", target)

	if steps, ok := target.Steps(); ok {
		f.applied += steps
		return nil
	}

	if target == command.TargetBase {
		f.applied = 0
		return nil
	}

	idx, err := f.index(target)
	if err != nil {
		return err
	}

	f.applied = idx + 1
	return nil
}

func (f *fakeExecutor) History(context.Context) ([]string, error) {
	lines := make([]string, 0, len(f.revisions))
	for i := len(f.revisions) - 1; i >= 0; i-- {
		parent := "base"
		if i > 0 {
			parent = f.revisions[i-1]
		}

		lines = append(lines, f.revisions[i]+" -> "+parent)
	}

	return lines, nil
}

func (f *fakeExecutor) Heads(context.Context) ([]string, error) {
	if len(f.revisions) == 0 {
		return []string{}, nil
	}

	return []string{f.revisions[len(f.revisions)-1]}, nil
}

func (f *fakeExecutor) Current(context.Context) ([]string, error) {
	if f.currentLines != nil {
		return f.currentLines, nil
	}

	if f.applied == 0 {
		return []string{}, nil
	}

	line := f.revisions[f.applied-1]
	if f.applied == len(f.revisions) {
		line += " (head)"
	}

	return []string{line + "\n"}, nil
}

func (f *fakeExecutor) Revision(ctx context.Context, opts command.RevisionOptions) (command.RevisionResult, error) {
	f.record("revision %s", opts.Message)
	if f.revisionErr != nil {
		return command.RevisionResult{}, f.revisionErr
	}

	directives := command.Directives{RevisionID: "99_" + opts.Message, Message: opts.Message}
	if opts.Hook != nil {
		result, err := opts.Hook(ctx, command.RevisionContext{}, &directives)
		if err != nil {
			return command.RevisionResult{}, err
		}

		if result == command.Cancel {
			return command.RevisionResult{Cancelled: true, Directives: directives}, nil
		}
	}

	f.record("write %s", directives.RevisionID)
	return command.RevisionResult{Directives: directives, Path: directives.RevisionID + ".sql"}, nil
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return f.closeErr
}

// fakeConnection records inserts into the same call log as fakeExecutor.
type fakeConnection struct {
	calls    *[]string
	closed   bool
	closeErr error
}

func (c *fakeConnection) Insert(_ context.Context, revision, table string, rows ...connexec.Row) error {
	*c.calls = append(*c.calls, fmt.Sprintf("insert %s %s %d", revision, table, len(rows)))
	return nil
}

func (c *fakeConnection) TableInsert(ctx context.Context, revision string, data connexec.SeedData) error {
	tables := make([]string, 0, len(data))
	for _, row := range data {
		tables = append(tables, row.Table)
	}

	*c.calls = append(*c.calls, fmt.Sprintf("seed %s %s", revision, strings.Join(tables, ",")))
	return nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return c.closeErr
}
