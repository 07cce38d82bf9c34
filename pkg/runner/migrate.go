package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
	"github.com/yusufsyaifudin/migtest/pkg/history"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
)

// GenerateRevision runs the revision command but stops right after the directives are
// computed, nothing is written. hook may inspect or mutate directives; its HookResult is ignored.
// It returns nil revision when generation is stopped as intended.
func (r *Runner) GenerateRevision(ctx context.Context, opts command.RevisionOptions) (*command.RevisionResult, error) {
	opts.Hook = interceptDirectives(opts.Hook)

	result, err := r.cmd.Revision(ctx, opts)
	if err != nil {
		return nil, err
	}

	if result.Cancelled {
		return nil, nil
	}

	return &result, nil
}

// History parses the history of the migration tool, fresh on every call.
func (r *Runner) History(ctx context.Context) (history.History, error) {
	lines, err := r.cmd.History(ctx)
	if err != nil {
		return history.History{}, err
	}

	return history.Parse(lines)
}

func (r *Runner) Heads(ctx context.Context) ([]string, error) {
	return r.cmd.Heads(ctx)
}

// Current returns the applied revision, or "base" when nothing is applied.
func (r *Runner) Current(ctx context.Context) (string, error) {
	lines, err := r.cmd.Current(ctx)
	if err != nil {
		return "", err
	}

	for _, line := range lines {
		// line may carry annotation, e.g: "R1 (head)"
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields[0], nil
		}
	}

	return history.Base, nil
}

// RawCommand executes command as is.
func (r *Runner) RawCommand(ctx context.Context, cmd command.Command) (interface{}, error) {
	return command.Run(ctx, r.cmd, cmd)
}

// ManagedUpgrade upgrades one revision at a time from current to dest. Seed data of a
// revision is inserted before the upgrade that lands on it.
func (r *Runner) ManagedUpgrade(ctx context.Context, dest string) error {
	current, err := r.Current(ctx)
	if err != nil {
		return err
	}

	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	revisions, err := h.RevisionRange(current, dest)
	if err != nil {
		return err
	}

	for _, next := range revisions {
		data, ok := r.upgradeData[next]
		if ok && len(data) > 0 {
			if r.conn == nil {
				return fmt.Errorf("seed data for revision '%s': %w", next, ErrNotConnected)
			}

			if err = r.conn.TableInsert(ctx, next, data); err != nil {
				return err
			}
		}

		if err = r.cmd.Upgrade(ctx, command.Target(next)); err != nil {
			return err
		}
	}

	logger.Debug(ctx, "managed upgrade done",
		logger.KV("from", current), logger.KV("to", dest), logger.KV("steps", len(revisions)),
	)
	return nil
}

// MigrateUpBefore upgrades up to, but not including, revision.
func (r *Runner) MigrateUpBefore(ctx context.Context, revision string) error {
	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	prev, err := h.PreviousRevision(revision)
	if err != nil {
		return err
	}

	return r.ManagedUpgrade(ctx, prev)
}

// MigrateUpTo upgrades up to, and including, revision. "head" or "heads" means the single head.
func (r *Runner) MigrateUpTo(ctx context.Context, revision string) error {
	if command.Target(revision).IsHead() {
		head, err := r.head(ctx)
		if err != nil {
			return err
		}

		revision = head
	}

	return r.ManagedUpgrade(ctx, revision)
}

// MigrateUpOne upgrades exactly one revision.
func (r *Runner) MigrateUpOne(ctx context.Context) error {
	current, err := r.Current(ctx)
	if err != nil {
		return err
	}

	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	next, ok, err := h.NextRevision(current)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("migrate up from '%s': %w", current, ErrNoNextRevision)
	}

	return r.ManagedUpgrade(ctx, next)
}

// MigrateDownBefore downgrades to, but not including, revision: the revision right after
// it stays applied. It issues a single downgrade and never inserts data.
func (r *Runner) MigrateDownBefore(ctx context.Context, revision string) error {
	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	next, ok, err := h.NextRevision(revision)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("migrate down before '%s': %w", revision, ErrNoNextRevision)
	}

	return r.cmd.Downgrade(ctx, command.Target(next))
}

// MigrateDownTo downgrades to, and including, revision.
func (r *Runner) MigrateDownTo(ctx context.Context, revision string) error {
	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	if err = h.ValidateRevision(revision); err != nil {
		return err
	}

	return r.cmd.Downgrade(ctx, command.Target(revision))
}

// MigrateDownOne downgrades exactly one revision.
func (r *Runner) MigrateDownOne(ctx context.Context) error {
	return r.cmd.Downgrade(ctx, command.Relative(-1))
}

// RoundtripNextRevision upgrades, downgrades, then upgrades the next revision again,
// to make sure its downgrade is consistent with its upgrade.
func (r *Runner) RoundtripNextRevision(ctx context.Context) error {
	if err := r.MigrateUpOne(ctx); err != nil {
		return err
	}

	if err := r.MigrateDownOne(ctx); err != nil {
		return err
	}

	return r.MigrateUpOne(ctx)
}

// InsertInto inserts rows into table, tagged with the current revision.
func (r *Runner) InsertInto(ctx context.Context, table string, rows ...connexec.Row) error {
	if r.conn == nil {
		return ErrNotConnected
	}

	current, err := r.Current(ctx)
	if err != nil {
		return err
	}

	return r.conn.Insert(ctx, current, table, rows...)
}

func (r *Runner) head(ctx context.Context) (string, error) {
	heads, err := r.Heads(ctx)
	if err != nil {
		return "", err
	}

	switch len(heads) {
	case 0:
		return history.Base, nil
	case 1:
		return heads[0], nil
	default:
		return "", fmt.Errorf("expect single head, got %d: %s", len(heads), strings.Join(heads, ", "))
	}
}
