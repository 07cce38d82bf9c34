// Package checks holds ready made assertions over a migration history: a single head, a
// clean upgrade, and downgrades consistent with upgrades.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yusufsyaifudin/migtest/pkg/history"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
)

var ErrMultipleHeads = errors.New("multiple head revisions")

// Check asserts one property of the migration history using the runner.
type Check struct {
	Name string
	Run  func(ctx context.Context, r *runner.Runner) error
}

type Result struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
	err   error
}

func (r Result) Err() error {
	return r.err
}

// Default returns every built-in check.
func Default() []Check {
	return []Check{
		{Name: "single_head_revision", Run: SingleHeadRevision},
		{Name: "upgrade", Run: Upgrade},
		{Name: "up_down_consistency", Run: UpDownConsistency},
		{Name: "roundtrip", Run: Roundtrip},
	}
}

// SingleHeadRevision fails when the history has more than one head, which usually means
// two branches were created from the same revision and never merged.
func SingleHeadRevision(ctx context.Context, r *runner.Runner) error {
	heads, err := r.Heads(ctx)
	if err != nil {
		return err
	}

	if len(heads) > 1 {
		return fmt.Errorf("%w: %s", ErrMultipleHeads, strings.Join(heads, ", "))
	}

	return nil
}

// Upgrade migrates from base to the head.
func Upgrade(ctx context.Context, r *runner.Runner) error {
	return r.MigrateUpTo(ctx, "heads")
}

// UpDownConsistency upgrades to the head, then downgrades one revision at a time to base.
func UpDownConsistency(ctx context.Context, r *runner.Runner) error {
	if err := r.MigrateUpTo(ctx, "heads"); err != nil {
		return err
	}

	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	revisions := h.Revisions()
	for i := len(revisions) - 1; i >= 0; i-- {
		if err = r.MigrateDownOne(ctx); err != nil {
			return fmt.Errorf("downgrade %s: %w", revisions[i], err)
		}
	}

	current, err := r.Current(ctx)
	if err != nil {
		return err
	}

	if current != history.Base {
		return fmt.Errorf("expect base after downgrading every revision, got '%s'", current)
	}

	return nil
}

// Roundtrip upgrades, downgrades and upgrades again every revision from base to head.
func Roundtrip(ctx context.Context, r *runner.Runner) error {
	h, err := r.History(ctx)
	if err != nil {
		return err
	}

	for _, rev := range h.Revisions() {
		if err = r.RoundtripNextRevision(ctx); err != nil {
			return fmt.Errorf("roundtrip %s: %w", rev, err)
		}
	}

	return nil
}

// RunAll runs each check starting from base. It keeps going after a failed check.
func RunAll(ctx context.Context, r *runner.Runner, checks ...Check) []Result {
	if len(checks) == 0 {
		checks = Default()
	}

	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		err := r.MigrateDownTo(ctx, history.Base)
		if err == nil {
			err = check.Run(ctx, r)
		}

		result := Result{Name: check.Name, err: err}
		if err != nil {
			result.Error = err.Error()
			logger.Error(ctx, "migration check failed", logger.KV("check", check.Name), logger.KV("error", err))
		} else {
			logger.Info(ctx, "migration check passed", logger.KV("check", check.Name))
		}

		results = append(results, result)
	}

	return results
}

// Failed returns the failed results only.
func Failed(results []Result) []Result {
	out := make([]Result, 0)
	for _, result := range results {
		if result.err != nil {
			out = append(out, result)
		}
	}

	return out
}
