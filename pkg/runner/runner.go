// Package runner walks a migration history on behalf of a test: it turns intents such as
// "migrate up to revision X" or "roundtrip the next revision" into ordered upgrade and
// downgrade commands, and seeds rows into tables at chosen revisions.
//
// A Runner is not safe for concurrent use, it drives one stateful migration environment.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/validator"
	"go.uber.org/multierr"
)

var (
	ErrNotConnected   = errors.New("runner has no database connection")
	ErrNoNextRevision = errors.New("no next revision, already at head")
)

type Config struct {
	Command command.Executor `validate:"required"`

	// Connection is optional, without it the runner is dry-run: any data insert fails.
	Connection connexec.Executor

	// RevisionUpgradeData is inserted right before the upgrade landing on the revision key.
	RevisionUpgradeData map[string]connexec.SeedData
}

type Runner struct {
	cmd         command.Executor
	conn        connexec.Executor
	upgradeData map[string]connexec.SeedData
}

func New(conf Config) (*Runner, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("migration runner: %w", err)
		return nil, err
	}

	// copy, so later changes by caller don't leak in
	upgradeData := make(map[string]connexec.SeedData, len(conf.RevisionUpgradeData))
	for rev, data := range conf.RevisionUpgradeData {
		upgradeData[rev] = append(connexec.SeedData{}, data...)
	}

	return &Runner{
		cmd:         conf.Command,
		conn:        conf.Connection,
		upgradeData: upgradeData,
	}, nil
}

// Run creates a Runner, calls fn and always closes the Runner afterwards, even when fn panics.
func Run(ctx context.Context, conf Config, fn func(ctx context.Context, r *Runner) error) (err error) {
	r, err := New(conf)
	if err != nil {
		return err
	}

	defer func() {
		if _err := r.Close(); _err != nil {
			logger.Error(ctx, "closing migration runner failed", logger.KV("error", _err))
			err = multierr.Append(err, _err)
		}
	}()

	return fn(ctx, r)
}

// Connected reports whether the runner can insert data.
func (r *Runner) Connected() bool {
	return r.conn != nil
}

// Close releases the connection executor (when it is an io.Closer) and the command executor.
func (r *Runner) Close() error {
	var err error
	if closer, ok := r.conn.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}

	err = multierr.Append(err, r.cmd.Close())
	return err
}
