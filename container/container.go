package container

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/yusufsyaifudin/migtest/config"
	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
	"github.com/yusufsyaifudin/migtest/pkg/multidb"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
	"github.com/yusufsyaifudin/migtest/pkg/validator"
	"go.uber.org/multierr"
)

// Container is an abstraction layer to stitch the configured database and migration files
// into a migration runner.
type Container interface {
	RunnerConfig() (runner.Config, error)
}

// DefaultContainerImpl the real implementation of Container
type DefaultContainerImpl struct {
	ctx       context.Context `validate:"required"`
	cfg       *config.Config  `validate:"required,structonly"`
	dbSqlConn multidb.MultiDB `validate:"required"` // all database connection
}

// Ensure that DefaultContainerImpl implements Container
var _ Container = (*DefaultContainerImpl)(nil)

// Setup opens every configured database.
// This will return DefaultContainerImpl instead Container,
// the reason is when Setup called it must be close in deferred mode.
func Setup(ctx context.Context, conf *config.Config) (*DefaultContainerImpl, error) {
	if conf == nil {
		return nil, fmt.Errorf("container: nil config")
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{
		Ctx:    ctx,
		Config: conf.Database,
	})
	if err != nil {
		return nil, err
	}

	dep := &DefaultContainerImpl{
		ctx:       ctx,
		cfg:       conf,
		dbSqlConn: dbSqlConn,
	}

	err = validator.Validate(dep)
	if err != nil {
		err = multierr.Append(err, dbSqlConn.Close())
		return nil, err
	}

	return dep, nil
}

// RunnerConfig builds a fresh command executor over the migration directory and a connection
// executor over the same database. Each call returns executors with no generated revision.
func (a *DefaultContainerImpl) RunnerConfig() (runner.Config, error) {
	mig := a.cfg.Migration
	db, driver, err := a.dbSqlConn.Get(mig.DBLabel)
	if err != nil {
		return runner.Config{}, fmt.Errorf("migration database: %w", err)
	}

	cmd, err := command.NewSQLMigrate(command.SQLMigrateConfig{
		DB:      db.DB,
		Dialect: driver.Dialect(),
		Source:  &migrate.FileMigrationSource{Dir: mig.Dir},
		Table:   mig.Table,
		Dir:     mig.RevisionDir,
	})
	if err != nil {
		return runner.Config{}, err
	}

	conn, err := connexec.NewSQL(connexec.SQLConfig{Conn: db})
	if err != nil {
		return runner.Config{}, err
	}

	return runner.Config{
		Command:             command.WithLog(cmd),
		Connection:          conn,
		RevisionUpgradeData: a.cfg.RevisionUpgradeData,
	}, nil
}

// Close will close all dependencies.
func (a *DefaultContainerImpl) Close() error {
	var err error
	if _err := a.dbSqlConn.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close db error: %w", _err))
	}

	return err
}
