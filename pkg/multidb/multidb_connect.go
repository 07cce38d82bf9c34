package multidb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	sqldblogger "github.com/simukti/sqldb-logger"
	"go.uber.org/multierr"
)

type SqlDbConnMakerConfig struct {
	Ctx    context.Context   `validate:"required"`
	Config DatabaseResources `validate:"required"`
}

type SqlDbConnMaker struct {
	conf     DatabaseResources
	disabled map[string]struct{} // list of disabled databases, using struct for minimal memory footprint
	dbSQL    map[string]*sqlx.DB // db key name => real connection
	dbDriver map[string]Driver   // db key name => driver name
	closer   []Closer
}

var _ MultiDB = (*SqlDbConnMaker)(nil)

func NewSqlDbConnMaker(conf SqlDbConnMakerConfig) (*SqlDbConnMaker, error) {
	err := validator.New().Struct(conf)
	if err != nil {
		err = fmt.Errorf("sql db connection maker failed: %w", err)
		return nil, err
	}

	instance := &SqlDbConnMaker{
		conf:     conf.Config,
		disabled: make(map[string]struct{}),
		dbSQL:    make(map[string]*sqlx.DB),
		dbDriver: make(map[string]Driver),
		closer:   make([]Closer, 0),
	}

	err = instance.connect(conf.Ctx)
	if err != nil {
		// close previous opened connection if error happen
		if _err := instance.Close(); _err != nil {
			err = fmt.Errorf("close db sql error: %w: %s", err, _err)
		}

		return nil, err
	}

	return instance, nil
}

func (i *SqlDbConnMaker) GetSqlx(driver Driver, key string) (*sqlx.DB, error) {
	dbConnection, registeredDriver, err := i.Get(key)
	if err != nil {
		return nil, err
	}

	if driver != registeredDriver {
		return nil, fmt.Errorf("db key '%s' not using driver %s", key, driver)
	}

	return dbConnection, nil
}

func (i *SqlDbConnMaker) Get(key string) (*sqlx.DB, Driver, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if _, exists := i.disabled[key]; exists {
		return nil, "", fmt.Errorf("db with key '%s' is disabled", key)
	}

	dbConnection, ok := i.dbSQL[key]
	if !ok {
		return nil, "", fmt.Errorf("key '%s' is not exist on db list", key)
	}

	return dbConnection, i.dbDriver[key], nil
}

func (i *SqlDbConnMaker) Close() error {
	var err error
	for _, c := range i.closer {
		if c == nil {
			continue
		}

		err = multierr.Append(err, c.Close())
	}

	i.closer = nil
	return err
}

func (i *SqlDbConnMaker) connect(ctx context.Context) error {
	// Preparing database connection SQL
	for dbLabel, dbConfig := range i.conf {
		dbLabel = strings.TrimSpace(strings.ToLower(dbLabel))
		if err := validator.New().Var(dbLabel, "required,alphanum"); err != nil {
			err = fmt.Errorf("error connecting to database dbLabel '%s': %w", dbLabel, err)
			return err
		}

		if dbConfig.Disable {
			i.disabled[dbLabel] = struct{}{}
			continue
		}

		var goSqlDb GoSqlDb
		switch dbConfig.Driver {
		case Postgres:
			goSqlDb = dbConfig.Postgres
		case Sqlite:
			goSqlDb = dbConfig.Sqlite
		default:
			return fmt.Errorf("not supported driver '%s' on db '%s'", dbConfig.Driver, dbLabel)
		}

		db, err := sql.Open(dbConfig.Driver.String(), goSqlDb.DSN)
		if err != nil {
			err = fmt.Errorf("cannot open db connection '%s': %w", dbLabel, err)
			return err
		}

		if goSqlDb.Debug {
			logged := sqldblogger.OpenDriver(goSqlDb.DSN, db.Driver(), &QueryLogger{},
				sqldblogger.WithConnectionIDFieldname(dbLabel),
			)

			_ = db.Close()
			db = logged
		}

		// sqlx use driver name to choose bind type, modernc register itself as "sqlite"
		sqlxConn := sqlx.NewDb(db, dbConfig.Driver.Dialect())

		// don't forget to register in closer, using unique name to track in the Log
		i.dbSQL[dbLabel] = sqlxConn
		i.dbDriver[dbLabel] = dbConfig.Driver
		i.closer = append(i.closer, newNamedCloser(dbLabel, sqlxConn))

		if err = sqlxConn.PingContext(ctx); err != nil {
			err = fmt.Errorf("error connecting to database %s: %w", dbLabel, err)
			return err
		}
	}

	return nil
}
