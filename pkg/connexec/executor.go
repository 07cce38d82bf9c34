// Package connexec inserts rows into tables of a live database connection on behalf of the
// migration runner.
package connexec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/validator"
)

// Executor inserts data, tagged with the revision at which the insert happens.
type Executor interface {
	Insert(ctx context.Context, revision, table string, rows ...Row) error
	TableInsert(ctx context.Context, revision string, data SeedData) error
}

type SQLConfig struct {
	Conn sqlx.ExtContext `validate:"required"`
}

type SQL struct {
	conn sqlx.ExtContext
}

var _ Executor = (*SQL)(nil)

func NewSQL(conf SQLConfig) (*SQL, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("connection executor: %w", err)
		return nil, err
	}

	return &SQL{conn: conf.Conn}, nil
}

func (s *SQL) Insert(ctx context.Context, revision, table string, rows ...Row) error {
	ctx = logger.WithRevision(ctx, revision)

	if err := validator.Var(table, "required,sqlident"); err != nil {
		return fmt.Errorf("invalid table name '%s': %w", table, err)
	}

	for i, row := range rows {
		query, err := insertQuery(table, row)
		if err != nil {
			return fmt.Errorf("insert into %s at revision %s: row %d: %w", table, revision, i, err)
		}

		_, err = sqlx.NamedExecContext(ctx, s.conn, query, map[string]interface{}(row))
		if err != nil {
			return fmt.Errorf("insert into %s at revision %s: row %d: %w", table, revision, i, err)
		}
	}

	logger.Debug(ctx, "rows inserted", logger.KV("table", table), logger.KV("rows", len(rows)))
	return nil
}

func (s *SQL) TableInsert(ctx context.Context, revision string, data SeedData) error {
	for _, row := range data {
		if err := s.Insert(ctx, revision, row.Table, row.Values); err != nil {
			return err
		}
	}

	return nil
}

func insertQuery(table string, row Row) (string, error) {
	if len(row) == 0 {
		return "", fmt.Errorf("row has no column")
	}

	columns := make([]string, 0, len(row))
	for col := range row {
		if err := validator.Var(col, "required,sqlident"); err != nil {
			return "", fmt.Errorf("invalid column name '%s': %w", col, err)
		}

		columns = append(columns, col)
	}

	sort.Strings(columns)

	params := make([]string, 0, len(columns))
	for _, col := range columns {
		params = append(params, ":"+col)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(params, ", "),
	), nil
}
