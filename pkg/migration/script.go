package migration

import "context"

// Script is one migration step defined in Go code.
type Script interface {
	// ID return unique identifier for each migration. Prefix it with number to keep the order.
	ID(ctx context.Context) string

	// Up return sql migration for upgrade database
	Up(ctx context.Context) (sql string, err error)

	// Down return sql migration for rollback database
	Down(ctx context.Context) (sql string, err error)
}

// Static is a Script with fixed SQL.
type Static struct {
	Revision string
	UpSQL    string
	DownSQL  string
}

func (s Static) ID(_ context.Context) string {
	return s.Revision
}

func (s Static) Up(_ context.Context) (string, error) {
	return s.UpSQL, nil
}

func (s Static) Down(_ context.Context) (string, error) {
	return s.DownSQL, nil
}

var _ Script = Static{}
