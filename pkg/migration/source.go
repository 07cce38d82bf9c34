package migration

import (
	"context"
	"fmt"
	"strings"

	migrate "github.com/rubenv/sql-migrate"
)

// MemorySource converts scripts into sql-migrate in-memory source, nothing is read from disk.
func MemorySource(ctx context.Context, scripts ...Script) (*migrate.MemoryMigrationSource, error) {
	mig := make([]*migrate.Migration, 0, len(scripts))
	seen := make(map[string]struct{}, len(scripts))

	for _, s := range scripts {
		if s == nil {
			return nil, fmt.Errorf("nil migration script")
		}

		id := strings.TrimSpace(s.ID(ctx))
		if id == "" {
			return nil, fmt.Errorf("migration script with empty id")
		}

		if _, exist := seen[id]; exist {
			return nil, fmt.Errorf("duplicate migration id '%s'", id)
		}
		seen[id] = struct{}{}

		sqlUp, err := s.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("migration '%s' up: %w", id, err)
		}

		sqlDown, err := s.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("migration '%s' down: %w", id, err)
		}

		mig = append(mig, &migrate.Migration{
			Id:   id,
			Up:   nonEmpty(sqlUp),
			Down: nonEmpty(sqlDown),
		})
	}

	return &migrate.MemoryMigrationSource{
		Migrations: mig,
	}, nil
}

func nonEmpty(sql string) []string {
	if strings.TrimSpace(sql) == "" {
		return []string{}
	}

	return []string{sql}
}

// Render writes up and down statements in sql-migrate file format.
func Render(up, down []string) string {
	var b strings.Builder
	b.WriteString("-- +migrate Up\n")
	b.WriteString("-- SQL in section 'Up' is executed when this migration is applied\n")
	for _, stmt := range up {
		b.WriteString(terminate(stmt))
	}

	b.WriteString("\n-- +migrate Down\n")
	b.WriteString("-- SQL section 'Down' is executed when this migration is rolled back\n")
	for _, stmt := range down {
		b.WriteString(terminate(stmt))
	}

	return b.String()
}

func terminate(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return ""
	}

	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}

	return stmt + "\n"
}
