package command

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/yusufsyaifudin/migtest/pkg/migration"
	"github.com/yusufsyaifudin/migtest/pkg/validator"
)

const defaultMigrationTable = "gorp_migrations"

type SQLMigrateConfig struct {
	DB      *sql.DB                 `validate:"required"`
	Dialect string                  `validate:"required,oneof=sqlite3 postgres mysql"`
	Source  migrate.MigrationSource `validate:"required"`

	// Table records applied migrations, default to gorp_migrations.
	Table string

	// Dir receives revision files. When empty, generated revisions only live in memory.
	Dir string

	Now func() time.Time
}

// SQLMigrate is Executor using sql-migrate. The revision graph is the linear order of Source.
type SQLMigrate struct {
	conf SQLMigrateConfig
	set  migrate.MigrationSet

	mu        sync.Mutex
	generated []*migrate.Migration
	closed    bool
}

var _ Executor = (*SQLMigrate)(nil)

func NewSQLMigrate(conf SQLMigrateConfig) (*SQLMigrate, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("sql-migrate command executor: %w", err)
		return nil, err
	}

	if conf.Table == "" {
		conf.Table = defaultMigrationTable
	}

	if conf.Now == nil {
		conf.Now = time.Now
	}

	return &SQLMigrate{
		conf: conf,
		set: migrate.MigrationSet{
			TableName: conf.Table,
		},
		generated: make([]*migrate.Migration, 0),
	}, nil
}

// FindMigrations returns configured migrations plus revisions generated by this executor,
// so SQLMigrate can itself be used as migrate.MigrationSource.
func (s *SQLMigrate) FindMigrations() ([]*migrate.Migration, error) {
	migs, err := s.conf.Source.FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("find migrations: %w", err)
	}

	s.mu.Lock()
	generated := s.generated
	s.mu.Unlock()

	if len(generated) == 0 {
		return migs, nil
	}

	all := make([]*migrate.Migration, 0, len(migs)+len(generated))
	all = append(all, migs...)
	all = append(all, generated...)
	return (&migrate.MemoryMigrationSource{Migrations: all}).FindMigrations()
}

func (s *SQLMigrate) Upgrade(ctx context.Context, target Target) error {
	migs, applied, err := s.state(ctx)
	if err != nil {
		return err
	}

	var n int
	switch steps, relative := target.Steps(); {
	case relative:
		if steps < 0 {
			return fmt.Errorf("%w: cannot upgrade with negative step %s", ErrUnknownTarget, target)
		}

		n = steps

	case target.IsHead():
		n = len(migs) - countApplied(migs, applied, 0)

	case target == TargetBase:
		return nil

	default:
		idx := indexOf(migs, target.String())
		if idx < 0 {
			return fmt.Errorf("%w: upgrade to '%s'", ErrUnknownTarget, target)
		}

		n = (idx + 1) - countApplied(migs[:idx+1], applied, 0)
	}

	return s.exec(migrate.Up, n)
}

func (s *SQLMigrate) Downgrade(ctx context.Context, target Target) error {
	migs, applied, err := s.state(ctx)
	if err != nil {
		return err
	}

	var n int
	switch steps, relative := target.Steps(); {
	case relative:
		if steps > 0 {
			return fmt.Errorf("%w: cannot downgrade with positive step %s", ErrUnknownTarget, target)
		}

		n = -steps

	case target.IsHead():
		return nil

	case target == TargetBase:
		n = countApplied(migs, applied, 0)

	default:
		idx := indexOf(migs, target.String())
		if idx < 0 {
			return fmt.Errorf("%w: downgrade to '%s'", ErrUnknownTarget, target)
		}

		n = countApplied(migs, applied, idx+1)
	}

	return s.exec(migrate.Down, n)
}

func (s *SQLMigrate) History(ctx context.Context) ([]string, error) {
	migs, err := s.migrations(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(migs))
	for i := len(migs) - 1; i >= 0; i-- {
		parent := string(TargetBase)
		if i > 0 {
			parent = migs[i-1].Id
		}

		lines = append(lines, fmt.Sprintf("%s -> %s", migs[i].Id, parent))
	}

	return lines, nil
}

func (s *SQLMigrate) Heads(ctx context.Context) ([]string, error) {
	migs, err := s.migrations(ctx)
	if err != nil {
		return nil, err
	}

	if len(migs) == 0 {
		return []string{}, nil
	}

	return []string{migs[len(migs)-1].Id}, nil
}

func (s *SQLMigrate) Current(ctx context.Context) ([]string, error) {
	migs, applied, err := s.state(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(migs) - 1; i >= 0; i-- {
		if _, ok := applied[migs[i].Id]; !ok {
			continue
		}

		if i == len(migs)-1 {
			return []string{migs[i].Id + " (head)"}, nil
		}

		return []string{migs[i].Id}, nil
	}

	return []string{}, nil
}

func (s *SQLMigrate) Revision(ctx context.Context, opts RevisionOptions) (RevisionResult, error) {
	migs, err := s.migrations(ctx)
	if err != nil {
		return RevisionResult{}, err
	}

	directives := Directives{
		RevisionID: opts.RevisionID,
		Parent:     string(TargetBase),
		Message:    opts.Message,
		Up:         append([]string{}, opts.Up...),
		Down:       append([]string{}, opts.Down...),
	}

	if directives.RevisionID == "" {
		directives.RevisionID = fmt.Sprintf("%d_%s", s.conf.Now().Unix(), slug(opts.Message))
	}

	heads := []string{}
	if len(migs) > 0 {
		directives.Parent = migs[len(migs)-1].Id
		heads = append(heads, directives.Parent)
	}

	if opts.Hook != nil {
		result, err := opts.Hook(ctx, RevisionContext{Heads: heads, Dir: s.conf.Dir}, &directives)
		if err != nil {
			return RevisionResult{}, err
		}

		if result == Cancel {
			return RevisionResult{Cancelled: true, Directives: directives}, nil
		}
	}

	mig := &migrate.Migration{
		Id:   directives.RevisionID,
		Up:   directives.Up,
		Down: directives.Down,
	}

	if indexOf(migs, mig.Id) >= 0 {
		return RevisionResult{}, fmt.Errorf("revision '%s' already exist", mig.Id)
	}

	if len(migs) > 0 && !migs[len(migs)-1].Less(mig) {
		return RevisionResult{}, fmt.Errorf("%w: '%s' after '%s'", ErrRevisionOrder, mig.Id, directives.Parent)
	}

	out := RevisionResult{Directives: directives}
	if s.conf.Dir != "" {
		if err = os.MkdirAll(s.conf.Dir, 0o755); err != nil {
			return RevisionResult{}, fmt.Errorf("create revision dir: %w", err)
		}

		out.Path = filepath.Join(s.conf.Dir, mig.Id+".sql")
		err = os.WriteFile(out.Path, []byte(migration.Render(mig.Up, mig.Down)), 0o644)
		if err != nil {
			return RevisionResult{}, fmt.Errorf("write revision '%s': %w", mig.Id, err)
		}
	}

	s.mu.Lock()
	s.generated = append(s.generated, mig)
	s.mu.Unlock()

	return out, nil
}

func (s *SQLMigrate) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.generated = nil
	return nil
}

func (s *SQLMigrate) migrations(ctx context.Context) ([]*migrate.Migration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	return s.FindMigrations()
}

func (s *SQLMigrate) state(ctx context.Context) ([]*migrate.Migration, map[string]struct{}, error) {
	migs, err := s.migrations(ctx)
	if err != nil {
		return nil, nil, err
	}

	records, err := s.set.GetMigrationRecords(s.conf.DB, s.conf.Dialect)
	if err != nil {
		return nil, nil, fmt.Errorf("get migration records: %w", err)
	}

	applied := make(map[string]struct{}, len(records))
	for _, record := range records {
		applied[record.Id] = struct{}{}
	}

	return migs, applied, nil
}

func (s *SQLMigrate) exec(dir migrate.MigrationDirection, n int) error {
	// sql-migrate treats zero as no limit
	if n <= 0 {
		return nil
	}

	_, err := s.set.ExecMax(s.conf.DB, s.conf.Dialect, s, dir, n)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", directionName(dir), err)
	}

	return nil
}

func directionName(dir migrate.MigrationDirection) string {
	if dir == migrate.Down {
		return "down"
	}

	return "up"
}

func indexOf(migs []*migrate.Migration, id string) int {
	for i, m := range migs {
		if m.Id == id {
			return i
		}
	}

	return -1
}

// countApplied counts applied migrations starting at position from.
func countApplied(migs []*migrate.Migration, applied map[string]struct{}, from int) int {
	n := 0
	for _, m := range migs[from:] {
		if _, ok := applied[m.Id]; ok {
			n++
		}
	}

	return n
}

func slug(message string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(message)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}

		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "revision"
	}

	return out
}
