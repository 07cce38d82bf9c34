package multidb

type Driver string

func (d Driver) String() string {
	return string(d)
}

// Dialect returns sql-migrate dialect name of the driver.
func (d Driver) Dialect() string {
	switch d {
	case Sqlite:
		return "sqlite3"
	default:
		return string(d)
	}
}

const (
	Postgres Driver = "postgres"
	Sqlite   Driver = "sqlite"
)

type GoSqlDb struct {
	Debug bool   `yaml:"debug"`
	DSN   string `yaml:"dsn"` // Data Source Name
}

type DatabaseResource struct {
	Disable bool   `yaml:"disable"`
	Driver  Driver `yaml:"driver"` // postgres, sqlite

	// per driver configuration
	Postgres GoSqlDb `yaml:"postgres"`
	Sqlite   GoSqlDb `yaml:"sqlite"`
}

type DatabaseResources map[string]DatabaseResource
