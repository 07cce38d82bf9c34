package multidb

import (
	"io"

	"github.com/jmoiron/sqlx"
)

type MultiDB interface {
	GetSqlx(driver Driver, key string) (*sqlx.DB, error)
	// Get returns connection with its driver, for caller which accept any driver.
	Get(key string) (*sqlx.DB, Driver, error)
	io.Closer
}
