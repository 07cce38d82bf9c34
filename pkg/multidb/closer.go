package multidb

import (
	"context"
	"fmt"
	"io"

	"github.com/yusufsyaifudin/migtest/pkg/logger"
)

type Closer interface {
	io.Closer

	String() string
}

type namedCloser struct {
	name   string
	closer io.Closer
}

func (d *namedCloser) Close() error {
	err := d.closer.Close()
	if err != nil {
		return fmt.Errorf("(%s) %w", d.name, err)
	}

	logger.Debug(context.Background(), fmt.Sprintf("db sql: %s success to close", d.name))
	return nil
}

func (d *namedCloser) String() string {
	return d.name
}

var _ Closer = (*namedCloser)(nil)

func newNamedCloser(name string, closer io.Closer) *namedCloser {
	return &namedCloser{
		name:   name,
		closer: closer,
	}
}
