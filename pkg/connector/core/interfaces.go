// Package core defines the capabilities the tap's source needs from the
// outside world: a database connection that streams rows.
package core

import (
	"context"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
)

// Rows is a forward-only cursor over a query result. Close must be called
// on every path once the caller is done with it.
type Rows interface {
	Next() bool
	Values() ([]interface{}, error)
	Err() error
	Close()
}

// Conn is a single database connection. Only one Rows may be open at a time.
type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	DatabaseName() string
	Close(ctx context.Context) error
}

// Source discovers a catalog and syncs the selected streams of a catalog.
type Source interface {
	Discover(ctx context.Context) (*catalog.Catalog, error)
	Sync(ctx context.Context, requested *catalog.Catalog, st *state.State) error
}
