package redshift

import (
	"context"

	"github.com/ajitpratap0/tap-redshift/pkg/connector/core"
)

type fakeQuery struct {
	sql  string
	args []interface{}
}

type fakeResult struct {
	rows    [][]interface{}
	err     error
	rowsErr error
}

// fakeConn answers queries with queued results, in order.
type fakeConn struct {
	database string
	results  []fakeResult
	queries  []fakeQuery
	opened   []*fakeRows
}

func newFakeConn(database string, results ...fakeResult) *fakeConn {
	return &fakeConn{database: database, results: results}
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...interface{}) (core.Rows, error) {
	c.queries = append(c.queries, fakeQuery{sql: sql, args: args})
	if len(c.results) == 0 {
		r := &fakeRows{}
		c.opened = append(c.opened, r)
		return r, nil
	}
	res := c.results[0]
	c.results = c.results[1:]
	if res.err != nil {
		return nil, res.err
	}
	r := &fakeRows{rows: res.rows, err: res.rowsErr}
	c.opened = append(c.opened, r)
	return r, nil
}

func (c *fakeConn) DatabaseName() string { return c.database }

func (c *fakeConn) Close(context.Context) error { return nil }

func (c *fakeConn) allClosed() bool {
	for _, r := range c.opened {
		if !r.closed {
			return false
		}
	}
	return true
}

type fakeRows struct {
	rows   [][]interface{}
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]interface{}, error) {
	return r.rows[r.pos-1], nil
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Close() { r.closed = true }

// discoveryResults queues the three discovery queries.
func discoveryResults(tables, columns, primaryKeys [][]interface{}) []fakeResult {
	return []fakeResult{{rows: tables}, {rows: columns}, {rows: primaryKeys}}
}
