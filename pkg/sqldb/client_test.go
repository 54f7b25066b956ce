package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal in-memory driver: every statement records its query and args on
// the shared connection and serves the next canned result set.

type fakeConnector struct {
	conn *fakeConn
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return nil }

type capturedStatement struct {
	query string
	args  []driver.Value
}

type fakeConn struct {
	statements []capturedStatement
	results    []*fakeRows
	committed  bool
	rolledBack bool
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{conn: c, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return &fakeTx{conn: c}, nil }

func (c *fakeConn) nextRows() *fakeRows {
	if len(c.results) == 0 {
		return &fakeRows{}
	}
	rows := c.results[0]
	c.results = c.results[1:]
	return rows
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.statements = append(s.conn.statements, capturedStatement{query: s.query, args: args})
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.conn.statements = append(s.conn.statements, capturedStatement{query: s.query, args: args})
	return s.conn.nextRows(), nil
}

type fakeTx struct {
	conn *fakeConn
}

func (t *fakeTx) Commit() error   { t.conn.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.conn.rolledBack = true; return nil }

type fakeRows struct {
	columns []string
	data    [][]driver.Value
	i       int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func newFakeClient(results ...*fakeRows) (*Client, *fakeConn) {
	conn := &fakeConn{results: results}
	logger, _ := test.NewNullLogger()
	return &Client{
		log: logger,
		db:  sql.OpenDB(&fakeConnector{conn: conn}),
	}, conn
}

func TestExecuteQueryCoercesBytesToString(t *testing.T) {
	client, _ := newFakeClient(&fakeRows{
		columns: []string{"id", "name"},
		data: [][]driver.Value{
			{int64(1), []byte("alice")},
			{int64(2), []byte("bob")},
		},
	})
	defer client.Close()

	rows, err := client.ExecuteQuery(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "alice"}, rows[0])
	assert.Equal(t, map[string]any{"id": int64(2), "name": "bob"}, rows[1])
}

func TestExecuteStoredProcedureBuildsExec(t *testing.T) {
	client, conn := newFakeClient(&fakeRows{})
	defer client.Close()

	_, err := client.ExecuteStoredProcedure(context.Background(), "dbo.Cleanup", "2026-08-30", 5)
	require.NoError(t, err)

	require.Len(t, conn.statements, 1)
	assert.Equal(t, "EXEC dbo.Cleanup @p1, @p2", conn.statements[0].query)
}

func TestBulkInsertOrdersColumnsAndArgs(t *testing.T) {
	client, conn := newFakeClient()
	defer client.Close()

	err := client.BulkInsert(context.Background(), "ProcessedData", []map[string]any{
		{"value": int64(100), "id": int64(1), "name": "Sample1"},
		{"name": "Sample2", "id": int64(2), "value": int64(200)},
	})
	require.NoError(t, err)

	require.Len(t, conn.statements, 2)
	for _, stmt := range conn.statements {
		assert.Equal(t, "INSERT INTO ProcessedData (id, name, value) VALUES (@p1, @p2, @p3)", stmt.query)
	}
	assert.Equal(t, []driver.Value{int64(1), "Sample1", int64(100)}, conn.statements[0].args)
	assert.Equal(t, []driver.Value{int64(2), "Sample2", int64(200)}, conn.statements[1].args)
	assert.True(t, conn.committed)
}

func TestBulkInsertEmptyRowsIsNoop(t *testing.T) {
	client, conn := newFakeClient()
	defer client.Close()

	require.NoError(t, client.BulkInsert(context.Background(), "ProcessedData", nil))
	assert.Empty(t, conn.statements)
}

func TestTableExists(t *testing.T) {
	countRows := func(count driver.Value) *fakeRows {
		return &fakeRows{columns: []string{"count"}, data: [][]driver.Value{{count}}}
	}

	client, _ := newFakeClient(countRows(int64(1)), countRows(int64(0)), countRows("not-a-number"))
	defer client.Close()

	exists, err := client.TableExists(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.TableExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	// Unexpected count type falls through to false.
	exists, err = client.TableExists(context.Background(), "odd")
	require.NoError(t, err)
	assert.False(t, exists)
}
