package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// cannedConn answers every query with the same result set.
type cannedConn struct {
	columns []string
	rows    [][]driver.Value
	err     error
	queries []string
}

func (c *cannedConn) Connect(context.Context) (driver.Conn, error) { return c, nil }
func (c *cannedConn) Driver() driver.Driver                        { return c }
func (c *cannedConn) Open(string) (driver.Conn, error)             { return c, nil }
func (c *cannedConn) Close() error                                 { return nil }

func (c *cannedConn) Prepare(string) (driver.Stmt, error) {
	return nil, stderrors.New("prepare not supported")
}

func (c *cannedConn) Begin() (driver.Tx, error) {
	return nil, stderrors.New("transactions not supported")
}

func (c *cannedConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	return &cannedRows{columns: c.columns, rows: c.rows}, nil
}

type cannedRows struct {
	columns []string
	rows    [][]driver.Value
}

func (r *cannedRows) Columns() []string { return r.columns }
func (r *cannedRows) Close() error      { return nil }

func (r *cannedRows) Next(dest []driver.Value) error {
	if len(r.rows) == 0 {
		return io.EOF
	}
	copy(dest, r.rows[0])
	r.rows = r.rows[1:]
	return nil
}

func TestRepositoryCategories(t *testing.T) {
	conn := &cannedConn{
		columns: []string{"category", "count"},
		rows: [][]driver.Value{
			{"Deporte", int64(3)},
			{"Literatura", int64(1)},
		},
	}
	db := sql.OpenDB(conn)
	defer db.Close()

	got, err := NewRepository(db, zap.NewNop()).Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	want := map[string]int{"Deporte": 3, "Literatura": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(conn.queries) != 1 || !strings.Contains(conn.queries[0], "GROUP BY category") {
		t.Fatalf("unexpected queries %v", conn.queries)
	}
}

func TestRepositoryCategoriesQueryError(t *testing.T) {
	db := sql.OpenDB(&cannedConn{err: stderrors.New("relation does not exist")})
	defer db.Close()

	if _, err := NewRepository(db, zap.NewNop()).Categories(context.Background()); err == nil {
		t.Fatal("expected query error")
	}
}
