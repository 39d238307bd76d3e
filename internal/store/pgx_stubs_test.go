package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB satisfies infra.SQLExecutor with per-test function hooks.
type fakeDB struct {
	execFn     func(query string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(query string, args ...any) (pgx.Rows, error)
	queryRowFn func(query string, args ...any) pgx.Row
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if f.execFn == nil {
		return pgconn.CommandTag{}, nil
	}
	return f.execFn(query, args...)
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if f.queryFn == nil {
		return &valueRows{}, nil
	}
	return f.queryFn(query, args...)
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if f.queryRowFn == nil {
		return simpleRow{}
	}
	return f.queryRowFn(query, args...)
}

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (rowsBase) Conn() *pgx.Conn { return nil }

func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (rowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (rowsBase) RawValues() [][]byte { return nil }

// valueRows replays fixed rows through the pgx.Rows interface.
type valueRows struct {
	rowsBase
	rows [][]any
	idx  int
	err  error
}

func (r *valueRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *valueRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i, value := range row {
		if err := assign(dest[i], value); err != nil {
			return err
		}
	}
	return nil
}

func (r *valueRows) Close() {}

func (r *valueRows) Err() error { return r.err }

func assign(dest, value any) error {
	switch d := dest.(type) {
	case *string:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", value)
		}
		*d = v
	case *int64:
		v, ok := value.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", value)
		}
		*d = v
	case *time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", value)
		}
		*d = v
	case *[]byte:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("cannot scan %T into *[]byte", value)
		}
		*d = v
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}
