package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// PersonDBStorage implements the PersonStore interface on PostgreSQL. The
// conn may be a pool or an open transaction; merges always open their own
// transaction on top of it.
type PersonDBStorage struct {
	conn pgxIConn
}

// NewPersonDBStorage creates a PersonDBStorage over an existing connection
// or pool.
func NewPersonDBStorage(conn pgxIConn) *PersonDBStorage {
	return &PersonDBStorage{conn: conn}
}
