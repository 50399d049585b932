package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls. The
// Postgres implementation accepts pgx.Tx, *pgxpool.Conn, *pgxpool.Pool or nil
// (nil meaning "run on the pool outside any transaction").
type Tx = any

// NoTX is passed where a call deliberately runs outside a transaction.
var NoTX Tx = nil

// TransactionManager opens a database transaction, invokes fn with its
// handle, and commits on nil error / rolls back otherwise. Every operation
// touching shared money state (spend, grant, finalize) runs under it.
type TransactionManager interface {
	WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
