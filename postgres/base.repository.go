package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	ctx2 "github.com/go-arrower/todo/ctx"
)

// CtxTX contains a database transaction, only if set by e.g. WithTX or InTX.
const CtxTX ctx2.CTXKey = "todo.tx"

// DB is the part of pgxpool.Pool and pgx.Tx the repositories work with.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DB = (*pgxpool.Pool)(nil)
	_ DB = (pgx.Tx)(nil)
)

// WithTX returns a copy of ctx carrying tx.
// All repository calls made with the returned context become part of tx.
func WithTX(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, CtxTX, tx)
}

// ConnOrTX returns the transaction in ctx.
// If no transaction is in the context, it falls back to the pool.
func ConnOrTX(ctx context.Context, pool *pgxpool.Pool) DB { //nolint:ireturn // tx or pool
	if tx, ok := ctx.Value(CtxTX).(pgx.Tx); ok {
		return tx
	}

	return pool
}

// InTX runs fn inside a transaction and commits it if fn returns no error.
// Otherwise, the transaction is rolled back and the error of fn is returned.
// If ctx already carries a transaction, a nested transaction (savepoint) of it is used,
// so the outer transaction stays in control of the final commit.
func InTX(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := ConnOrTX(ctx, pool).Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	err = fn(WithTX(ctx, tx), tx)
	if err != nil {
		if rb := tx.Rollback(ctx); rb != nil {
			return fmt.Errorf("could not rollback transaction: %w: %w", rb, err)
		}

		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
