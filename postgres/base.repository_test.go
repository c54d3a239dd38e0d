//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/postgres"
	"github.com/go-arrower/todo/tests"
)

var pgHandler *tests.PostgresDocker

func TestMain(m *testing.M) {
	pgHandler = tests.GetPostgresDockerForIntegrationTestingInstance()

	//
	// Run tests
	code := m.Run()

	pgHandler.Cleanup()
	os.Exit(code)
}

var errFn = errors.New("some-error")

func TestConnOrTX(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fall back to pool", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		assert.Same(t, pg, postgres.ConnOrTX(ctx, pg))
	})

	t.Run("use tx from context", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		tx, err := pg.Begin(ctx)
		assert.NoError(t, err)
		defer tx.Rollback(ctx) //nolint:errcheck

		assert.Equal(t, tx, postgres.ConnOrTX(postgres.WithTX(ctx, tx), pg))
	})
}

func TestInTX(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		err := postgres.InTX(ctx, pg, func(ctx context.Context, tx pgx.Tx) error {
			assert.Equal(t, tx, ctx.Value(postgres.CtxTX))

			_, err := tx.Exec(ctx, `INSERT INTO labels (name) VALUES ('home')`)

			return err //nolint:wrapcheck
		})
		assert.NoError(t, err)

		assertLabels(t, pg, 1)
	})

	t.Run("rollback", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		err := postgres.InTX(ctx, pg, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO labels (name) VALUES ('home')`)
			assert.NoError(t, err)

			return errFn
		})
		assert.ErrorIs(t, err, errFn)

		assertLabels(t, pg, 0)
	})

	t.Run("nested rollback keeps outer tx", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		err := postgres.InTX(ctx, pg, func(ctx context.Context, tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO labels (name) VALUES ('home')`)
			assert.NoError(t, err)

			err = postgres.InTX(ctx, pg, func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `INSERT INTO labels (name) VALUES ('work')`)
				assert.NoError(t, err)

				return errFn
			})
			assert.ErrorIs(t, err, errFn)

			return nil
		})
		assert.NoError(t, err)

		assertLabels(t, pg, 1)
	})

	t.Run("outer rollback discards nested commit", func(t *testing.T) {
		t.Parallel()

		pg := pgHandler.NewTestDatabase()

		err := postgres.InTX(ctx, pg, func(ctx context.Context, _ pgx.Tx) error {
			err := postgres.InTX(ctx, pg, func(ctx context.Context, tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `INSERT INTO labels (name) VALUES ('work')`)

				return err //nolint:wrapcheck
			})
			assert.NoError(t, err)

			return errFn
		})
		assert.ErrorIs(t, err, errFn)

		assertLabels(t, pg, 0)
	})
}

func assertLabels(t *testing.T, pg *pgxpool.Pool, num int) {
	t.Helper()

	var c int
	err := pg.QueryRow(context.Background(), `SELECT COUNT(*) FROM labels`).Scan(&c)
	assert.NoError(t, err)
	assert.Equal(t, num, c)
}
