//go:build integration

package tests_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/todo/tests"
)

var pgHandler *tests.PostgresDocker

func TestMain(m *testing.M) {
	pgHandler = tests.GetPostgresDockerForIntegrationTestingInstance()

	//
	// Run tests
	code := m.Run()

	//
	// Cleanup
	pgHandler.Cleanup()

	os.Exit(code)
}

func TestGetPostgresDockerForIntegrationTestingInstance(t *testing.T) {
	t.Parallel()

	other := tests.GetPostgresDockerForIntegrationTestingInstance()
	assert.Same(t, pgHandler, other, "the container is shared")
	assert.NoError(t, other.PGx().Ping(context.Background()))
}

func TestPostgresDocker_NewTestDatabase(t *testing.T) {
	t.Parallel()

	t.Run("migrated without fixtures", func(t *testing.T) {
		t.Parallel()

		var pg *pgxpool.Pool
		assert.NotPanics(t, func() {
			pg = pgHandler.NewTestDatabase()
		})

		assertTableNumberOfRows(t, pg, "items", 0)
		assertTableNumberOfRows(t, pg, "labels", 0)
		assertTableNumberOfRows(t, pg, "item_labels", 0)
	})

	t.Run("load multi-table fixture", func(t *testing.T) {
		t.Parallel()

		var pg *pgxpool.Pool
		assert.NotPanics(t, func() {
			pg = pgHandler.NewTestDatabase("testdata/fixtures/items.yaml")
		})

		assertTableNumberOfRows(t, pg, "items", 2)
		assertTableNumberOfRows(t, pg, "labels", 2)
		assertTableNumberOfRows(t, pg, "item_labels", 2)
	})

	t.Run("run multiple tests in parallel", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup
		const testNumber = 10

		wg.Add(testNumber)
		for range testNumber {
			go func() {
				defer wg.Done()

				var pg *pgxpool.Pool
				assert.NotPanics(t, func() {
					pg = pgHandler.NewTestDatabase("testdata/fixtures/items.yaml")
				})

				assertTableNumberOfRows(t, pg, "items", 2)
			}()
		}

		wg.Wait()
	})
}

func TestPostgresDocker_PrepareDatabase(t *testing.T) { //nolint:paralleltest // uses the shared database
	pgHandler.PrepareDatabase("testdata/fixtures/items.yaml")
	assertTableNumberOfRows(t, pgHandler.PGx(), "items", 2)

	pgHandler.PrepareDatabase()
	assertTableNumberOfRows(t, pgHandler.PGx(), "items", 0)
	assertTableNumberOfRows(t, pgHandler.PGx(), "item_labels", 0)
}

func assertTableNumberOfRows(t *testing.T, db *pgxpool.Pool, table string, num int) {
	t.Helper()

	var c int
	_ = db.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&c)

	assert.Equal(t, num, c)
}
