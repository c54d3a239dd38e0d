//go:build integration

package tests

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-testfixtures/testfixtures/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khaiql/dbcleaner"
	"github.com/khaiql/dbcleaner/engine"
	"github.com/ory/dockertest/v3"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/todo/postgres"
)

//nolint:gochecknoglobals // the variables are used on purpose for a singleton pattern.
var (
	muPostgres        = &sync.Mutex{}
	singletonPostgres *PostgresDocker
)

// PostgresOpt allows to initialise a custom postgres connection.
type PostgresOpt func(conf *postgres.Config)

// WithMigrations migrates the databases with the folder `migrations` of fsys
// instead of the embedded postgres.Migrations.
func WithMigrations(fsys fs.FS) PostgresOpt {
	return func(c *postgres.Config) {
		c.Migrations = fsys
	}
}

// GetPostgresDockerForIntegrationTestingInstance returns a fully connected and migrated database.
// Subsequent calls return the same instance to prevent multiple docker containers to spin up,
// if you have a lot of integration tests running in parallel.
// In case of an issue, it panics.
func GetPostgresDockerForIntegrationTestingInstance(opts ...PostgresOpt) *PostgresDocker {
	muPostgres.Lock()
	defer muPostgres.Unlock()

	if singletonPostgres != nil {
		return singletonPostgres
	}

	var pgHandler *postgres.Handler

	conf := defaultPGConf
	for _, opt := range opts {
		opt(&conf)
	}

	options := *defaultPGRunOptions
	options.Name = fmt.Sprintf("todo-testing-postgres-%d", rand.Intn(10000)) //nolint:gosec,mnd // prevent collisions only

	container, err := StartContainer(&options, func(c *Container) error {
		conf.Port = c.Port("5432/tcp")

		handler, err := postgres.ConnectAndMigrate(context.Background(), conf, noop.NewTracerProvider())
		if err != nil {
			return err //nolint:wrapcheck
		}

		pgHandler = handler

		return nil
	})
	if err != nil {
		panic(err)
	}

	singletonPostgres = &PostgresDocker{
		pg:        pgHandler,
		container: container,
	}

	return singletonPostgres
}

//nolint:gochecknoglobals,exhaustruct // only set required configuration
var (
	defaultPGConf = postgres.Config{
		User:       "todo",
		Password:   "secret",
		Database:   "todo_test",
		Host:       "localhost",
		Port:       5432, //nolint:mnd
		MaxConns:   20,   //nolint:mnd
		Migrations: postgres.Migrations,
	}

	defaultPGRunOptions = &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + defaultPGConf.User,
			"POSTGRES_PASSWORD=" + defaultPGConf.Password,
			"POSTGRES_DB=" + defaultPGConf.Database,
			"listen_addresses = '*'",
		},
		Cmd: []string{"-c", "max_connections=1000"},
	}
)

type PostgresDocker struct {
	pg        *postgres.Handler
	container *Container
}

const commonFixture = "testdata/fixtures/_common.yaml"

// NewTestDatabase creates a new database, connects to it, and applies all migrations.
// Afterwards, it loads all fixtures from files.
// If there is a file named `testdata/fixtures/_common.yaml`, it's always loaded first.
// Use it in integration tests to get an isolated database, it can be used in parallel.
// In case of an issue, it panics.
func (pd *PostgresDocker) NewTestDatabase(files ...string) *pgxpool.Pool {
	pgHandler := createAndConnectToNewRandomDatabase(pd.pg)

	loadFixtures(pgHandler, files...)

	return pgHandler.PGx
}

// PrepareDatabase prepares the shared database for testing:
// all tables are truncated and the fixture files are loaded.
// It is not safe to be used by parallel tests, use NewTestDatabase instead.
func (pd *PostgresDocker) PrepareDatabase(files ...string) {
	c := pd.pg.Config
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)

	cleaner := dbcleaner.New()
	cleaner.SetEngine(engine.NewPostgresEngine(dsn))

	var tables []string

	_ = pgxscan.Select(context.Background(), pd.PGx(), &tables,
		`SELECT table_schema || '.' || table_name
				FROM information_schema.tables
				WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
				  AND table_type = 'BASE TABLE'
				  AND table_name <> 'schema_migrations'`,
	)

	cleaner.Clean(tables...)
	_ = cleaner.Close()

	loadFixtures(pd.pg, files...)
}

// Cleanup does shutdown the database connection, stops, and removes the docker container.
// It cannot be deferred in TestMain, if it exits with os.Exit(code), as that does not execute the defer stack.
// In case of an issue, it panics.
func (pd *PostgresDocker) Cleanup() {
	err := pd.pg.Shutdown(context.Background())
	if err != nil {
		panic(err)
	}

	err = pd.container.Close()
	if err != nil {
		panic(err)
	}
}

// PGx returns the pgx connection if you need to access the database directly.
func (pd *PostgresDocker) PGx() *pgxpool.Pool {
	return pd.pg.PGx
}

func loadFixtures(pg *postgres.Handler, files ...string) {
	if _, err := os.Stat(commonFixture); errors.Is(err, nil) {
		files = append([]string{commonFixture}, files...)
	}

	if len(files) == 0 {
		return
	}

	fixtures, err := testfixtures.New(
		testfixtures.Database(pg.DB),
		testfixtures.Dialect("postgres"),
		testfixtures.FilesMultiTables(files...),
		testfixtures.ResetSequencesTo(1000), //nolint:mnd // ids created by tests start above all fixture ids
	)
	if err != nil {
		panic(err)
	}

	if err := fixtures.Load(); err != nil {
		panic(err)
	}
}

func createAndConnectToNewRandomDatabase(pg *postgres.Handler) *postgres.Handler {
	newDB := randomDatabaseName()

	_, err := pg.PGx.Exec(context.Background(), fmt.Sprintf("CREATE DATABASE %s;", newDB))
	if err != nil {
		panic(err)
	}

	newConfig := pg.Config
	newConfig.Database = newDB

	newHandler, err := postgres.ConnectAndMigrate(context.Background(), newConfig, noop.NewTracerProvider())
	if err != nil {
		panic(err)
	}

	return newHandler
}

func randomDatabaseName() string {
	validPGDatabaseLetters := []rune("abcdefghijklmnopqrstuvwxyz")

	rnd := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // used for name, not security

	const n = 16
	b := make([]rune, n)

	for i := range b {
		b[i] = validPGDatabaseLetters[rnd.Intn(len(validPGDatabaseLetters))]
	}

	return string(b) + "_test"
}
