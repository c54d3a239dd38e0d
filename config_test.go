package todo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/todo"
)

func TestDefaultViper(t *testing.T) {
	t.Parallel()

	vip := todo.DefaultViper()
	assert.NotEmpty(t, vip)

	// This test enforces the default values, so whenever they change,
	// make sure to also update the test config file!

	assert.Equal(t, "todo", vip.GetString("application_name"))
	assert.Empty(t, vip.Get("instance_name"))

	assert.Equal(t, todo.LocalEnv, todo.Environment(vip.GetString("environment")))

	assert.Equal(t, "info", vip.GetString("log.level"))

	assert.Equal(t, todo.MemoryBackend, todo.Backend(vip.GetString("store.backend")))
	assert.Empty(t, vip.GetString("store.snapshot_dir"))

	assert.Equal(t, "todo", vip.GetString("postgres.user"))
	assert.Equal(t, "secret", vip.GetString("postgres.password"))
	assert.Equal(t, "todo", vip.GetString("postgres.database"))
	assert.Equal(t, "localhost", vip.GetString("postgres.host"))
	assert.Equal(t, 5432, vip.GetInt("postgres.port"))
	assert.Equal(t, "disable", vip.GetString("postgres.ssl_mode"))
	assert.Equal(t, 10, vip.GetInt("postgres.max_conns"))
	assert.Equal(t, 5*time.Second, vip.GetDuration("postgres.connect_timeout"))

	assert.False(t, vip.GetBool("otel.enabled"))
	assert.Equal(t, "localhost", vip.GetString("otel.host"))
	assert.Equal(t, 4317, vip.GetInt("otel.port"))
}

func TestViper_Unmarshal(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		conf := todo.Config{}

		err := todo.DefaultViper().Unmarshal(&conf)
		require.NoError(t, err)
		assert.Equal(t, todo.LocalEnv, conf.Environment)
		assert.Equal(t, todo.MemoryBackend, conf.Store.Backend)
		assert.Equal(t, "secret", conf.Postgres.Password.Secret())
		assert.Equal(t, 5*time.Second, conf.Postgres.ConnectTimeout)
	})

	t.Run("config file", func(t *testing.T) {
		t.Parallel()

		vip := todo.DefaultViper()
		vip.SetConfigFile("./testdata/config/test-config.yaml")
		err := vip.ReadInConfig()
		require.NoError(t, err)

		conf := todo.Config{}

		err = vip.Unmarshal(&conf)
		require.NoError(t, err)

		assert.Equal(t, "ci", conf.InstanceName)
		assert.Equal(t, todo.TestEnv, conf.Environment)
		assert.Equal(t, "debug", conf.Log.Level)
		assert.Equal(t, todo.PostgresBackend, conf.Store.Backend)
		assert.Equal(t, "/tmp/todo", conf.Store.SnapshotDir)
		assert.Equal(t, "my-db-secret", conf.Postgres.Password.Secret())
		assert.Equal(t, "db", conf.Postgres.Host)
		assert.Equal(t, 5433, conf.Postgres.Port)
		assert.Equal(t, 20, conf.Postgres.MaxConns)
		assert.Equal(t, 2*time.Second, conf.Postgres.ConnectTimeout)
		assert.True(t, conf.OTEL.Enabled)
		assert.Equal(t, "collector", conf.OTEL.Host)
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Parallel()

		vip := todo.DefaultViper()
		vip.SetConfigFile("./testdata/config/invalid-config.yaml")
		err := vip.ReadInConfig()
		require.NoError(t, err)

		err = vip.Unmarshal(&todo.Config{})
		assert.Error(t, err, "should fail when using unsupported enum values")
		assert.Contains(t, err.Error(), "use one of: local, test, dev, prod", "error message should list out all accepted environments")
	})

	t.Run("invalid backend", func(t *testing.T) {
		t.Parallel()

		vip := todo.DefaultViper()
		vip.SetConfigFile("./testdata/config/invalid-backend-config.yaml")
		err := vip.ReadInConfig()
		require.NoError(t, err)

		err = vip.Unmarshal(&todo.Config{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "use one of: memory, postgres")
	})

	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()

		vip := todo.DefaultViper()
		vip.Set("store.backend", "postgres")
		vip.Set("postgres.password", "overwritten")

		conf := todo.Config{}

		err := vip.Unmarshal(&conf)
		require.NoError(t, err)
		assert.Equal(t, todo.PostgresBackend, conf.Store.Backend)
		assert.Equal(t, "overwritten", conf.Postgres.Password.Secret())
	})

	t.Run("custom config", func(t *testing.T) {
		t.Parallel()

		type MyConfig struct {
			SomeStructField struct{ A string }
			todo.Config     `mapstructure:",squash"`
		}

		vip := todo.DefaultViper()
		vip.SetConfigFile("./testdata/config/test-config.yaml")
		err := vip.ReadInConfig()
		require.NoError(t, err)

		conf := MyConfig{}

		err = vip.Unmarshal(&conf)
		assert.NoError(t, err)
		assert.Equal(t, "my-db-secret", conf.Postgres.Password.Secret())
		assert.Equal(t, todo.TestEnv, conf.Environment)
	})
}

func TestViper_Env(t *testing.T) {
	t.Setenv("TODO_STORE_BACKEND", "postgres")
	t.Setenv("TODO_POSTGRES_PORT", "6543")

	conf := todo.Config{}

	err := todo.DefaultViper().Unmarshal(&conf)
	require.NoError(t, err)
	assert.Equal(t, todo.PostgresBackend, conf.Store.Backend)
	assert.Equal(t, 6543, conf.Postgres.Port)
}
