package todo

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/go-arrower/todo/secret"
)

// Config is a structure used for the application configuration.
// It is intended to be mapped by viper.
type Config struct {
	ApplicationName string `mapstructure:"application_name"`
	InstanceName    string `mapstructure:"instance_name"`

	Environment Environment `mapstructure:"environment"`

	Log      Log      `mapstructure:"log"`
	Store    Store    `mapstructure:"store"`
	Postgres Postgres `mapstructure:"postgres"`
	OTEL     OTEL     `mapstructure:"otel"`
}

const (
	LocalEnv       Environment = "local"
	TestEnv        Environment = "test"
	DevelopmentEnv Environment = "dev"
	ProductionEnv  Environment = "prod"
)

// Environments is the list of all supported environments.
func Environments() []Environment {
	return []Environment{LocalEnv, TestEnv, DevelopmentEnv, ProductionEnv}
}

type Environment string

const (
	MemoryBackend   Backend = "memory"
	PostgresBackend Backend = "postgres"
)

// Backends is the list of all supported storage backends.
func Backends() []Backend {
	return []Backend{MemoryBackend, PostgresBackend}
}

// Backend selects the implementation behind the item and label repositories.
type Backend string

type (
	Log struct {
		Level string `mapstructure:"level" json:"level"`
	}

	Store struct {
		Backend Backend `mapstructure:"backend" json:"backend"`
		// SnapshotDir is the folder the memory backend persists its data in.
		// If empty, the data is lost when the process ends.
		SnapshotDir string `mapstructure:"snapshot_dir" json:"snapshotDir"`
	}

	Postgres struct {
		User           string        `mapstructure:"user"            json:"user"`
		Password       secret.Secret `mapstructure:"password"        json:"-"`
		Database       string        `mapstructure:"database"        json:"database"`
		Host           string        `mapstructure:"host"            json:"host"`
		Port           int           `mapstructure:"port"            json:"port"`
		SSLMode        string        `mapstructure:"ssl_mode"        json:"sslMode"`
		MaxConns       int           `mapstructure:"max_conns"       json:"maxConns"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connectTimeout"`
	}

	OTEL struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Host    string `mapstructure:"host"    json:"host"`
		Port    int    `mapstructure:"port"    json:"port"`
	}
)

// DefaultViper returns a new viper instance with all default values
// from Config set. Every key can be overwritten by an environment variable
// with the prefix TODO_, e.g. TODO_STORE_BACKEND.
func DefaultViper() *Viper {
	vip := viper.New()

	vip.SetEnvPrefix("todo")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	vip.SetDefault("application_name", "todo")
	vip.SetDefault("instance_name", "")

	vip.SetDefault("environment", "local")

	vip.SetDefault("log.level", "info")

	vip.SetDefault("store.backend", "memory")
	vip.SetDefault("store.snapshot_dir", "")

	vip.SetDefault("postgres.user", "todo")
	vip.SetDefault("postgres.password", "secret")
	vip.SetDefault("postgres.database", "todo")
	vip.SetDefault("postgres.host", "localhost")
	vip.SetDefault("postgres.port", 5432)
	vip.SetDefault("postgres.ssl_mode", "disable")
	vip.SetDefault("postgres.max_conns", 10)
	vip.SetDefault("postgres.connect_timeout", "5s")

	vip.SetDefault("otel.enabled", false)
	vip.SetDefault("otel.host", "localhost")
	vip.SetDefault("otel.port", 4317)

	return &Viper{Viper: vip}
}

var errConfigLoadFailed = errors.New("loading configuration failed")

// Viper is a wrapper around viper.Viper for configuration loading.
// It overwrites the Unmarshal method, so that the enum types and
// secret.Secret are decoded without the caller having to think about it.
type Viper struct {
	*viper.Viper
}

func (vip *Viper) Unmarshal(rawVal any, opts ...viper.DecoderConfigOption) error {
	opts = append([]viper.DecoderConfigOption{viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		allowedValuesHookFunc(Environments()),
		allowedValuesHookFunc(Backends()),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))}, opts...)

	err := vip.Viper.Unmarshal(rawVal, opts...)
	if err != nil {
		return fmt.Errorf("%w: could not decode configuration into struct: %v", errConfigLoadFailed, err) //nolint:errorlint,lll // prevent err in api
	}

	return nil
}

// allowedValuesHookFunc rejects any value of the string enum E that is not listed in allowed.
func allowedValuesHookFunc[E ~string](allowed []E) mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(E("")) {
			return data, nil
		}

		value, ok := data.(string)
		if ok && slices.Contains(allowed, E(value)) {
			return data, nil
		}

		e := make([]string, 0, len(allowed))
		for _, v := range allowed {
			e = append(e, string(v))
		}

		return data, fmt.Errorf("value %v is not allowed, use one of: %s", data, strings.Join(e, ", ")) //nolint:err113,lll // accept dynamic error
	}
}
