package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	prometheusSDK "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/go-arrower/todo/alog"
	"github.com/go-arrower/todo/item"
	"github.com/go-arrower/todo/postgres"
	"github.com/go-arrower/todo/repository"
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Container holds the dependencies of the application, so they are initialised once and in one place.
type Container struct {
	Logger        *slog.Logger
	TraceProvider *trace.TracerProvider
	MeterProvider *metric.MeterProvider
	// Metrics gathers everything recorded via MeterProvider.
	Metrics prometheusSDK.Gatherer

	Config *Config

	// PG is nil, if the memory backend is used.
	PG *postgres.Handler

	Items  item.Repository
	Labels item.LabelRepository

	startedAt time.Time
}

// InitialiseDefaultDependencies builds all dependencies from conf.
// Call Shutdown to release them.
func InitialiseDefaultDependencies(ctx context.Context, conf *Config) (*Container, error) {
	if conf == nil {
		return nil, fmt.Errorf("%w: config not found", ErrMissingDependency)
	}

	dc := &Container{
		Config:    conf,
		startedAt: time.Now(),
	}

	{ // logger
		level, ok := alog.ParseLevel(conf.Log.Level)
		if !ok && conf.Log.Level != "" {
			return nil, fmt.Errorf("%w: unknown log level: %s", ErrInvalidConfig, conf.Log.Level)
		}

		logger := alog.New(alog.WithLevel(level))
		if conf.Environment == LocalEnv {
			logger = alog.NewDevelopment()
			if ok {
				alog.Unwrap(logger).SetLevel(level)
			}
		}

		dc.Logger = logger.With(
			slog.String("application_name", conf.ApplicationName),
			slog.String("instance_name", conf.InstanceName),
			slog.String("git_hash", gitHash()),
			slog.String("environment", string(conf.Environment)),
		)
	}

	{ // observability
		resource := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(conf.ApplicationName),
			attribute.String("instance_name", conf.InstanceName),
			attribute.String("environment", string(conf.Environment)),
		)

		{ // traces
			opts := []trace.TracerProviderOption{trace.WithResource(resource)}

			if conf.OTEL.Enabled {
				exporterOpts := []otlptracegrpc.Option{
					otlptracegrpc.WithEndpoint(net.JoinHostPort(conf.OTEL.Host, strconv.Itoa(conf.OTEL.Port))),
					otlptracegrpc.WithInsecure(),
				}

				if conf.Environment == TestEnv {
					// while testing no collector is running and a
					// shutdown would block until its ctx expires.
					exporterOpts = append(exporterOpts, otlptracegrpc.WithTimeout(10*time.Millisecond)) //nolint:mnd
				}

				traceExporter, err := otlptracegrpc.New(ctx, exporterOpts...)
				if err != nil {
					return nil, fmt.Errorf("could not connect to trace exporter: %w", err)
				}

				opts = append(opts, trace.WithBatcher(traceExporter))
			}

			if conf.Environment == LocalEnv {
				opts = append(opts, trace.WithSampler(trace.AlwaysSample()))
			} else {
				opts = append(opts, trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(0.6)))) //nolint:mnd
			}

			dc.TraceProvider = trace.NewTracerProvider(opts...)
		}

		{ // metrics
			registry := prometheusSDK.NewRegistry()

			exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
			if err != nil {
				return nil, fmt.Errorf("could not create prometheus exporter: %w", err)
			}

			dc.MeterProvider = metric.NewMeterProvider(
				metric.WithResource(resource),
				metric.WithReader(exporter),
			)
			dc.Metrics = registry
		}
	}

	if err := dc.initialiseRepositories(ctx); err != nil {
		_ = dc.Shutdown(ctx)
		return nil, err
	}

	dc.Logger.LogAttrs(ctx, alog.LevelInfo, "dependencies initialised",
		slog.String("backend", string(conf.Store.Backend)),
	)

	return dc, nil
}

func (c *Container) initialiseRepositories(ctx context.Context) error {
	var items item.Repository

	switch c.Config.Store.Backend {
	case MemoryBackend, "":
		opts := []repository.Option{}

		if c.Config.Store.SnapshotDir != "" {
			store, err := repository.NewJSONStore(c.Config.Store.SnapshotDir)
			if err != nil {
				return fmt.Errorf("could not open snapshot dir: %w", err)
			}

			opts = append(opts, repository.WithStore(store))
		}

		itemRepo, labelRepo, err := repository.NewMemoryRepositories(opts...)
		if err != nil {
			return fmt.Errorf("could not load memory store: %w", err)
		}

		items, c.Labels = itemRepo, labelRepo
	case PostgresBackend:
		pg, err := postgres.ConnectAndMigrate(ctx, c.Config.PostgresConfig(), c.TraceProvider)
		if err != nil {
			return fmt.Errorf("could not connect to postgres: %w", err)
		}

		c.PG = pg

		itemRepo, labelRepo, err := repository.NewPostgresRepositories(pg.PGx)
		if err != nil {
			return fmt.Errorf("could not create postgres repositories: %w", err)
		}

		items, c.Labels = itemRepo, labelRepo
	default:
		return fmt.Errorf("%w: unknown store backend: %s", ErrInvalidConfig, c.Config.Store.Backend)
	}

	items = repository.NewTracedRepository(c.TraceProvider, items)
	items = repository.NewMeteredRepository(c.MeterProvider, items)
	items = repository.NewLoggedRepository(c.Logger, items)
	c.Items = repository.NewValidatedRepository(validator.New(validator.WithRequiredStructEnabled()), items)

	return nil
}

// PostgresConfig maps the postgres section of the configuration to the one of the postgres package.
func (c *Config) PostgresConfig() postgres.Config {
	return postgres.Config{
		User:           c.Postgres.User,
		Password:       c.Postgres.Password.Secret(),
		Database:       c.Postgres.Database,
		Host:           c.Postgres.Host,
		Port:           c.Postgres.Port,
		SSLMode:        c.Postgres.SSLMode,
		MaxConns:       c.Postgres.MaxConns,
		ConnectTimeout: c.Postgres.ConnectTimeout,
		Migrations:     postgres.Migrations,
	}
}

// Shutdown releases all dependencies.
// It returns all errors that occurred, but always tries to release everything.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.PG != nil {
		errs = append(errs, c.PG.Shutdown(ctx))
	}

	if c.TraceProvider != nil {
		errs = append(errs, c.TraceProvider.Shutdown(ctx))
	}

	if c.MeterProvider != nil {
		errs = append(errs, c.MeterProvider.Shutdown(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	return nil
}

func gitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}
