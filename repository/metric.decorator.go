package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-arrower/todo/item"
)

// NewMeteredRepository counts the calls to repo and records their duration,
// split by method and status.
func NewMeteredRepository(meterProvider metric.MeterProvider, repo item.Repository) item.Repository { //nolint:ireturn,lll // decorator
	meter := meterProvider.Meter("todo.repository")

	counter, _ := meter.Int64Counter("item_repository_calls", metric.WithDescription("calls to the item repository"))
	duration, _ := meter.Float64Histogram("item_repository_duration_seconds",
		metric.WithDescription("duration of the calls to the item repository"),
	)

	return &repositoryMeteringDecorator{
		counter:  counter,
		duration: duration,
		base:     repo,
	}
}

type repositoryMeteringDecorator struct {
	counter  metric.Int64Counter
	duration metric.Float64Histogram
	base     item.Repository
}

// record returns a func to call with the result of the method, once it completes.
func (d *repositoryMeteringDecorator) record(ctx context.Context, method string) func(err error) {
	start := time.Now()

	return func(err error) {
		status := "success"
		if err != nil {
			status = "failure"
		}

		opt := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("status", status),
		)

		d.counter.Add(ctx, 1, opt)
		d.duration.Record(ctx, time.Since(start).Seconds(), opt)
	}
}

func (d *repositoryMeteringDecorator) Create(ctx context.Context, payload item.CreateItem) (item.Item, error) {
	done := d.record(ctx, "Create")

	created, err := d.base.Create(ctx, payload)
	done(err)

	return created, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryMeteringDecorator) Find(ctx context.Context, id item.ID) (item.Item, error) {
	done := d.record(ctx, "Find")

	found, err := d.base.Find(ctx, id)
	done(err)

	return found, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryMeteringDecorator) All(ctx context.Context) ([]item.Item, error) {
	done := d.record(ctx, "All")

	all, err := d.base.All(ctx)
	done(err)

	return all, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryMeteringDecorator) Update(ctx context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	done := d.record(ctx, "Update")

	updated, err := d.base.Update(ctx, id, payload)
	done(err)

	return updated, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryMeteringDecorator) Delete(ctx context.Context, id item.ID) error {
	done := d.record(ctx, "Delete")

	err := d.base.Delete(ctx, id)
	done(err)

	return err //nolint:wrapcheck // decorate but not change anything
}
