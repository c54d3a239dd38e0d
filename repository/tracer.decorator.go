package repository

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-arrower/todo/item"
)

// NewTracedRepository starts a span for each call to repo.
func NewTracedRepository(traceProvider trace.TracerProvider, repo item.Repository) item.Repository { //nolint:ireturn,lll // decorator
	return &repositoryTracingDecorator{
		tracer: traceProvider.Tracer("todo.repository"),
		base:   repo,
	}
}

type repositoryTracingDecorator struct {
	tracer trace.Tracer
	base   item.Repository
}

func (d *repositoryTracingDecorator) start(ctx context.Context, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) { //nolint:lll // ok
	return d.tracer.Start(ctx, "repository",
		trace.WithAttributes(append(attrs, attribute.String("method", method))...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func (d *repositoryTracingDecorator) Create(ctx context.Context, payload item.CreateItem) (item.Item, error) {
	newCtx, span := d.start(ctx, "Create")

	created, err := d.base.Create(newCtx, payload)
	if err == nil {
		span.SetAttributes(attribute.Int64("id", int64(created.ID)))
	}

	endSpan(span, err)

	return created, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryTracingDecorator) Find(ctx context.Context, id item.ID) (item.Item, error) {
	newCtx, span := d.start(ctx, "Find", attribute.Int64("id", int64(id)))

	found, err := d.base.Find(newCtx, id)
	endSpan(span, err)

	return found, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryTracingDecorator) All(ctx context.Context) ([]item.Item, error) {
	newCtx, span := d.start(ctx, "All")

	all, err := d.base.All(newCtx)
	endSpan(span, err)

	return all, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryTracingDecorator) Update(ctx context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	newCtx, span := d.start(ctx, "Update", attribute.Int64("id", int64(id)))

	updated, err := d.base.Update(newCtx, id, payload)
	endSpan(span, err)

	return updated, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryTracingDecorator) Delete(ctx context.Context, id item.ID) error {
	newCtx, span := d.start(ctx, "Delete", attribute.Int64("id", int64(id)))

	err := d.base.Delete(newCtx, id)
	endSpan(span, err)

	return err //nolint:wrapcheck // decorate but not change anything
}
