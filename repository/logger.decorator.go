package repository

import (
	"context"
	"log/slog"

	"github.com/go-arrower/todo/item"
)

// NewLoggedRepository logs each call to repo on debug level.
func NewLoggedRepository(logger *slog.Logger, repo item.Repository) item.Repository { //nolint:ireturn // decorator
	return &repositoryLoggingDecorator{
		logger: logger.WithGroup("repository"),
		base:   repo,
	}
}

type repositoryLoggingDecorator struct {
	logger *slog.Logger
	base   item.Repository
}

func (d *repositoryLoggingDecorator) log(ctx context.Context, method string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("method", method))

	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "repository call failed",
			append(attrs, slog.String("error", err.Error()))...,
		)

		return
	}

	d.logger.LogAttrs(ctx, slog.LevelDebug, "repository call succeeded", attrs...)
}

func (d *repositoryLoggingDecorator) Create(ctx context.Context, payload item.CreateItem) (item.Item, error) {
	created, err := d.base.Create(ctx, payload)
	d.log(ctx, "Create", err, slog.Int64("id", int64(created.ID)))

	return created, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryLoggingDecorator) Find(ctx context.Context, id item.ID) (item.Item, error) {
	found, err := d.base.Find(ctx, id)
	d.log(ctx, "Find", err, slog.Int64("id", int64(id)))

	return found, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryLoggingDecorator) All(ctx context.Context) ([]item.Item, error) {
	all, err := d.base.All(ctx)
	d.log(ctx, "All", err, slog.Int("count", len(all)))

	return all, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryLoggingDecorator) Update(ctx context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	updated, err := d.base.Update(ctx, id, payload)
	d.log(ctx, "Update", err, slog.Int64("id", int64(id)))

	return updated, err //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryLoggingDecorator) Delete(ctx context.Context, id item.ID) error {
	err := d.base.Delete(ctx, id)
	d.log(ctx, "Delete", err, slog.Int64("id", int64(id)))

	return err //nolint:wrapcheck // decorate but not change anything
}
