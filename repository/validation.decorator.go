package repository

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/go-arrower/todo/item"
)

// NewValidatedRepository validates the payloads before they are passed to repo.
// An invalid payload fails with item.ErrInvalid and never reaches repo.
func NewValidatedRepository(validate *validator.Validate, repo item.Repository) item.Repository { //nolint:ireturn,lll // decorator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &repositoryValidatingDecorator{
		validate: validate,
		base:     repo,
	}
}

type repositoryValidatingDecorator struct {
	validate *validator.Validate
	base     item.Repository
}

func (d *repositoryValidatingDecorator) Create(ctx context.Context, payload item.CreateItem) (item.Item, error) {
	if err := d.validate.Struct(payload); err != nil {
		return item.Item{}, fmt.Errorf("%w: %v", item.ErrInvalid, err) //nolint:errorlint // prevent err in api
	}

	return d.base.Create(ctx, payload) //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryValidatingDecorator) Find(ctx context.Context, id item.ID) (item.Item, error) {
	return d.base.Find(ctx, id) //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryValidatingDecorator) All(ctx context.Context) ([]item.Item, error) {
	return d.base.All(ctx) //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryValidatingDecorator) Update(ctx context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	if err := d.validate.Struct(payload); err != nil {
		return item.Item{}, fmt.Errorf("%w: %v", item.ErrInvalid, err) //nolint:errorlint // prevent err in api
	}

	return d.base.Update(ctx, id, payload) //nolint:wrapcheck // decorate but not change anything
}

func (d *repositoryValidatingDecorator) Delete(ctx context.Context, id item.ID) error {
	return d.base.Delete(ctx, id) //nolint:wrapcheck // decorate but not change anything
}
