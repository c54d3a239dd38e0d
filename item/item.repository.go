package item

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnexpected   = errors.New("unexpected storage error")
	ErrInvalidLabel = errors.New("invalid label")
	ErrInvalid      = errors.New("invalid payload")
)

// Repository stores Items together with the association to their Labels.
// Implementations are safe for concurrent use.
type Repository interface {
	Create(ctx context.Context, payload CreateItem) (Item, error)
	Find(ctx context.Context, id ID) (Item, error)
	All(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, id ID, payload UpdateItem) (Item, error)
	Delete(ctx context.Context, id ID) error
}

// LabelRepository stores the Labels an Item can be tagged with.
// Deleting a Label removes it from all Items.
type LabelRepository interface {
	Create(ctx context.Context, payload CreateLabel) (Label, error)
	All(ctx context.Context) ([]Label, error)
	Delete(ctx context.Context, id LabelID) error
}
