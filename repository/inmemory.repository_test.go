package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/todo/item"
	"github.com/go-arrower/todo/repository"
	"github.com/go-arrower/todo/repository/testdata"
)

var (
	ctx            = context.Background()
	errStoreFailed = errors.New("store failed")
)

func TestMemoryRepositories(t *testing.T) {
	t.Parallel()

	repository.TestSuite(t, func(t *testing.T) (item.Repository, item.LabelRepository) {
		t.Helper()

		items, labels, err := repository.NewMemoryRepositories()
		require.NoError(t, err)

		return items, labels
	})
}

func TestMemoryItemRepository_All(t *testing.T) {
	t.Parallel()

	items, _, _ := repository.NewMemoryRepositories()

	i0, _ := items.Create(ctx, testdata.CreateItem())
	i1, _ := items.Create(ctx, testdata.CreateItem())
	i2, _ := items.Create(ctx, testdata.CreateItem())

	all, err := items.All(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []item.Item{i0, i1, i2}, all, "ordered by insertion")
}

func TestMemoryRepositories_WithStore(t *testing.T) {
	t.Parallel()

	t.Run("load from empty folder", func(t *testing.T) {
		t.Parallel()

		store, _ := repository.NewJSONStore(t.TempDir())

		items, labels, err := repository.NewMemoryRepositories(repository.WithStore(store))
		assert.NoError(t, err)

		all, _ := items.All(ctx)
		assert.Empty(t, all)

		allLabels, _ := labels.All(ctx)
		assert.Empty(t, allLabels)
	})

	t.Run("persist and load", func(t *testing.T) {
		t.Parallel()

		store, _ := repository.NewJSONStore(t.TempDir())

		items, labels, _ := repository.NewMemoryRepositories(repository.WithStore(store))
		label, _ := labels.Create(ctx, testdata.CreateLabel())
		created, _ := items.Create(ctx, testdata.CreateItem(label.ID))
		deleted, _ := items.Create(ctx, testdata.CreateItem())
		_ = items.Delete(ctx, deleted.ID)

		items, labels, err := repository.NewMemoryRepositories(repository.WithStore(store))
		assert.NoError(t, err)

		found, err := items.Find(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, created, found)

		allLabels, _ := labels.All(ctx)
		assert.Equal(t, []item.Label{label}, allLabels)

		next, _ := items.Create(ctx, testdata.CreateItem())
		assert.Greater(t, next.ID, deleted.ID, "ids are not reused after a restart")
	})

	t.Run("different file names in the same store", func(t *testing.T) {
		t.Parallel()

		store, _ := repository.NewJSONStore(t.TempDir())

		items0, _, _ := repository.NewMemoryRepositories(repository.WithStore(store))
		_, _ = items0.Create(ctx, testdata.CreateItem())

		items1, _, _ := repository.NewMemoryRepositories(
			repository.WithStore(store),
			repository.WithStoreFilename("other.json"),
		)

		all, _ := items1.All(ctx)
		assert.Empty(t, all)
	})

	t.Run("failing store rolls back", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{}
		items, labels, _ := repository.NewMemoryRepositories(repository.WithStore(store))
		label, _ := labels.Create(ctx, testdata.CreateLabel())
		created, _ := items.Create(ctx, testdata.CreateItem(label.ID))

		store.fail = true

		_, err := items.Create(ctx, testdata.CreateItem())
		assert.ErrorIs(t, err, item.ErrUnexpected)

		_, err = items.Update(ctx, created.ID, item.NewUpdate().WithCompleted(true).WithLabels())
		assert.ErrorIs(t, err, item.ErrUnexpected)

		err = items.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, item.ErrUnexpected)

		err = labels.Delete(ctx, label.ID)
		assert.ErrorIs(t, err, item.ErrUnexpected)

		all, _ := items.All(ctx)
		assert.Equal(t, []item.Item{created}, all)

		store.fail = false

		next, _ := items.Create(ctx, testdata.CreateItem())
		assert.Equal(t, created.ID+1, next.ID, "failed creates do not use up ids")
	})

	t.Run("failing load", func(t *testing.T) {
		t.Parallel()

		_, _, err := repository.NewMemoryRepositories(repository.WithStore(&failingStore{fail: true}))
		assert.ErrorIs(t, err, item.ErrUnexpected)
	})
}

type failingStore struct {
	fail bool
}

func (s *failingStore) Store(_ string, _ any) error {
	if s.fail {
		return errStoreFailed
	}

	return nil
}

func (s *failingStore) Load(_ string, _ any) error {
	if s.fail {
		return errStoreFailed
	}

	return nil
}
