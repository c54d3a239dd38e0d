package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/go-arrower/todo/item"
	"github.com/go-arrower/todo/repository/testdata"
)

// TestSuite verifies that an implementation of item.Repository and item.LabelRepository
// behaves the same as all other implementations.
// newRepos is called once per test case and has to return repositories without any data.
func TestSuite(
	t *testing.T,
	newRepos func(t *testing.T) (item.Repository, item.LabelRepository),
) { //nolint:tparallel // t.Parallel can only be called ones! The caller decides
	t.Helper()

	if newRepos == nil {
		t.Fatal("repository constructor is nil")
	}

	ctx := context.Background()

	const unknownID = item.ID(1_000_000)

	newLabels := func(t *testing.T, labels item.LabelRepository, n int) []item.LabelID {
		t.Helper()

		ids := make([]item.LabelID, 0, n)

		for range n {
			l, err := labels.Create(ctx, testdata.CreateLabel())
			require.NoError(t, err)

			ids = append(ids, l.ID)
		}

		return ids
	}

	t.Run("Create", func(t *testing.T) {
		t.Parallel()

		t.Run("without labels", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)
			payload := testdata.CreateItem()

			created, err := items.Create(ctx, payload)
			assert.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, payload.Text, created.Text)
			assert.False(t, created.Completed)
			assert.NotNil(t, created.Labels)
			assert.Empty(t, created.Labels)
		})

		t.Run("with labels", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 3)

			created, err := items.Create(ctx, testdata.CreateItem(ids[2], ids[0]))
			assert.NoError(t, err)
			assert.Equal(t, []item.LabelID{ids[0], ids[2]}, created.LabelIDs(), "labels are ordered by id")
			assert.NotEmpty(t, created.Labels[0].Name)
		})

		t.Run("duplicated labels are added once", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 1)

			created, err := items.Create(ctx, testdata.CreateItem(ids[0], ids[0]))
			assert.NoError(t, err)
			assert.Equal(t, []item.LabelID{ids[0]}, created.LabelIDs())
		})

		t.Run("unknown label", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 1)

			_, err := items.Create(ctx, testdata.CreateItem(ids[0], ids[0]+1000))
			assert.ErrorIs(t, err, item.ErrInvalidLabel)

			all, err := items.All(ctx)
			assert.NoError(t, err)
			assert.Empty(t, all, "nothing is written")
		})

		t.Run("ids are unique", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			const creates = 50
			ids := make(chan item.ID, creates)

			g := errgroup.Group{}
			for range creates {
				g.Go(func() error {
					created, err := items.Create(ctx, testdata.CreateItem())
					ids <- created.ID

					return err
				})
			}

			assert.NoError(t, g.Wait())
			close(ids)

			unique := map[item.ID]struct{}{}
			for id := range ids {
				unique[id] = struct{}{}
			}

			assert.Len(t, unique, creates)
		})

		t.Run("ids are not reused after delete", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			first, _ := items.Create(ctx, testdata.CreateItem())
			second, _ := items.Create(ctx, testdata.CreateItem())
			_ = items.Delete(ctx, second.ID)
			third, err := items.Create(ctx, testdata.CreateItem())

			assert.NoError(t, err)
			assert.NotEqual(t, first.ID, third.ID)
			assert.NotEqual(t, second.ID, third.ID)
		})
	})

	t.Run("Find", func(t *testing.T) {
		t.Parallel()

		t.Run("round trip", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 2)

			for _, payload := range []item.CreateItem{
				testdata.CreateItem(),
				testdata.CreateItem(ids[0]),
				testdata.CreateItem(ids[1], ids[0]),
			} {
				created, err := items.Create(ctx, payload)
				require.NoError(t, err)

				found, err := items.Find(ctx, created.ID)
				assert.NoError(t, err)
				assert.Equal(t, created, found)
			}
		})

		t.Run("not found", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			_, err := items.Find(ctx, unknownID)
			assert.ErrorIs(t, err, item.ErrNotFound)
			assert.NotErrorIs(t, err, item.ErrUnexpected)
		})
	})

	t.Run("All", func(t *testing.T) {
		t.Parallel()

		t.Run("empty", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			all, err := items.All(ctx)
			assert.NoError(t, err)
			assert.Empty(t, all)
		})

		t.Run("hydrated items", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 2)

			i0, _ := items.Create(ctx, testdata.CreateItem())
			i1, _ := items.Create(ctx, testdata.CreateItem(ids...))
			i2, _ := items.Create(ctx, testdata.CreateItem(ids[1]))

			all, err := items.All(ctx)
			assert.NoError(t, err)
			assert.ElementsMatch(t, []item.Item{i0, i1, i2}, all)
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Parallel()

		t.Run("partial update preserves untouched fields", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 1)
			created, _ := items.Create(ctx, testdata.CreateItem(ids...))

			updated, err := items.Update(ctx, created.ID, item.NewUpdate().WithCompleted(true))
			assert.NoError(t, err)
			assert.Equal(t, created.Text, updated.Text)
			assert.True(t, updated.Completed)
			assert.Equal(t, created.Labels, updated.Labels)

			text := testdata.Text()
			updated, err = items.Update(ctx, created.ID, item.NewUpdate().WithText(text))
			assert.NoError(t, err)
			assert.Equal(t, text, updated.Text)
			assert.True(t, updated.Completed)
		})

		t.Run("empty update", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)
			created, _ := items.Create(ctx, testdata.CreateItem())

			updated, err := items.Update(ctx, created.ID, item.NewUpdate())
			assert.NoError(t, err)
			assert.Equal(t, created, updated)
		})

		t.Run("replace labels", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 3)
			created, _ := items.Create(ctx, testdata.CreateItem(ids[0], ids[1]))

			updated, err := items.Update(ctx, created.ID, item.NewUpdate().WithLabels(ids[2], ids[1]))
			assert.NoError(t, err)
			assert.Equal(t, []item.LabelID{ids[1], ids[2]}, updated.LabelIDs())

			found, _ := items.Find(ctx, created.ID)
			assert.Equal(t, updated, found)
		})

		t.Run("clearing labels is idempotent", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 2)
			created, _ := items.Create(ctx, testdata.CreateItem(ids...))

			for range 2 {
				updated, err := items.Update(ctx, created.ID, item.NewUpdate().WithLabels())
				assert.NoError(t, err)
				assert.NotNil(t, updated.Labels)
				assert.Empty(t, updated.Labels)
			}
		})

		t.Run("unknown label", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 1)
			created, _ := items.Create(ctx, testdata.CreateItem(ids...))

			_, err := items.Update(ctx, created.ID,
				item.NewUpdate().WithText(testdata.Text()).WithLabels(ids[0]+1000),
			)
			assert.ErrorIs(t, err, item.ErrInvalidLabel)

			found, _ := items.Find(ctx, created.ID)
			assert.Equal(t, created, found, "nothing is written")
		})

		t.Run("not found", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			_, err := items.Update(ctx, unknownID, item.NewUpdate().WithCompleted(true))
			assert.ErrorIs(t, err, item.ErrNotFound)
			assert.NotErrorIs(t, err, item.ErrUnexpected)

			_, err = items.Update(ctx, unknownID, item.NewUpdate().WithLabels())
			assert.ErrorIs(t, err, item.ErrNotFound)
		})

		t.Run("concurrent updates", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 1)
			created, _ := items.Create(ctx, testdata.CreateItem())

			g := errgroup.Group{}
			for i := range 20 {
				g.Go(func() error {
					var err error
					if i%2 == 0 {
						_, err = items.Update(ctx, created.ID, item.NewUpdate().WithCompleted(true))
					} else {
						_, err = items.Update(ctx, created.ID, item.NewUpdate().WithLabels(ids...))
					}

					return err
				})
			}

			assert.NoError(t, g.Wait())

			found, _ := items.Find(ctx, created.ID)
			assert.True(t, found.Completed, "no update is lost")
			assert.Equal(t, ids, found.LabelIDs(), "no update is lost")
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		t.Run("delete cascades associations", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 2)
			deleted, _ := items.Create(ctx, testdata.CreateItem(ids...))
			kept, _ := items.Create(ctx, testdata.CreateItem(ids[0]))

			err := items.Delete(ctx, deleted.ID)
			assert.NoError(t, err)

			_, err = items.Find(ctx, deleted.ID)
			assert.ErrorIs(t, err, item.ErrNotFound)

			all, _ := items.All(ctx)
			assert.Equal(t, []item.Item{kept}, all)

			allLabels, _ := labels.All(ctx)
			assert.Len(t, allLabels, 2, "labels are not deleted")
		})

		t.Run("not found", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)

			err := items.Delete(ctx, unknownID)
			assert.ErrorIs(t, err, item.ErrNotFound)
			assert.NotErrorIs(t, err, item.ErrUnexpected)
		})

		t.Run("delete twice", func(t *testing.T) {
			t.Parallel()

			items, _ := newRepos(t)
			created, _ := items.Create(ctx, testdata.CreateItem())

			assert.NoError(t, items.Delete(ctx, created.ID))
			assert.ErrorIs(t, items.Delete(ctx, created.ID), item.ErrNotFound)
		})
	})

	t.Run("Labels", func(t *testing.T) {
		t.Parallel()

		t.Run("create and list", func(t *testing.T) {
			t.Parallel()

			_, labels := newRepos(t)

			all, err := labels.All(ctx)
			assert.NoError(t, err)
			assert.Empty(t, all)

			payload := testdata.CreateLabel()
			l0, err := labels.Create(ctx, payload)
			assert.NoError(t, err)
			assert.NotEmpty(t, l0.ID)
			assert.Equal(t, payload.Name, l0.Name)

			l1, err := labels.Create(ctx, testdata.CreateLabel())
			assert.NoError(t, err)
			assert.NotEqual(t, l0.ID, l1.ID)

			all, err = labels.All(ctx)
			assert.NoError(t, err)
			assert.Equal(t, []item.Label{l0, l1}, all)
		})

		t.Run("delete removes label from items", func(t *testing.T) {
			t.Parallel()

			items, labels := newRepos(t)
			ids := newLabels(t, labels, 2)
			created, _ := items.Create(ctx, testdata.CreateItem(ids...))

			err := labels.Delete(ctx, ids[0])
			assert.NoError(t, err)

			found, _ := items.Find(ctx, created.ID)
			assert.Equal(t, []item.LabelID{ids[1]}, found.LabelIDs())

			all, _ := labels.All(ctx)
			assert.Len(t, all, 1)
		})

		t.Run("delete unknown label", func(t *testing.T) {
			t.Parallel()

			_, labels := newRepos(t)

			err := labels.Delete(ctx, item.LabelID(unknownID))
			assert.ErrorIs(t, err, item.ErrNotFound)
		})
	})
}
