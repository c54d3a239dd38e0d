package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/go-arrower/todo/item"
)

const defaultSnapshotFile = "todo.json"

// Option configures the in-memory repositories.
type Option func(*repoConfig)

type repoConfig struct {
	store    Store
	filename string
}

// WithStore sets a Store used to persist the in-memory repositories.
// After every change a snapshot of all items and labels is written.
// If writing fails, the change is rolled back and item.ErrUnexpected is returned.
func WithStore(store Store) Option {
	return func(config *repoConfig) {
		config.store = store
	}
}

// WithStoreFilename overwrites the file name a Store uses for the snapshot.
func WithStoreFilename(name string) Option {
	return func(config *repoConfig) {
		config.filename = name
	}
}

// NewMemoryRepositories returns the in-memory implementations of
// item.Repository and item.LabelRepository, sharing the same data.
// If a Store is given, the last snapshot is loaded from it.
//
// Ids are assigned by counters and are never reused, not even after a delete.
func NewMemoryRepositories(opts ...Option) (*MemoryItemRepository, *MemoryLabelRepository, error) {
	config := repoConfig{
		store:    noopStore{},
		filename: defaultSnapshotFile,
	}

	for _, opt := range opts {
		opt(&config)
	}

	store := &memoryStore{
		mu:         sync.RWMutex{},
		data:       newSnapshot(),
		repoConfig: config,
	}

	err := store.store.Load(store.filename, &store.data)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %v", item.ErrUnexpected, err) //nolint:errorlint // prevent err in api
	}

	store.data.init()

	return &MemoryItemRepository{store: store}, &MemoryLabelRepository{store: store}, nil
}

// snapshot is all data of the in-memory repositories.
// It is what gets persisted by a Store.
type snapshot struct {
	Items       map[item.ID]storedItem      `json:"items"`
	Labels      map[item.LabelID]item.Label `json:"labels"`
	LastItemID  item.ID                     `json:"lastItemID"`
	LastLabelID item.LabelID                `json:"lastLabelID"`
}

// storedItem references its labels by id only,
// the labels are resolved when an item is read.
type storedItem struct {
	ID        item.ID        `json:"id"`
	Text      string         `json:"text"`
	Completed bool           `json:"completed"`
	LabelIDs  []item.LabelID `json:"labelIDs"`
}

func newSnapshot() snapshot {
	s := snapshot{}
	s.init()

	return s
}

// init ensures the maps exist, e.g. after an empty snapshot got loaded.
func (s *snapshot) init() {
	if s.Items == nil {
		s.Items = map[item.ID]storedItem{}
	}

	if s.Labels == nil {
		s.Labels = map[item.LabelID]item.Label{}
	}
}

func (s *snapshot) clone() snapshot {
	return snapshot{
		Items:       maps.Clone(s.Items),
		Labels:      maps.Clone(s.Labels),
		LastItemID:  s.LastItemID,
		LastLabelID: s.LastLabelID,
	}
}

// memoryStore guards the data of both in-memory repositories with one lock,
// so a reader never observes an item referencing a label that does not exist.
type memoryStore struct {
	mu   sync.RWMutex
	data snapshot

	repoConfig
}

func (s *memoryStore) read(fn func(data *snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(&s.data)
}

// write runs fn as one critical section.
// If fn fails or the snapshot cannot be persisted, all changes of fn are discarded.
func (s *memoryStore) write(fn func(data *snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.data.clone()

	if err := fn(&s.data); err != nil {
		s.data = backup
		return err
	}

	if err := s.store.Store(s.filename, s.data); err != nil {
		s.data = backup
		return fmt.Errorf("%w: %v", item.ErrUnexpected, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// hydrate resolves the labels of the stored item.
// The caller has to hold the lock.
func (s *snapshot) hydrate(stored storedItem) item.Item {
	labels := make([]item.Label, 0, len(stored.LabelIDs))

	for _, id := range stored.LabelIDs {
		if l, ok := s.Labels[id]; ok {
			labels = append(labels, l)
		}
	}

	return item.Item{
		ID:        stored.ID,
		Text:      stored.Text,
		Completed: stored.Completed,
		Labels:    labels,
	}
}

// labelIDs returns the set of ids sorted ascending.
// It fails with item.ErrInvalidLabel, if one of the labels does not exist.
func (s *snapshot) labelIDs(ids []item.LabelID) ([]item.LabelID, error) {
	ids = item.UniqueLabelIDs(ids)

	for _, id := range ids {
		if _, ok := s.Labels[id]; !ok {
			return nil, fmt.Errorf("%w: label %d does not exist", item.ErrInvalidLabel, id)
		}
	}

	slices.Sort(ids)

	return ids, nil
}

var _ item.Repository = (*MemoryItemRepository)(nil)

// MemoryItemRepository implements item.Repository without a database.
// Use it for unit testing and for lightweight deployments.
type MemoryItemRepository struct {
	store *memoryStore
}

func (repo *MemoryItemRepository) Create(_ context.Context, payload item.CreateItem) (item.Item, error) {
	var created item.Item

	err := repo.store.write(func(data *snapshot) error {
		labelIDs, err := data.labelIDs(payload.LabelIDs)
		if err != nil {
			return err
		}

		data.LastItemID++

		stored := storedItem{
			ID:        data.LastItemID,
			Text:      payload.Text,
			Completed: false,
			LabelIDs:  labelIDs,
		}
		data.Items[stored.ID] = stored

		created = data.hydrate(stored)

		return nil
	})
	if err != nil {
		return item.Item{}, err
	}

	return created, nil
}

func (repo *MemoryItemRepository) Find(_ context.Context, id item.ID) (item.Item, error) {
	var (
		found item.Item
		ok    bool
	)

	repo.store.read(func(data *snapshot) {
		var stored storedItem
		if stored, ok = data.Items[id]; ok {
			found = data.hydrate(stored)
		}
	})

	if !ok {
		return item.Item{}, fmt.Errorf("%w: item %d", item.ErrNotFound, id)
	}

	return found, nil
}

// All returns all items ordered by ascending id.
func (repo *MemoryItemRepository) All(_ context.Context) ([]item.Item, error) {
	var all []item.Item

	repo.store.read(func(data *snapshot) {
		all = make([]item.Item, 0, len(data.Items))

		for _, id := range slices.Sorted(maps.Keys(data.Items)) {
			all = append(all, data.hydrate(data.Items[id]))
		}
	})

	return all, nil
}

func (repo *MemoryItemRepository) Update(_ context.Context, id item.ID, payload item.UpdateItem) (item.Item, error) {
	var updated item.Item

	err := repo.store.write(func(data *snapshot) error {
		stored, ok := data.Items[id]
		if !ok {
			return fmt.Errorf("%w: item %d", item.ErrNotFound, id)
		}

		if payload.Text != nil {
			stored.Text = *payload.Text
		}

		if payload.Completed != nil {
			stored.Completed = *payload.Completed
		}

		if payload.LabelIDs != nil {
			labelIDs, err := data.labelIDs(*payload.LabelIDs)
			if err != nil {
				return err
			}

			stored.LabelIDs = labelIDs
		}

		data.Items[id] = stored
		updated = data.hydrate(stored)

		return nil
	})
	if err != nil {
		return item.Item{}, err
	}

	return updated, nil
}

func (repo *MemoryItemRepository) Delete(_ context.Context, id item.ID) error {
	return repo.store.write(func(data *snapshot) error {
		if _, ok := data.Items[id]; !ok {
			return fmt.Errorf("%w: item %d", item.ErrNotFound, id)
		}

		delete(data.Items, id)

		return nil
	})
}

var _ item.LabelRepository = (*MemoryLabelRepository)(nil)

// MemoryLabelRepository implements item.LabelRepository without a database.
type MemoryLabelRepository struct {
	store *memoryStore
}

func (repo *MemoryLabelRepository) Create(_ context.Context, payload item.CreateLabel) (item.Label, error) {
	var created item.Label

	err := repo.store.write(func(data *snapshot) error {
		data.LastLabelID++

		created = item.Label{ID: data.LastLabelID, Name: payload.Name}
		data.Labels[created.ID] = created

		return nil
	})
	if err != nil {
		return item.Label{}, err
	}

	return created, nil
}

// All returns all labels ordered by ascending id.
func (repo *MemoryLabelRepository) All(_ context.Context) ([]item.Label, error) {
	var all []item.Label

	repo.store.read(func(data *snapshot) {
		all = make([]item.Label, 0, len(data.Labels))

		for _, id := range slices.Sorted(maps.Keys(data.Labels)) {
			all = append(all, data.Labels[id])
		}
	})

	return all, nil
}

// Delete removes the label and its association to all items.
func (repo *MemoryLabelRepository) Delete(_ context.Context, id item.LabelID) error {
	return repo.store.write(func(data *snapshot) error {
		if _, ok := data.Labels[id]; !ok {
			return fmt.Errorf("%w: label %d", item.ErrNotFound, id)
		}

		delete(data.Labels, id)

		for itemID, stored := range data.Items {
			if !slices.Contains(stored.LabelIDs, id) {
				continue
			}

			stored.LabelIDs = slices.DeleteFunc(slices.Clone(stored.LabelIDs), func(l item.LabelID) bool { return l == id })
			data.Items[itemID] = stored
		}

		return nil
	})
}
