package repository

import "errors"

var (
	ErrStore = errors.New("could not store snapshot")
	ErrLoad  = errors.New("could not load snapshot")
)

// Store persists a snapshot of the in-memory repositories as a whole.
// Load returns an error wrapping os.ErrNotExist, if no snapshot has been stored yet.
type Store interface {
	Store(fileName string, data any) error
	Load(fileName string, data any) error
}

var _ Store = (*noopStore)(nil)

// noopStore keeps the data in memory only.
type noopStore struct{}

func (noopStore) Store(_ string, _ any) error { return nil }
func (noopStore) Load(_ string, _ any) error  { return nil }
