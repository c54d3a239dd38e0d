package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*JSONStore)(nil)

// JSONStore persists snapshots as human-readable JSON files in one directory.
// A snapshot is written to a temporary file first and then renamed,
// so a crash never leaves a half written snapshot behind.
// CAUTION: This is only intended for local development and prototyping.
type JSONStore struct {
	dir string

	mu sync.Mutex
}

// NewJSONStore returns a JSONStore writing into dir.
// The directory is created, if it does not exist.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // rwx for owner, rx for group
		return nil, fmt.Errorf("%w: could not create dir %s: %v", ErrStore, dir, err) //nolint:errorlint // prevent err in api
	}

	return &JSONStore{dir: dir, mu: sync.Mutex{}}, nil
}

func (s *JSONStore) Store(fileName string, data any) error {
	if data == nil {
		return nil
	}

	b, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := filepath.Join(s.dir, "."+fileName+"-"+uuid.New().String())

	if err := os.WriteFile(tmp, b, 0o600); err != nil { //nolint:mnd // rw for owner
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}

	if err := os.Rename(tmp, filepath.Join(s.dir, fileName)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

func (s *JSONStore) Load(fileName string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, fileName))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrLoad, err) //nolint:errorlint // prevent err in api
	}

	return nil
}
