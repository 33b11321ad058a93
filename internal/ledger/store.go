package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a single key-value slot holding the serialized booking ledger.
// Implementations do whole-value read-modify-write; there is no partial
// update and no cross-process locking.
type Store interface {
	// Load returns the raw payload and whether the slot exists at all.
	Load(ctx context.Context) ([]byte, bool, error)
	// Save replaces the slot's payload.
	Save(ctx context.Context, payload []byte) error
}

// FileStore keeps the ledger in one JSON file on local disk, the direct
// analog of the widget's original browser-local storage slot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) ([]byte, bool, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *FileStore) Save(_ context.Context, payload []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("ledger save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger save: %w", err)
	}
	// Rename so readers never observe a half-written ledger.
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("ledger save: %w", err)
	}
	return nil
}

// MemStore is an in-memory slot for tests.
type MemStore struct {
	payload []byte
	exists  bool
	saveErr error
}

func NewMemStore() *MemStore { return &MemStore{} }

// NewMemStoreWith seeds the slot with an existing payload.
func NewMemStoreWith(payload []byte) *MemStore {
	return &MemStore{payload: payload, exists: true}
}

// FailSavesWith makes every subsequent Save return err.
func (s *MemStore) FailSavesWith(err error) { s.saveErr = err }

func (s *MemStore) Load(_ context.Context) ([]byte, bool, error) {
	if !s.exists {
		return nil, false, nil
	}
	return s.payload, true, nil
}

func (s *MemStore) Save(_ context.Context, payload []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.payload = append([]byte(nil), payload...)
	s.exists = true
	return nil
}
