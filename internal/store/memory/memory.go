package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"

	"pfm/internal/core"
	"pfm/internal/export"
)

// Store keeps transactions in insertion order behind a mutex.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New(seed ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

// NewFromFile seeds the store from a CSV export. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	txs, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return New(txs...), nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) Insert(_ context.Context, n core.NewTransaction) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n.WithID(id))
	return id, nil
}

// InsertBulk validates every row before appending any of them.
func (s *Store) InsertBulk(_ context.Context, ns []core.NewTransaction) error {
	rows := make([]core.Transaction, 0, len(ns))
	for i, n := range ns {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, n.WithID(uuid.NewString()))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rows...)
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{ID: id}
}

// Put inserts t under its own id, replacing any row with the same id.
func (s *Store) Put(_ context.Context, t core.Transaction) error {
	if t.ID == "" {
		return &core.ValidationError{Field: "id", Err: errors.New("id is required")}
	}
	if err := t.Payload().Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == t.ID {
			s.items[i] = t
			return nil
		}
	}
	s.items = append(s.items, t)
	return nil
}
