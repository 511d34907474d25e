package backend

import (
	"context"

	"pfm/internal/store"
)

// CleanupFunc releases whatever the backend holds open.
type CleanupFunc func() error

// Result is the store a factory built plus its cleanup, which may be nil.
type Result struct {
	Store   store.TransactionStore
	Type    Type
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores based on configuration.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

// Type names a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Sheets Type = "sheets"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Sheets, Memory:
		return true
	default:
		return false
	}
}

// Types returns every valid backend type.
func Types() []Type {
	return []Type{Memory, SQLite, Sheets}
}
