package store

import (
	"context"

	"pfm/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionStore is the only persistence surface the ledger needs.
	// List returns one consistent snapshot of every stored transaction.
	TransactionStore interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Insert(ctx context.Context, t core.NewTransaction) (id string, err error)
		// InsertBulk writes all rows or reports why it could not.
		InsertBulk(ctx context.Context, ts []core.NewTransaction) error
		// DeleteByID returns an error matching core.ErrNotFound when id is absent.
		DeleteByID(ctx context.Context, id string) error
	}

	// Importer writes a transaction under an id chosen elsewhere. Used to
	// keep a secondary store in step with the primary one.
	Importer interface {
		Put(ctx context.Context, t core.Transaction) error
	}

	Replica interface {
		TransactionStore
		Importer
	}
)
