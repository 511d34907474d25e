package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pfm/internal/core"
)

const (
	listSQL = `SELECT id, date, type, category, amount, notes FROM transactions ORDER BY rowid`

	insertSQL = `INSERT INTO transactions (id, date, type, category, amount, notes) VALUES (?, ?, ?, ?, ?, ?)`

	deleteSQL = `DELETE FROM transactions WHERE id = ?`

	upsertSQL = `INSERT INTO transactions (id, date, type, category, amount, notes) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    type = excluded.type,
    category = excluded.category,
    amount = excluded.amount,
    notes = excluded.notes`
)

//go:embed migrations/*.sql
var schema embed.FS

// Store persists transactions in a single SQLite table.
type Store struct {
	db *sql.DB
}

// Open creates the database directory if needed, migrates and connects.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := upgradeSchema(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", core.ErrStoreUnavailable, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// upgradeSchema applies the embedded migrations through migrate's own
// sqlite driver, which opens and closes its connection from the URL.
func upgradeSchema(dbPath string) error {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return fmt.Errorf("prepare migrations for %s: %w", dbPath, err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("upgrade schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var id, date, typ, category, amount, notes string
		if err := rows.Scan(&id, &date, &typ, &category, &amount, &notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, &core.DateError{Row: id, Value: date, Err: err}
		}
		out = append(out, core.Transaction{
			ID:       id,
			Date:     d,
			Type:     core.TxType(typ),
			Category: category,
			Amount:   core.CoerceAmount(amount),
			Notes:    notes,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, n core.NewTransaction) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	t := n.WithID(uuid.NewString())
	if _, err := s.db.ExecContext(ctx, insertSQL, args(t)...); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return t.ID, nil
}

// InsertBulk writes every row in one database transaction.
func (s *Store) InsertBulk(ctx context.Context, ns []core.NewTransaction) error {
	for i, n := range ns {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range ns {
		if _, err := stmt.ExecContext(ctx, args(n.WithID(uuid.NewString()))...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return &core.NotFoundError{ID: id}
	}
	return nil
}

func (s *Store) Put(ctx context.Context, t core.Transaction) error {
	if t.ID == "" {
		return &core.ValidationError{Field: "id", Err: errors.New("id is required")}
	}
	if err := t.Payload().Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, args(t)...); err != nil {
		return fmt.Errorf("put transaction %s: %w", t.ID, err)
	}
	return nil
}

func args(t core.Transaction) []any {
	return []any{t.ID, t.Date.String(), string(t.Type), t.Category, t.Amount.String(), t.Notes}
}
