package backend

import (
	"context"
	"fmt"

	"pfm/internal/log"
	"pfm/internal/store/google"
	"pfm/internal/store/memory"
	"pfm/internal/store/sqlite"
)

// DefaultFactory builds the three built-in stores.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case SQLite:
		return f.createSQLite(cfg)
	case Sheets:
		return f.createSheets(ctx, cfg)
	case Memory:
		return f.createMemory(cfg)
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}

func (f *DefaultFactory) createSQLite(cfg Config) (*Result, error) {
	st, err := sqlite.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: st, Type: SQLite, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	if err := cli.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("prepare sheet: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", cfg.GoogleSheetName)
	return &Result{Store: cli, Type: Sheets}, nil
}

func (f *DefaultFactory) createMemory(cfg Config) (*Result, error) {
	if cfg.SeedFile == "" {
		f.logger.Info("Initialized memory backend without seed")
		return &Result{Store: memory.New(), Type: Memory}, nil
	}
	st, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
	return &Result{Store: st, Type: Memory}, nil
}
