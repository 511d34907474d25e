package backend

import (
	"errors"
	"fmt"

	"pfm/internal/config"
)

// Config holds only what the factory needs to build a store.
type Config struct {
	Type Type

	SQLiteDBPath string
	SeedFile     string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig narrows the application config to backend config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(app.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", app.DataBackend)
	}
	return Config{
		Type:                     t,
		SQLiteDBPath:             app.SQLiteDBPath,
		SeedFile:                 app.SeedFile(),
		GoogleSpreadsheetID:      app.GoogleSpreadsheetID,
		GoogleSheetName:          app.GoogleSheetName,
		GoogleServiceAccountJSON: app.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: app.GoogleServiceAccountFile,
	}, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite database path is required for sqlite backend")
		}
	case Sheets:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("spreadsheet id is required for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("service account JSON or file is required for sheets backend")
		}
	case Memory:
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}
