package store

import (
	"fmt"

	"attendance-bot/config"
	"attendance-bot/internal/db"
)

// NewBackend builds the backend selected by cfg.Ledger.Backend.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.Ledger.Backend {
	case "csv", "":
		return NewCSVBackend(cfg.Ledger.Path), nil
	case "xlsx":
		return NewXLSXBackend(cfg.Ledger.Path), nil
	case "sql":
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(gormDB), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
