// Package backend selects and constructs a storage backend from config.
package backend

import (
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
)

// Backend is the unified storage surface the services are written against.
type Backend interface {
	storage.CategoryStore
	storage.TransactionStore
	storage.RecurringStore
	storage.UserLister
}

// CleanupFunc releases backend resources; it may be nil.
type CleanupFunc func() error

type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// New creates the backend named by the config.
func New(cfg *config.Config, logger *slog.Logger) (Backend, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch Type(cfg.DataBackend) {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	case Memory:
		store := memory.NewWithDefaults()
		logger.Info("Initialized memory backend")
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
}
