package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/config"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/fatali-fataliyev/bank_ledger/internal/storage"
	"github.com/fatali-fataliyev/bank_ledger/logging"
)

// Store is everything the server needs from a storage backend.
type Store interface {
	auth.CredentialStore
	ledger.Storage
	Ping(ctx context.Context) error
}

// openSQL connects and makes sure the base schema exists.
func openSQL(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := storage.Init(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := storage.CreateBaseSchema(ctx, db, cfg.Driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	if cfg.App.Storage == config.StorageInMemory {
		logging.Logger.Warn("using in-memory storage, data is lost on restart")
		return storage.NewInMemoryStorage(), func() {}, nil
	}

	db, err := openSQL(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLStorage(db, cfg.Database.Driver)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
