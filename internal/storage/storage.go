// Package storage opens the durable store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/readtrack/internal/config"
	"github.com/mrlokans/readtrack/internal/database"
	"github.com/mrlokans/readtrack/internal/kvstore"
	"github.com/mrlokans/readtrack/internal/library"
)

// Store is a durable library store that can report its own reachability.
type Store interface {
	library.Store
	library.SettingsStore
	Ping(ctx context.Context) error
}

// Open returns the store for engine. sqlitePath is used by the sqlite
// engine and badgerDir by the badger engine.
func Open(engine, sqlitePath, badgerDir string) (Store, error) {
	switch engine {
	case "", config.StorageSQLite:
		if err := ensureDir(filepath.Dir(sqlitePath)); err != nil {
			return nil, err
		}
		log.Printf("[STORE] Opening sqlite store at %s", sqlitePath)
		db, err := database.NewDatabase(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return db, nil
	case config.StorageBadger:
		if err := ensureDir(badgerDir); err != nil {
			return nil, err
		}
		log.Printf("[STORE] Opening badger store at %s", badgerDir)
		kv, err := kvstore.New(badgerDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return kv, nil
	}
	return nil, fmt.Errorf("unknown storage engine %q", engine)
}

// OpenConfig opens the store described by cfg.
func OpenConfig(cfg config.Database) (Store, error) {
	return Open(cfg.Engine, cfg.Path, cfg.BadgerDir)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return nil
}
