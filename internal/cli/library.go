package cli

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/mrlokans/readtrack/internal/config"
	"github.com/mrlokans/readtrack/internal/library"
	"github.com/mrlokans/readtrack/internal/storage"
)

// StoreFlags selects the durable store a command works against.
type StoreFlags struct {
	DatabasePath string
	Engine       string
	BadgerDir    string
}

func (f *StoreFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.DatabasePath, "db", config.DefaultDatabasePath, "Path to the SQLite library database")
	fs.StringVar(&f.Engine, "engine", config.StorageSQLite, "Storage engine: sqlite or badger")
	fs.StringVar(&f.BadgerDir, "badger-dir", config.DefaultBadgerDir, "Directory of the badger store (engine=badger)")
}

// openLibrary opens the store and hydrates a repository over it. The
// returned close func flushes pending writes before closing the store.
func (f *StoreFlags) openLibrary(ctx context.Context) (*library.Repository, func(), error) {
	dbPath, err := filepath.Abs(f.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	store, err := storage.Open(f.Engine, dbPath, f.BadgerDir)
	if err != nil {
		return nil, nil, err
	}

	repo := library.New(store, library.Options{})
	if err := repo.Hydrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load library: %w", err)
	}

	closeFn := func() {
		if err := repo.Close(context.Background()); err != nil {
			fmt.Printf("[WARN] Failed to flush library: %v\n", err)
		}
		store.Close()
	}
	return repo, closeFn, nil
}
