package database

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readtrack/internal/database/settings"
	"github.com/mrlokans/readtrack/internal/entities"
)

const insertBatchSize = 200

// Database is the SQLite persistence adapter. The full book graph is written
// with SaveAll as one transaction and read back with Load.
type Database struct {
	DB       *gorm.DB
	path     string
	settings *settings.Repository

	mu          sync.Mutex
	initialized bool
}

// NewDatabase opens the SQLite file at dbPath. The schema is created lazily
// by Init.
func NewDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Warn)
}

func newDatabase(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	// SQLite allows a single writer; one connection avoids "database is locked".
	sqlDB.SetMaxOpenConns(1)

	return &Database{
		DB:       db,
		path:     dbPath,
		settings: settings.NewRepository(db),
	}, nil
}

// Init creates tables if they are missing. It is safe to call repeatedly and
// from several goroutines; only the first successful call migrates.
func (d *Database) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	err := d.DB.WithContext(ctx).AutoMigrate(
		&bookRow{},
		&bookmarkRow{},
		&annotationRow{},
		&sessionRow{},
		&entities.Setting{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	d.initialized = true
	log.Printf("[STORE] SQLite store initialized at %s", d.path)
	return nil
}

// Load returns every book with its nested collections in stored order.
func (d *Database) Load(ctx context.Context) ([]entities.Book, error) {
	if err := d.Init(ctx); err != nil {
		return nil, err
	}

	db := d.DB.WithContext(ctx)
	var rs rowSet
	if err := db.Order("position ASC").Find(&rs.books).Error; err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	if err := db.Order("book_id, position ASC").Find(&rs.bookmarks).Error; err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	if err := db.Order("book_id, kind, position ASC").Find(&rs.annotations).Error; err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	if err := db.Order("book_id, position ASC").Find(&rs.sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load reading sessions: %w", err)
	}

	return assemble(rs), nil
}

// SaveAll replaces the stored graph with books. Rows are deleted and
// re-inserted inside one transaction, so a failure leaves the previous state.
func (d *Database) SaveAll(ctx context.Context, books []entities.Book) error {
	if err := d.Init(ctx); err != nil {
		return err
	}

	rs := flatten(books)
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&sessionRow{}, &annotationRow{}, &bookmarkRow{}, &bookRow{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		if len(rs.books) > 0 {
			if err := tx.CreateInBatches(rs.books, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert books: %w", err)
			}
		}
		if len(rs.bookmarks) > 0 {
			if err := tx.CreateInBatches(rs.bookmarks, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert bookmarks: %w", err)
			}
		}
		if len(rs.annotations) > 0 {
			if err := tx.CreateInBatches(rs.annotations, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert annotations: %w", err)
			}
		}
		if len(rs.sessions) > 0 {
			if err := tx.CreateInBatches(rs.sessions, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert reading sessions: %w", err)
			}
		}
		return nil
	})
}

// GetSetting returns the value stored under key; ok is false when unset.
func (d *Database) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if err := d.Init(ctx); err != nil {
		return "", false, err
	}
	return d.settings.Get(ctx, key)
}

func (d *Database) SetSetting(ctx context.Context, key, value string) error {
	if err := d.Init(ctx); err != nil {
		return err
	}
	return d.settings.Set(ctx, key, value)
}

// Ping checks the underlying SQLite connection.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
