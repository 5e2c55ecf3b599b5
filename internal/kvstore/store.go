// Package kvstore is a badger-backed persistence adapter for the book
// library. Each collection lives under its own key namespace:
//
//	book:<id>                   book fields and list position
//	bookmark:<bookID>:<pos>     one bookmark
//	annotation:<bookID>:<pos>   one review, quote or note
//	session:<bookID>:<pos>      one reading session
//	setting:<key>               application setting
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/mrlokans/readtrack/internal/entities"
)

const (
	prefixBook       = "book:"
	prefixBookmark   = "bookmark:"
	prefixAnnotation = "annotation:"
	prefixSession    = "session:"
	prefixSetting    = "setting:"

	keySchema     = "meta:schema"
	schemaVersion = "1"
)

var graphPrefixes = []string{prefixSession, prefixAnnotation, prefixBookmark, prefixBook}

// Store wraps a Badger database instance.
type Store struct {
	db   *badger.DB
	path string

	mu          sync.Mutex
	initialized bool
}

// New opens (or creates) a badger database in the directory at path.
func New(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, path)
}

// NewInMemory opens a store that keeps everything in memory.
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, ":memory:")
}

func open(opts badger.Options, path string) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Init records the schema version on first use. Repeated calls are no-ops.
func (s *Store) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keySchema))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(keySchema), []byte(schemaVersion))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to initialize badger store: %w", err)
	}

	s.initialized = true
	log.Printf("[STORE] Badger store initialized at %s", s.path)
	return nil
}

// Load reads the full book graph.
func (s *Store) Load(ctx context.Context) ([]entities.Book, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	var (
		records     []bookRecord
		bookmarks   = map[string][]entities.Bookmark{}
		annotations = map[string][]entities.Annotation{}
		sessions    = map[string][]entities.ReadingSession{}
	)

	err := s.db.View(func(txn *badger.Txn) error {
		if err := scan(txn, prefixBook, func(_ []byte, val []byte) error {
			var rec bookRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode book: %w", err)
			}
			records = append(records, rec)
			return nil
		}); err != nil {
			return err
		}
		if err := scan(txn, prefixBookmark, func(_ []byte, val []byte) error {
			var rec childRecord[entities.Bookmark]
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode bookmark: %w", err)
			}
			bookmarks[rec.BookID] = append(bookmarks[rec.BookID], rec.Item)
			return nil
		}); err != nil {
			return err
		}
		if err := scan(txn, prefixAnnotation, func(_ []byte, val []byte) error {
			var rec childRecord[entities.Annotation]
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode annotation: %w", err)
			}
			annotations[rec.BookID] = append(annotations[rec.BookID], rec.Item)
			return nil
		}); err != nil {
			return err
		}
		return scan(txn, prefixSession, func(_ []byte, val []byte) error {
			var rec childRecord[entities.ReadingSession]
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode reading session: %w", err)
			}
			sessions[rec.BookID] = append(sessions[rec.BookID], rec.Item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	books := make([]entities.Book, 0, len(records))
	for _, rec := range records {
		b := rec.Book
		b.Bookmarks = bookmarks[b.ID]
		for _, a := range annotations[b.ID] {
			b.SetAnnotations(a.Kind, append(b.Annotations(a.Kind), a))
		}
		b.ReadingSessions = sessions[b.ID]
		b.Normalize()
		books = append(books, b)
	}
	return books, nil
}

// SaveAll replaces the stored graph inside a single badger transaction.
func (s *Store) SaveAll(ctx context.Context, books []entities.Book) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	entries, err := encodeGraph(books)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range graphPrefixes {
			keys, err := collectKeys(txn, prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
			}
		}
		for _, e := range entries {
			if err := txn.Set(e.key, e.value); err != nil {
				return fmt.Errorf("set %s: %w", e.key, err)
			}
		}
		return nil
	})
}

// GetSetting returns the value stored under key; ok is false when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if err := s.Init(ctx); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSetting + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixSetting+key), []byte(value))
	})
}

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scan(txn *badger.Txn, prefix string, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := item.Key()
		if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
			return err
		}
	}
	return nil
}

func collectKeys(txn *badger.Txn, prefix string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
