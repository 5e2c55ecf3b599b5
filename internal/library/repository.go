// Package library holds the in-memory book repository. Every mutation is
// applied to the cache first and then written to the durable store in the
// background; reads never touch the store.
package library

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/validation"
)

// Store is the durable side of the repository.
type Store interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) ([]entities.Book, error)
	SaveAll(ctx context.Context, books []entities.Book) error
	Close() error
}

// SettingsStore is implemented by stores that can also keep small
// key/value settings such as the reading goal.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Auditor receives a snapshot of the cache when a durable write fails.
type Auditor interface {
	Dump(reason string, books []entities.Book) (string, error)
}

type Options struct {
	// Now returns the current time. Defaults to time.Now in UTC.
	Now func() time.Time
	// Seed replaces the cache when hydration fails, and when the store is
	// empty if SeedOnEmpty is set.
	Seed        []entities.Book
	SeedOnEmpty bool
	Auditor     Auditor
}

// Repository is the authoritative in-process view of all books.
type Repository struct {
	store     Store
	validator *validation.Validator
	now       func() time.Time
	auditor   Auditor
	seed      []entities.Book
	seedEmpty bool

	mu      sync.RWMutex
	books   map[string]entities.Book
	order   []string
	version uint64
	goal    *entities.ReadingGoal

	events events
	writer *writer
}

func New(store Store, opts Options) *Repository {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	r := &Repository{
		store:     store,
		validator: validation.New(),
		now:       now,
		auditor:   opts.Auditor,
		seed:      opts.Seed,
		seedEmpty: opts.SeedOnEmpty,
		books:     make(map[string]entities.Book),
	}
	r.writer = newWriter(r)
	return r
}

// Hydrate initializes the store and loads it into the cache. When the store
// cannot be read the cache falls back to the seed (or stays empty) and the
// returned error is a persistence warning; the repository remains usable.
func (r *Repository) Hydrate(ctx context.Context) error {
	if err := r.store.Init(ctx); err != nil {
		return r.fallback(fmt.Errorf("init store: %w", err))
	}

	books, err := r.store.Load(ctx)
	if err != nil {
		return r.fallback(fmt.Errorf("load books: %w", err))
	}

	if len(books) == 0 && r.seedEmpty && len(r.seed) > 0 {
		log.Printf("[LIBRARY] Store is empty, seeding %d books", len(r.seed))
		r.replace(r.seed)
		r.writer.schedule()
	} else {
		r.replace(books)
		log.Printf("[LIBRARY] Hydrated %d books", len(books))
	}

	if err := r.loadGoal(ctx); err != nil {
		log.Printf("[LIBRARY] Failed to load reading goal: %v", err)
	}
	return nil
}

func (r *Repository) fallback(cause error) error {
	err := errors.Persistence(cause, "failed to load library")
	log.Printf("[LIBRARY] %v; continuing with %d seed books", err, len(r.seed))
	r.replace(r.seed)
	r.events.emit(Event{Type: EventPersistenceWarning, Err: err})
	return err
}

func (r *Repository) replace(books []entities.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.books = make(map[string]entities.Book, len(books))
	r.order = r.order[:0]
	for _, b := range books {
		if _, dup := r.books[b.ID]; dup {
			continue
		}
		b = b.Clone()
		b.Normalize()
		r.books[b.ID] = b
		r.order = append(r.order, b.ID)
	}
	r.version++
}

// GetBook returns a copy of the book with the given id.
func (r *Repository) GetBook(id string) (entities.Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return entities.Book{}, false
	}
	return b.Clone(), true
}

// Books returns copies of all books in insertion order.
func (r *Repository) Books() []entities.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Repository) snapshotLocked() []entities.Book {
	out := make([]entities.Book, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.books[id].Clone())
	}
	return out
}

// Version increases on every cache change.
func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Subscribe registers fn for change and persistence events. Listeners run
// synchronously after the cache has been updated. The returned func removes
// the listener.
func (r *Repository) Subscribe(fn func(Event)) func() {
	return r.events.subscribe(fn)
}

// LastPersistenceError returns the error of the most recent durable write,
// or nil if it succeeded.
func (r *Repository) LastPersistenceError() error {
	return r.writer.lastError()
}

// Flush blocks until every write scheduled so far has settled.
func (r *Repository) Flush(ctx context.Context) error {
	return r.writer.flush(ctx)
}

// Reconcile re-issues a full write when the last one failed.
func (r *Repository) Reconcile(ctx context.Context) error {
	if r.writer.lastError() == nil {
		return nil
	}
	log.Printf("[LIBRARY] Reconciling store after failed write")
	r.writer.schedule()
	return r.writer.flush(ctx)
}

// Close flushes pending writes on a best-effort basis and stops the writer.
// The store itself is left open.
func (r *Repository) Close(ctx context.Context) error {
	err := r.writer.flush(ctx)
	r.writer.stop()
	return err
}

// mutate applies fn to a copy of the book and swaps the copy into the cache.
// fn must not retain b. Errors from fn leave the cache untouched.
func (r *Repository) mutate(id string, fn func(b *entities.Book, now time.Time) error) (entities.Book, error) {
	r.mu.Lock()
	current, ok := r.books[id]
	if !ok {
		r.mu.Unlock()
		return entities.Book{}, errors.NotFoundf("book %s not found", id)
	}

	now := r.now()
	next := current.Clone()
	if err := fn(&next, now); err != nil {
		r.mu.Unlock()
		return entities.Book{}, err
	}
	next.UpdatedAt = now
	r.books[id] = next
	r.version++
	out := next.Clone()
	r.mu.Unlock()

	r.writer.schedule()
	r.events.emit(Event{Type: EventBookUpdated, BookID: id})
	return out, nil
}
