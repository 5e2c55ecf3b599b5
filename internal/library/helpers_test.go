package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu       sync.Mutex
	books    []entities.Book
	saves    int
	saveErr  error
	loadErr  error
	initErr  error
	block    chan struct{}
	settings map[string]string
}

func newMemStore() *memStore {
	return &memStore{settings: map[string]string{}}
}

func (s *memStore) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

func (s *memStore) Load(context.Context) ([]entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]entities.Book, len(s.books))
	for i, b := range s.books {
		out[i] = b.Clone()
	}
	return out, nil
}

func (s *memStore) SaveAll(_ context.Context, books []entities.Book) error {
	s.mu.Lock()
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.books = books
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *memStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *memStore) saved() ([]entities.Book, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books, s.saves
}

func (s *memStore) setSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

type recordingAuditor struct {
	mu    sync.Mutex
	dumps [][]entities.Book
}

func (a *recordingAuditor) Dump(_ string, books []entities.Book) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dumps = append(a.dumps, books)
	return "/tmp/snapshot.json", nil
}

func (a *recordingAuditor) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.dumps)
}

var errDiskFull = errors.New("disk full")

func newTestRepo(t *testing.T, store Store, opts Options) (*Repository, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	repo := New(store, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = repo.Close(ctx)
	})
	return repo, clock
}

func mustAdd(t *testing.T, repo *Repository, title, author string, pageCount int) entities.Book {
	t.Helper()
	b, err := repo.AddBook(entities.BookDraft{Title: title, Authors: []string{author}, PageCount: pageCount})
	require.NoError(t, err)
	return b
}

func flush(t *testing.T, repo *Repository) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return repo.Flush(ctx)
}
