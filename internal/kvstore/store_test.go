package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fixture() []entities.Book {
	at := time.Date(2024, time.May, 10, 18, 30, 0, 0, time.UTC)
	rating := 4
	b := entities.Book{
		ID:          "book-a",
		Title:       "The Left Hand of Darkness",
		Authors:     []string{"Ursula K. Le Guin"},
		Source:      entities.SourceGoogleBooks,
		Status:      entities.StatusReading,
		PageCount:   304,
		CurrentPage: 80,
		Bookmarks: []entities.Bookmark{
			{ID: "bm-1", Page: 12, Note: "Genly", Tags: []string{"start"}, CreatedAt: at},
			{ID: "bm-2", Page: 80, Tags: []string{}, CreatedAt: at.Add(time.Hour)},
		},
		Reviews: []entities.Annotation{{ID: "ann-1", Kind: entities.AnnotationReview, Rating: &rating, Text: "Cold", Tags: []string{"winter"}, CreatedAt: at, UpdatedAt: at}},
		Notes:   []entities.Annotation{{ID: "ann-2", Kind: entities.AnnotationNote, Text: "Kemmer", Tags: []string{"winter", "biology"}, CreatedAt: at, UpdatedAt: at}},
		ReadingSessions: []entities.ReadingSession{
			{ID: "sess-1", StartTime: at, EndTime: ptr(at.Add(time.Hour)), StartPage: 0, EndPage: 80, DurationMs: 3600000},
		},
		CreatedAt: at,
		UpdatedAt: at.Add(time.Hour),
	}
	b.Normalize()

	c := entities.Book{ID: "book-b", Title: "Kindred", Authors: []string{"Octavia E. Butler"}, Status: entities.StatusWantToRead, CreatedAt: at, UpdatedAt: at}
	c.Normalize()
	return []entities.Book{b, c}
}

func ptr[T any](v T) *T { return &v }

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	books := fixture()
	require.NoError(t, s.SaveAll(ctx, books))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, loaded)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveAll(ctx, fixture()))
	require.NoError(t, s.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture(), loaded)
}

func TestStore_SaveAllRemovesNestedKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	books := fixture()
	require.NoError(t, s.SaveAll(ctx, books))
	require.NoError(t, s.SaveAll(ctx, books[1:]))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, prefix := range []string{prefixBookmark, prefixAnnotation, prefixSession} {
			keys, err := collectKeys(txn, prefix+"book-a:")
			require.NoError(t, err)
			assert.Empty(t, keys, "orphaned %s keys", prefix)
		}
		return nil
	})
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "book-b", loaded[0].ID)
}

func TestStore_LoadEmpty(t *testing.T) {
	s, err := NewInMemory()
	require.NoError(t, err)
	defer s.Close()

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.GetSetting(ctx, entities.SettingKeyReadingGoal)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSetting(ctx, entities.SettingKeyReadingGoal, `{"period":"monthly"}`))
	value, ok, err := s.GetSetting(ctx, entities.SettingKeyReadingGoal)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"period":"monthly"}`, value)
}

func TestChildKey_Ordering(t *testing.T) {
	assert.Less(t, string(childKey(prefixSession, "book-a", 2)), string(childKey(prefixSession, "book-a", 10)))
}

func TestStore_Ping(t *testing.T) {
	s, err := NewInMemory()
	require.NoError(t, err)

	assert.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
