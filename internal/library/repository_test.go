package library

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

func TestRepository_AddBook(t *testing.T) {
	repo, clock := newTestRepo(t, newMemStore(), Options{})

	t.Run("assigns id, defaults and timestamps", func(t *testing.T) {
		b, err := repo.AddBook(entities.BookDraft{Title: "  Dune ", Authors: []string{"Frank Herbert"}, PageCount: 412})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(b.ID, "book-"))
		assert.Equal(t, "Dune", b.Title)
		assert.Equal(t, entities.StatusWantToRead, b.Status)
		assert.Equal(t, entities.SourceManual, b.Source)
		assert.Equal(t, clock.Now(), b.CreatedAt)
		assert.Equal(t, clock.Now(), b.UpdatedAt)
		assert.NotNil(t, b.Bookmarks)
		assert.Nil(t, b.StartedAt)
	})

	t.Run("rejects empty title or author", func(t *testing.T) {
		before := repo.Version()

		_, err := repo.AddBook(entities.BookDraft{Title: "   ", Authors: []string{"Someone"}})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = repo.AddBook(entities.BookDraft{Title: "Untitled"})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = repo.AddBook(entities.BookDraft{Title: "Untitled", Authors: []string{" "}})
		assert.ErrorIs(t, err, errors.ErrValidation)

		assert.Equal(t, before, repo.Version())
		assert.Len(t, repo.Books(), 1)
	})

	t.Run("rejects current page beyond page count", func(t *testing.T) {
		_, err := repo.AddBook(entities.BookDraft{Title: "Short", Authors: []string{"A"}, PageCount: 10, CurrentPage: 11})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("reading status stamps started at", func(t *testing.T) {
		b, err := repo.AddBook(entities.BookDraft{Title: "Emma", Authors: []string{"Jane Austen"}, Status: entities.StatusReading})
		require.NoError(t, err)
		require.NotNil(t, b.StartedAt)
		assert.Equal(t, clock.Now(), *b.StartedAt)
	})
}

func TestRepository_DuplicatePolicy(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})

	first := mustAdd(t, repo, "The Hobbit", "J.R.R. Tolkien", 300)

	t.Run("same title and author returns the existing book", func(t *testing.T) {
		again, err := repo.AddBook(entities.BookDraft{Title: "the hobbit ", Authors: []string{"j.r.r. tolkien"}, PageCount: 999})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, 300, again.PageCount)
		assert.Len(t, repo.Books(), 1)
	})

	t.Run("same id returns the existing book", func(t *testing.T) {
		again, err := repo.AddBook(entities.BookDraft{ID: first.ID, Title: "Other", Authors: []string{"Other"}})
		require.NoError(t, err)
		assert.Equal(t, "The Hobbit", again.Title)
		assert.Len(t, repo.Books(), 1)
	})

	t.Run("importing the same candidate twice creates one book", func(t *testing.T) {
		candidate := entities.ExternalBookCandidate{Title: "Neuromancer", Author: "William Gibson", SourceTag: entities.SourceOpenLibrary}

		b1, created, err := repo.ImportCandidate(candidate)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, entities.SourceOpenLibrary, b1.Source)

		b2, created, err := repo.ImportCandidate(candidate)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, b1.ID, b2.ID)
		assert.Len(t, repo.Books(), 2)
	})

	t.Run("candidate without author gets the sentinel", func(t *testing.T) {
		b, created, err := repo.ImportCandidate(entities.ExternalBookCandidate{Title: "Beowulf"})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, []string{entities.UnknownAuthor}, b.Authors)
	})
}

func TestRepository_UpdateAndRemoveBook(t *testing.T) {
	repo, clock := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Solaris", "Stanislaw Lem", 200)

	clock.Advance(time.Minute)
	title := "Solaris (2nd ed.)"
	pages := 220
	updated, err := repo.UpdateBook(b.ID, entities.BookPatch{Title: &title, PageCount: &pages})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 220, updated.PageCount)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)

	blank := " "
	_, err = repo.UpdateBook(b.ID, entities.BookPatch{Title: &blank})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = repo.UpdateBook("book-missing", entities.BookPatch{Title: &title})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, repo.RemoveBook(b.ID))
	_, ok := repo.GetBook(b.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, repo.RemoveBook(b.ID), errors.ErrNotFound)
}

func TestRepository_SetStatus(t *testing.T) {
	repo, clock := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Middlemarch", "George Eliot", 880)

	reading, err := repo.SetStatus(b.ID, entities.StatusReading)
	require.NoError(t, err)
	require.NotNil(t, reading.StartedAt)
	assert.Nil(t, reading.CompletedAt)

	clock.Advance(24 * time.Hour)
	completed, err := repo.SetStatus(b.ID, entities.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, clock.Now(), *completed.CompletedAt)
	assert.Equal(t, 880, completed.CurrentPage)
	assert.Equal(t, *reading.StartedAt, *completed.StartedAt)

	back, err := repo.SetStatus(b.ID, entities.StatusReading)
	require.NoError(t, err)
	assert.Nil(t, back.CompletedAt)

	_, err = repo.SetStatus(b.ID, "abandoned")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestRepository_BookmarkPageInvariant(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})
	bounded := mustAdd(t, repo, "Bounded", "Author", 100)
	unknown := mustAdd(t, repo, "Unknown Length", "Author", 0)

	tests := []struct {
		name    string
		bookID  string
		page    int
		wantErr bool
	}{
		{"zero page", bounded.ID, 0, true},
		{"negative page", bounded.ID, -3, true},
		{"beyond page count", bounded.ID, 101, true},
		{"first page", bounded.ID, 1, false},
		{"last page", bounded.ID, 100, false},
		{"unknown page count allows any positive page", unknown.ID, 5000, false},
		{"unknown page count still rejects zero", unknown.ID, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := repo.GetBook(tt.bookID)

			bm, err := repo.AddBookmark(tt.bookID, entities.BookmarkInput{Page: tt.page, Note: "n"})

			after, _ := repo.GetBook(tt.bookID)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrValidation)
				assert.Equal(t, before.Bookmarks, after.Bookmarks)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.page, bm.Page)
			assert.Len(t, after.Bookmarks, len(before.Bookmarks)+1)
		})
	}

	t.Run("page count cannot shrink below a bookmark", func(t *testing.T) {
		b := mustAdd(t, repo, "Shrinking", "Author", 300)
		_, err := repo.AddBookmark(b.ID, entities.BookmarkInput{Page: 250})
		require.NoError(t, err)

		shorter := 100
		_, err = repo.UpdateBook(b.ID, entities.BookPatch{PageCount: &shorter})
		assert.ErrorIs(t, err, errors.ErrValidation)

		got, _ := repo.GetBook(b.ID)
		assert.Equal(t, 300, got.PageCount)
		assert.Equal(t, 250, got.Bookmarks[0].Page)

		enough := 250
		got, err = repo.UpdateBook(b.ID, entities.BookPatch{PageCount: &enough})
		require.NoError(t, err)
		assert.Equal(t, 250, got.PageCount)
	})

	t.Run("page count cannot shrink below a session end page", func(t *testing.T) {
		b := mustAdd(t, repo, "Read Far", "Author", 300)
		_, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 0, EndPage: 200})
		require.NoError(t, err)

		shorter := 150
		_, err = repo.UpdateBook(b.ID, entities.BookPatch{PageCount: &shorter, CurrentPage: &shorter})
		assert.ErrorIs(t, err, errors.ErrValidation)

		got, _ := repo.GetBook(b.ID)
		assert.Equal(t, 300, got.PageCount)
	})
}

func TestRepository_BookmarkLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Ulysses", "James Joyce", 730)

	bm, err := repo.AddBookmark(b.ID, entities.BookmarkInput{Page: 10, Note: "Stately", Tags: []string{"opening"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bm.ID, "bm-"))

	page := 12
	note := "plump"
	updated, err := repo.UpdateBookmark(b.ID, bm.ID, entities.BookmarkPatch{Page: &page, Note: &note})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Page)
	assert.Equal(t, "plump", updated.Note)
	assert.Equal(t, []string{"opening"}, updated.Tags)

	tooFar := 731
	_, err = repo.UpdateBookmark(b.ID, bm.ID, entities.BookmarkPatch{Page: &tooFar})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = repo.UpdateBookmark(b.ID, "bm-missing", entities.BookmarkPatch{Note: &note})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = repo.AddBookmark("book-missing", entities.BookmarkInput{Page: 1})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, repo.DeleteBookmark(b.ID, bm.ID))
	got, _ := repo.GetBook(b.ID)
	assert.Empty(t, got.Bookmarks)
	assert.ErrorIs(t, repo.DeleteBookmark(b.ID, bm.ID), errors.ErrNotFound)
}

func TestRepository_Annotations(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Walden", "Henry David Thoreau", 350)
	rating := 4

	review, err := repo.AddReview(b.ID, entities.AnnotationInput{Rating: &rating, Text: "Quiet", Tags: []string{"nature"}})
	require.NoError(t, err)
	assert.Equal(t, entities.AnnotationReview, review.Kind)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 4, *review.Rating)

	t.Run("rating outside 1-5 is rejected", func(t *testing.T) {
		bad := 0
		_, err := repo.AddReview(b.ID, entities.AnnotationInput{Rating: &bad, Text: "x"})
		assert.ErrorIs(t, err, errors.ErrValidation)
		bad = 6
		_, err = repo.AddReview(b.ID, entities.AnnotationInput{Rating: &bad, Text: "x"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("rating on a quote is rejected", func(t *testing.T) {
		_, err := repo.AddAnnotation(b.ID, entities.AnnotationQuote, entities.AnnotationInput{Rating: &rating, Text: "x"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		_, err := repo.AddAnnotation(b.ID, "highlight", entities.AnnotationInput{Text: "x"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	quote, err := repo.AddAnnotation(b.ID, entities.AnnotationQuote, entities.AnnotationInput{Text: "Simplify, simplify."})
	require.NoError(t, err)
	assert.Equal(t, []string{}, quote.Tags)

	tagged, err := repo.SetAnnotationTags(b.ID, entities.AnnotationQuote, quote.ID, []string{"wisdom"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wisdom"}, tagged.Tags)

	five := 5
	updated, err := repo.UpdateReview(b.ID, review.ID, entities.AnnotationPatch{Rating: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.Rating)
	assert.Equal(t, "Quiet", updated.Text)

	require.NoError(t, repo.DeleteReview(b.ID, review.ID))
	assert.ErrorIs(t, repo.DeleteReview(b.ID, review.ID), errors.ErrNotFound)

	got, _ := repo.GetBook(b.ID)
	assert.Empty(t, got.Reviews)
	require.Len(t, got.Quotes, 1)
	assert.Equal(t, []string{"wisdom"}, got.Quotes[0].Tags)
}

func TestRepository_RecordReadingSession(t *testing.T) {
	t.Run("reaching the page count completes the book", func(t *testing.T) {
		repo, clock := newTestRepo(t, newMemStore(), Options{})
		b, err := repo.AddBook(entities.BookDraft{Title: "Finishing", Authors: []string{"A"}, PageCount: 100, CurrentPage: 90, Status: entities.StatusReading})
		require.NoError(t, err)

		start := clock.Now()
		end := start.Add(20 * time.Minute)
		got, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartTime: start, EndTime: &end, StartPage: 90, EndPage: 100})
		require.NoError(t, err)

		assert.Equal(t, entities.StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, end, *got.CompletedAt)
		assert.Equal(t, 100, got.CurrentPage)
		require.Len(t, got.ReadingSessions, 1)
		assert.Equal(t, int64(20*60*1000), got.ReadingSessions[0].DurationMs)
	})

	t.Run("stopping short keeps the book reading", func(t *testing.T) {
		repo, _ := newTestRepo(t, newMemStore(), Options{})
		b, err := repo.AddBook(entities.BookDraft{Title: "Almost", Authors: []string{"A"}, PageCount: 100, CurrentPage: 90, Status: entities.StatusReading})
		require.NoError(t, err)

		got, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 90, EndPage: 95})
		require.NoError(t, err)
		assert.Equal(t, entities.StatusReading, got.Status)
		assert.Nil(t, got.CompletedAt)
		assert.Equal(t, 95, got.CurrentPage)
	})

	t.Run("first session starts reading and never lowers progress", func(t *testing.T) {
		repo, _ := newTestRepo(t, newMemStore(), Options{})
		b := mustAdd(t, repo, "Progress", "A", 300)

		got, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 0, EndPage: 50})
		require.NoError(t, err)
		assert.Equal(t, entities.StatusReading, got.Status)
		assert.NotNil(t, got.StartedAt)
		assert.Equal(t, 50, got.CurrentPage)

		got, err = repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 10, EndPage: 20})
		require.NoError(t, err)
		assert.Equal(t, 50, got.CurrentPage)
		assert.Len(t, got.ReadingSessions, 2)
	})

	t.Run("resubmitting a session id is ignored", func(t *testing.T) {
		repo, _ := newTestRepo(t, newMemStore(), Options{})
		b := mustAdd(t, repo, "Retry", "A", 300)

		in := entities.SessionInput{ID: "sess-fixed", StartPage: 0, EndPage: 30}
		_, err := repo.RecordReadingSession(b.ID, in)
		require.NoError(t, err)
		got, err := repo.RecordReadingSession(b.ID, in)
		require.NoError(t, err)
		assert.Len(t, got.ReadingSessions, 1)
	})

	t.Run("validation", func(t *testing.T) {
		repo, clock := newTestRepo(t, newMemStore(), Options{})
		b := mustAdd(t, repo, "Bounds", "A", 100)

		_, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 0, EndPage: 101})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 50, EndPage: 40})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: -1, EndPage: 10})
		assert.ErrorIs(t, err, errors.ErrValidation)

		before := clock.Now().Add(-time.Hour)
		_, err = repo.RecordReadingSession(b.ID, entities.SessionInput{StartTime: clock.Now(), EndTime: &before, EndPage: 10})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = repo.RecordReadingSession("book-missing", entities.SessionInput{EndPage: 1})
		assert.ErrorIs(t, err, errors.ErrNotFound)

		got, _ := repo.GetBook(b.ID)
		assert.Empty(t, got.ReadingSessions)
		assert.Equal(t, 0, got.CurrentPage)
	})

	t.Run("unknown page count never completes", func(t *testing.T) {
		repo, _ := newTestRepo(t, newMemStore(), Options{})
		b := mustAdd(t, repo, "Endless", "A", 0)

		got, err := repo.RecordReadingSession(b.ID, entities.SessionInput{StartPage: 0, EndPage: 10000})
		require.NoError(t, err)
		assert.Equal(t, entities.StatusReading, got.Status)
		assert.Equal(t, 10000, got.CurrentPage)
	})
}

func TestRepository_ReadsReturnCopies(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Copies", "A", 100)
	_, err := repo.AddBookmark(b.ID, entities.BookmarkInput{Page: 5, Tags: []string{"keep"}})
	require.NoError(t, err)

	got, _ := repo.GetBook(b.ID)
	got.Title = "Mutated"
	got.Bookmarks[0].Tags[0] = "changed"
	got.Authors[0] = "Someone else"

	fresh, _ := repo.GetBook(b.ID)
	assert.Equal(t, "Copies", fresh.Title)
	assert.Equal(t, "keep", fresh.Bookmarks[0].Tags[0])
	assert.Equal(t, "A", fresh.Authors[0])
}

func TestRepository_ConcurrentNestedMutations(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})
	b := mustAdd(t, repo, "Busy", "A", 0)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AddBookmark(b.ID, entities.BookmarkInput{Page: i + 1})
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AddAnnotation(b.ID, entities.AnnotationNote, entities.AnnotationInput{Text: fmt.Sprintf("note %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, _ := repo.GetBook(b.ID)
	assert.Len(t, got.Bookmarks, n)
	assert.Len(t, got.Notes, n)

	ids := map[string]bool{}
	for _, bm := range got.Bookmarks {
		ids[bm.ID] = true
	}
	assert.Len(t, ids, n)
}

func TestRepository_ListBooks(t *testing.T) {
	repo, clock := newTestRepo(t, newMemStore(), Options{})

	c := mustAdd(t, repo, "Cryptonomicon", "Neal Stephenson", 900)
	clock.Advance(time.Minute)
	a := mustAdd(t, repo, "anathem", "Neal Stephenson", 930)
	clock.Advance(time.Minute)
	b := mustAdd(t, repo, "Blindsight", "Peter Watts", 380)
	clock.Advance(time.Minute)

	_, err := repo.SetStatus(b.ID, entities.StatusReading)
	require.NoError(t, err)
	_, err = repo.AddAnnotation(c.ID, entities.AnnotationQuote, entities.AnnotationInput{Text: "q", Tags: []string{"crypto"}})
	require.NoError(t, err)

	ids := func(books []entities.Book) []string {
		out := make([]string, len(books))
		for i, bk := range books {
			out[i] = bk.ID
		}
		return out
	}

	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids(repo.ListBooks(entities.ListOptions{})))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(repo.ListBooks(entities.ListOptions{Sort: entities.SortTitle})))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(repo.ListBooks(entities.ListOptions{Sort: entities.SortTitle, Desc: true})))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(repo.ListBooks(entities.ListOptions{Sort: entities.SortRecent})))
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids(repo.ListBooks(entities.ListOptions{Sort: entities.SortAuthor})))
	assert.Equal(t, []string{b.ID}, ids(repo.ListBooks(entities.ListOptions{Status: entities.StatusReading})))
	assert.Equal(t, []string{c.ID}, ids(repo.ListBooks(entities.ListOptions{Tag: "crypto"})))
	assert.Equal(t, []string{c.ID, a.ID}, ids(repo.ListBooks(entities.ListOptions{Search: "stephenson"})))
	assert.Equal(t, []string{c.ID}, ids(repo.ListBooks(entities.ListOptions{Limit: 1})))
}

func TestRepository_Events(t *testing.T) {
	repo, _ := newTestRepo(t, newMemStore(), Options{})

	var mu sync.Mutex
	var got []EventType
	unsubscribe := repo.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Type)
	})

	b := mustAdd(t, repo, "Events", "A", 0)
	_, err := repo.AddBookmark(b.ID, entities.BookmarkInput{Page: 1})
	require.NoError(t, err)
	require.NoError(t, repo.RemoveBook(b.ID))

	unsubscribe()
	mustAdd(t, repo, "Unheard", "A", 0)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventBookAdded, EventBookUpdated, EventBookRemoved}, got)
}
