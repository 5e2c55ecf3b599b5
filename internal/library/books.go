package library

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/id"
)

// AddBook inserts a new book. A draft whose id, or whose title and author,
// match an existing book returns that book unchanged.
func (r *Repository) AddBook(draft entities.BookDraft) (entities.Book, error) {
	book, _, err := r.addBook(draft)
	return book, err
}

// ImportCandidate maps a search result into a new book. created is false
// when the candidate duplicates an existing book.
func (r *Repository) ImportCandidate(c entities.ExternalBookCandidate) (entities.Book, bool, error) {
	return r.addBook(c.Draft())
}

func (r *Repository) addBook(draft entities.BookDraft) (entities.Book, bool, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Authors = trimAll(draft.Authors)
	if err := r.validator.Validate(draft); err != nil {
		return entities.Book{}, false, err
	}
	if draft.PageCount > 0 && draft.CurrentPage > draft.PageCount {
		return entities.Book{}, false, errors.ValidationField("current_page", "must not exceed page_count")
	}

	bookID := draft.ID
	if bookID == "" {
		generated, err := id.Generate(id.PrefixBook)
		if err != nil {
			return entities.Book{}, false, errors.Wrap(err, errors.CodeInternal, "failed to generate book id")
		}
		bookID = generated
	}

	status := draft.Status
	if status == "" {
		status = entities.StatusWantToRead
	}
	source := draft.Source
	if source == "" {
		source = entities.SourceManual
	}

	r.mu.Lock()
	now := r.now()
	book := entities.Book{
		ID:            bookID,
		Title:         draft.Title,
		Authors:       draft.Authors,
		Publisher:     draft.Publisher,
		PublishedDate: draft.PublishedDate,
		Description:   draft.Description,
		ThumbnailURL:  draft.ThumbnailURL,
		ISBN:          draft.ISBN,
		Source:        source,
		Categories:    slices.Clone(draft.Categories),
		PageCount:     draft.PageCount,
		CurrentPage:   draft.CurrentPage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyStatus(&book, status, now)
	book.Normalize()

	if existing, ok := r.findDuplicateLocked(book); ok {
		out := existing.Clone()
		r.mu.Unlock()
		log.Printf("[LIBRARY] Skipping duplicate book %q by %s", book.Title, book.DisplayAuthor())
		return out, false, nil
	}

	r.books[book.ID] = book
	r.order = append(r.order, book.ID)
	r.version++
	out := book.Clone()
	r.mu.Unlock()

	r.writer.schedule()
	r.events.emit(Event{Type: EventBookAdded, BookID: book.ID})
	return out, true, nil
}

func (r *Repository) findDuplicateLocked(b entities.Book) (entities.Book, bool) {
	if existing, ok := r.books[b.ID]; ok {
		return existing, true
	}
	key := dedupeKey(b)
	for _, bookID := range r.order {
		existing := r.books[bookID]
		if dedupeKey(existing) == key {
			return existing, true
		}
	}
	return entities.Book{}, false
}

func dedupeKey(b entities.Book) string {
	return strings.ToLower(strings.TrimSpace(b.Title)) + "\x00" + strings.ToLower(b.DisplayAuthor())
}

// UpdateBook applies the non-nil fields of patch.
func (r *Repository) UpdateBook(bookID string, patch entities.BookPatch) (entities.Book, error) {
	if err := r.validator.Validate(patch); err != nil {
		return entities.Book{}, err
	}

	return r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return errors.ValidationField("title", "is required")
			}
			b.Title = title
		}
		if patch.Authors != nil {
			authors := trimAll(*patch.Authors)
			if len(authors) == 0 || slices.Contains(authors, "") {
				return errors.ValidationField("authors", "is required")
			}
			b.Authors = authors
		}
		setString(&b.Publisher, patch.Publisher)
		setString(&b.PublishedDate, patch.PublishedDate)
		setString(&b.Description, patch.Description)
		setString(&b.ThumbnailURL, patch.ThumbnailURL)
		setString(&b.ISBN, patch.ISBN)
		if patch.Categories != nil {
			b.Categories = slices.Clone(*patch.Categories)
		}
		if patch.PageCount != nil {
			b.PageCount = *patch.PageCount
		}
		if patch.CurrentPage != nil {
			b.CurrentPage = *patch.CurrentPage
		}
		if b.PageCount > 0 && b.CurrentPage > b.PageCount {
			return errors.ValidationField("current_page", "must not exceed page_count")
		}
		if patch.PageCount != nil {
			if err := checkPageCount(b); err != nil {
				return err
			}
		}
		if patch.Status != nil {
			applyStatus(b, *patch.Status, now)
		}
		b.Normalize()
		return nil
	})
}

// checkPageCount rejects a page count that would strand bookmarks or recorded
// sessions beyond the last page.
func checkPageCount(b *entities.Book) error {
	if b.PageCount <= 0 {
		return nil
	}
	highest := 0
	for _, bm := range b.Bookmarks {
		highest = max(highest, bm.Page)
	}
	for _, s := range b.ReadingSessions {
		highest = max(highest, s.EndPage)
	}
	if highest > b.PageCount {
		return errors.ValidationField("page_count", fmt.Sprintf("must be at least %d to keep existing bookmarks and sessions", highest))
	}
	return nil
}

// SetStatus changes the reading status explicitly.
func (r *Repository) SetStatus(bookID string, status entities.Status) (entities.Book, error) {
	if !status.Valid() {
		return entities.Book{}, errors.ValidationField("status", "must be one of: want_to_read reading completed")
	}
	return r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		applyStatus(b, status, now)
		return nil
	})
}

// RemoveBook deletes a book together with all of its nested collections.
func (r *Repository) RemoveBook(bookID string) error {
	r.mu.Lock()
	if _, ok := r.books[bookID]; !ok {
		r.mu.Unlock()
		return errors.NotFoundf("book %s not found", bookID)
	}
	delete(r.books, bookID)
	r.order = slices.DeleteFunc(slices.Clone(r.order), func(s string) bool { return s == bookID })
	r.version++
	r.mu.Unlock()

	r.writer.schedule()
	r.events.emit(Event{Type: EventBookRemoved, BookID: bookID})
	return nil
}

// applyStatus moves b to status. Entering Reading stamps StartedAt, entering
// Completed stamps CompletedAt and fills CurrentPage, leaving Completed clears
// CompletedAt.
func applyStatus(b *entities.Book, status entities.Status, at time.Time) {
	if b.Status == status {
		return
	}
	if b.Status == entities.StatusCompleted {
		b.CompletedAt = nil
	}
	switch status {
	case entities.StatusReading:
		if b.StartedAt == nil {
			started := at
			b.StartedAt = &started
		}
	case entities.StatusCompleted:
		if b.StartedAt == nil {
			started := at
			b.StartedAt = &started
		}
		completed := at
		b.CompletedAt = &completed
		if b.PageCount > 0 {
			b.CurrentPage = b.PageCount
		}
	}
	b.Status = status
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
