package library

import (
	"slices"
	"strings"

	"github.com/mrlokans/readtrack/internal/entities"
)

// ListBooks returns copies of the books matching opts. Without a sort key the
// books keep insertion order.
func (r *Repository) ListBooks(opts entities.ListOptions) []entities.Book {
	books := r.Books()

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	books = slices.DeleteFunc(books, func(b entities.Book) bool {
		if opts.Status != "" && b.Status != opts.Status {
			return true
		}
		if opts.Tag != "" && !hasTag(b, opts.Tag) {
			return true
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.DisplayAuthor()), search) {
			return true
		}
		return false
	})

	if cmp := comparator(opts.Sort); cmp != nil {
		slices.SortStableFunc(books, cmp)
		if opts.Desc {
			slices.Reverse(books)
		}
	}

	if opts.Limit > 0 && len(books) > opts.Limit {
		books = books[:opts.Limit]
	}
	return books
}

func comparator(key entities.SortKey) func(a, b entities.Book) int {
	switch key {
	case entities.SortRecent:
		return func(a, b entities.Book) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	case entities.SortCreated:
		return func(a, b entities.Book) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case entities.SortTitle:
		return func(a, b entities.Book) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case entities.SortAuthor:
		return func(a, b entities.Book) int {
			if c := strings.Compare(strings.ToLower(a.DisplayAuthor()), strings.ToLower(b.DisplayAuthor())); c != 0 {
				return c
			}
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	}
	return nil
}

func hasTag(b entities.Book, tag string) bool {
	for _, bm := range b.Bookmarks {
		if slices.Contains(bm.Tags, tag) {
			return true
		}
	}
	for _, kind := range []entities.AnnotationKind{entities.AnnotationReview, entities.AnnotationQuote, entities.AnnotationNote} {
		for _, a := range b.Annotations(kind) {
			if slices.Contains(a.Tags, tag) {
				return true
			}
		}
	}
	return false
}
