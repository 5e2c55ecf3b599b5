package http

import (
	"context"

	"github.com/mrlokans/readtrack/internal/entities"
)

// This file collects the interfaces HTTP controllers depend on. The library
// repository satisfies all of them.

// BookStore manages the book records themselves.
type BookStore interface {
	ListBooks(opts entities.ListOptions) []entities.Book
	GetBook(id string) (entities.Book, bool)
	AddBook(draft entities.BookDraft) (entities.Book, error)
	UpdateBook(bookID string, patch entities.BookPatch) (entities.Book, error)
	SetStatus(bookID string, status entities.Status) (entities.Book, error)
	RemoveBook(bookID string) error
}

// CollectionStore manages bookmarks and annotations nested in a book.
type CollectionStore interface {
	AddBookmark(bookID string, in entities.BookmarkInput) (entities.Bookmark, error)
	UpdateBookmark(bookID, bookmarkID string, patch entities.BookmarkPatch) (entities.Bookmark, error)
	DeleteBookmark(bookID, bookmarkID string) error
	AddAnnotation(bookID string, kind entities.AnnotationKind, in entities.AnnotationInput) (entities.Annotation, error)
	UpdateAnnotation(bookID string, kind entities.AnnotationKind, annotationID string, patch entities.AnnotationPatch) (entities.Annotation, error)
	DeleteAnnotation(bookID string, kind entities.AnnotationKind, annotationID string) error
}

// SessionRecorder appends finished reading sessions.
type SessionRecorder interface {
	RecordReadingSession(bookID string, in entities.SessionInput) (entities.Book, error)
}

// StatsSource is a versioned view of the library plus the reading goal.
type StatsSource interface {
	Version() uint64
	Books() []entities.Book
	Goal() (entities.ReadingGoal, bool)
	SetGoal(ctx context.Context, goal entities.ReadingGoal) error
}

// CandidateImporter adds a search candidate to the library.
type CandidateImporter interface {
	ImportCandidate(c entities.ExternalBookCandidate) (entities.Book, bool, error)
}

// PersistenceStatus reports the outcome of the latest durable write.
type PersistenceStatus interface {
	LastPersistenceError() error
}

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Library combines every capability the router needs from the repository.
type Library interface {
	BookStore
	CollectionStore
	SessionRecorder
	StatsSource
	CandidateImporter
	PersistenceStatus
}
