package database

import (
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

// Row types mirror the entities one table per collection. Author, category
// and tag lists are stored as JSON text.

type bookRow struct {
	ID            string   `gorm:"primaryKey;size:64"`
	Position      int      `gorm:"index"`
	Title         string   `gorm:"not null"`
	Authors       []string `gorm:"serializer:json;type:text"`
	Publisher     string
	PublishedDate string
	Description   string `gorm:"type:text"`
	ThumbnailURL  string
	ISBN          string `gorm:"index"`
	Source        string
	Categories    []string `gorm:"serializer:json;type:text"`
	Status        string   `gorm:"index;not null"`
	PageCount     int
	CurrentPage   int
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (bookRow) TableName() string { return "books" }

type bookmarkRow struct {
	BookID    string `gorm:"primaryKey;size:64"`
	ID        string `gorm:"primaryKey;size:64"`
	Position  int
	Page      int
	Note      string   `gorm:"type:text"`
	Tags      []string `gorm:"serializer:json;type:text"`
	CreatedAt time.Time
}

func (bookmarkRow) TableName() string { return "bookmarks" }

// annotationRow stores reviews, quotes and notes, told apart by Kind.
type annotationRow struct {
	BookID    string `gorm:"primaryKey;size:64"`
	ID        string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"index;size:16"`
	Position  int
	Rating    *int
	Text      string   `gorm:"type:text"`
	Tags      []string `gorm:"serializer:json;type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (annotationRow) TableName() string { return "annotations" }

type sessionRow struct {
	BookID        string `gorm:"primaryKey;size:64"`
	ID            string `gorm:"primaryKey;size:64"`
	Position      int
	StartTime     time.Time
	EndTime       *time.Time
	StartPage     int
	EndPage       int
	PausedAt      *time.Time
	TotalPausedMs int64
	DurationMs    int64
	Notes         string `gorm:"type:text"`
}

func (sessionRow) TableName() string { return "reading_sessions" }

// rowSet is the flattened form of a book list.
type rowSet struct {
	books       []bookRow
	bookmarks   []bookmarkRow
	annotations []annotationRow
	sessions    []sessionRow
}

func flatten(books []entities.Book) rowSet {
	var rs rowSet
	for pos, b := range books {
		rs.books = append(rs.books, bookRow{
			ID:            b.ID,
			Position:      pos,
			Title:         b.Title,
			Authors:       b.Authors,
			Publisher:     b.Publisher,
			PublishedDate: b.PublishedDate,
			Description:   b.Description,
			ThumbnailURL:  b.ThumbnailURL,
			ISBN:          b.ISBN,
			Source:        b.Source,
			Categories:    b.Categories,
			Status:        string(b.Status),
			PageCount:     b.PageCount,
			CurrentPage:   b.CurrentPage,
			StartedAt:     b.StartedAt,
			CompletedAt:   b.CompletedAt,
			CreatedAt:     b.CreatedAt,
			UpdatedAt:     b.UpdatedAt,
		})
		for i, bm := range b.Bookmarks {
			rs.bookmarks = append(rs.bookmarks, bookmarkRow{
				BookID:    b.ID,
				ID:        bm.ID,
				Position:  i,
				Page:      bm.Page,
				Note:      bm.Note,
				Tags:      bm.Tags,
				CreatedAt: bm.CreatedAt,
			})
		}
		for _, kind := range []entities.AnnotationKind{entities.AnnotationReview, entities.AnnotationQuote, entities.AnnotationNote} {
			for i, a := range b.Annotations(kind) {
				rs.annotations = append(rs.annotations, annotationRow{
					BookID:    b.ID,
					ID:        a.ID,
					Kind:      string(kind),
					Position:  i,
					Rating:    a.Rating,
					Text:      a.Text,
					Tags:      a.Tags,
					CreatedAt: a.CreatedAt,
					UpdatedAt: a.UpdatedAt,
				})
			}
		}
		for i, s := range b.ReadingSessions {
			rs.sessions = append(rs.sessions, sessionRow{
				BookID:        b.ID,
				ID:            s.ID,
				Position:      i,
				StartTime:     s.StartTime,
				EndTime:       s.EndTime,
				StartPage:     s.StartPage,
				EndPage:       s.EndPage,
				PausedAt:      s.PausedAt,
				TotalPausedMs: s.TotalPausedMs,
				DurationMs:    s.DurationMs,
				Notes:         s.Notes,
			})
		}
	}
	return rs
}

// assemble rebuilds books from rows already ordered by position.
func assemble(rs rowSet) []entities.Book {
	books := make([]entities.Book, len(rs.books))
	index := make(map[string]int, len(rs.books))
	for i, r := range rs.books {
		index[r.ID] = i
		books[i] = entities.Book{
			ID:            r.ID,
			Title:         r.Title,
			Authors:       r.Authors,
			Publisher:     r.Publisher,
			PublishedDate: r.PublishedDate,
			Description:   r.Description,
			ThumbnailURL:  r.ThumbnailURL,
			ISBN:          r.ISBN,
			Source:        r.Source,
			Categories:    r.Categories,
			Status:        entities.Status(r.Status),
			PageCount:     r.PageCount,
			CurrentPage:   r.CurrentPage,
			StartedAt:     utcPtr(r.StartedAt),
			CompletedAt:   utcPtr(r.CompletedAt),
			CreatedAt:     r.CreatedAt.UTC(),
			UpdatedAt:     r.UpdatedAt.UTC(),
		}
	}

	for _, r := range rs.bookmarks {
		i, ok := index[r.BookID]
		if !ok {
			continue
		}
		books[i].Bookmarks = append(books[i].Bookmarks, entities.Bookmark{
			ID:        r.ID,
			Page:      r.Page,
			Note:      r.Note,
			Tags:      r.Tags,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	for _, r := range rs.annotations {
		i, ok := index[r.BookID]
		if !ok {
			continue
		}
		kind := entities.AnnotationKind(r.Kind)
		items := append(books[i].Annotations(kind), entities.Annotation{
			ID:        r.ID,
			Kind:      kind,
			Rating:    r.Rating,
			Text:      r.Text,
			Tags:      r.Tags,
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
		})
		books[i].SetAnnotations(kind, items)
	}
	for _, r := range rs.sessions {
		i, ok := index[r.BookID]
		if !ok {
			continue
		}
		books[i].ReadingSessions = append(books[i].ReadingSessions, entities.ReadingSession{
			ID:            r.ID,
			StartTime:     r.StartTime.UTC(),
			EndTime:       utcPtr(r.EndTime),
			StartPage:     r.StartPage,
			EndPage:       r.EndPage,
			PausedAt:      utcPtr(r.PausedAt),
			TotalPausedMs: r.TotalPausedMs,
			DurationMs:    r.DurationMs,
			Notes:         r.Notes,
		})
	}

	for i := range books {
		books[i].Normalize()
	}
	return books
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
