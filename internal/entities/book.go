package entities

import (
	"slices"
	"strings"
	"time"
)

type Status string

const (
	StatusWantToRead Status = "want_to_read"
	StatusReading    Status = "reading"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known reading statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusCompleted:
		return true
	}
	return false
}

type AnnotationKind string

const (
	AnnotationReview AnnotationKind = "review"
	AnnotationQuote  AnnotationKind = "quote"
	AnnotationNote   AnnotationKind = "note"
)

func (k AnnotationKind) Valid() bool {
	switch k {
	case AnnotationReview, AnnotationQuote, AnnotationNote:
		return true
	}
	return false
}

// UnknownAuthor is displayed when a book carries no author information.
const UnknownAuthor = "Unknown author"

const (
	SourceManual      = "manual"
	SourceOpenLibrary = "openlibrary"
	SourceGoogleBooks = "googlebooks"
)

// Book is the aggregate root. Nested collections are owned by the book and
// are removed together with it.
type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Authors       []string   `json:"authors"`
	Publisher     string     `json:"publisher,omitempty"`
	PublishedDate string     `json:"published_date,omitempty"`
	Description   string     `json:"description,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
	Source        string     `json:"source"`
	Categories    []string   `json:"categories"`
	Status        Status     `json:"status"`
	PageCount     int        `json:"page_count"` // 0 = unknown
	CurrentPage   int        `json:"current_page"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	Bookmarks       []Bookmark       `json:"bookmarks"`
	Reviews         []Annotation     `json:"reviews"`
	Quotes          []Annotation     `json:"quotes"`
	Notes           []Annotation     `json:"notes"`
	ReadingSessions []ReadingSession `json:"reading_sessions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Bookmark struct {
	ID        string    `json:"id"`
	Page      int       `json:"page"`
	Note      string    `json:"note"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Annotation is a review, quote or note. Rating is only meaningful for reviews.
type Annotation struct {
	ID        string         `json:"id"`
	Kind      AnnotationKind `json:"kind"`
	Rating    *int           `json:"rating,omitempty"`
	Text      string         `json:"text"`
	Tags      []string       `json:"tags"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ReadingSession is a timed interval of reading. DurationMs is active reading
// time and never includes paused intervals.
type ReadingSession struct {
	ID            string     `json:"id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	StartPage     int        `json:"start_page"`
	EndPage       int        `json:"end_page"`
	PausedAt      *time.Time `json:"paused_at,omitempty"`
	TotalPausedMs int64      `json:"total_paused_ms"`
	DurationMs    int64      `json:"duration_ms"`
	Notes         string     `json:"notes,omitempty"`
}

func (s ReadingSession) PagesRead() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage
}

func (s ReadingSession) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// DisplayAuthor joins the author list, falling back to UnknownAuthor.
func (b *Book) DisplayAuthor() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		return UnknownAuthor
	}
	return strings.Join(names, ", ")
}

// Annotations returns the collection holding annotations of the given kind.
func (b *Book) Annotations(kind AnnotationKind) []Annotation {
	switch kind {
	case AnnotationReview:
		return b.Reviews
	case AnnotationQuote:
		return b.Quotes
	case AnnotationNote:
		return b.Notes
	}
	return nil
}

// SetAnnotations replaces the collection for kind.
func (b *Book) SetAnnotations(kind AnnotationKind, items []Annotation) {
	switch kind {
	case AnnotationReview:
		b.Reviews = items
	case AnnotationQuote:
		b.Quotes = items
	case AnnotationNote:
		b.Notes = items
	}
}

// Normalize replaces nil slices with empty ones so cached and loaded books
// compare equal.
func (b *Book) Normalize() {
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if b.Bookmarks == nil {
		b.Bookmarks = []Bookmark{}
	}
	for i := range b.Bookmarks {
		if b.Bookmarks[i].Tags == nil {
			b.Bookmarks[i].Tags = []string{}
		}
	}
	for _, kind := range []AnnotationKind{AnnotationReview, AnnotationQuote, AnnotationNote} {
		items := b.Annotations(kind)
		if items == nil {
			items = []Annotation{}
		}
		for i := range items {
			if items[i].Tags == nil {
				items[i].Tags = []string{}
			}
		}
		b.SetAnnotations(kind, items)
	}
	if b.ReadingSessions == nil {
		b.ReadingSessions = []ReadingSession{}
	}
}

// Clone returns a deep copy. The repository hands out clones so callers can
// never mutate cached state.
func (b Book) Clone() Book {
	c := b
	c.Authors = slices.Clone(b.Authors)
	c.Categories = slices.Clone(b.Categories)
	c.StartedAt = cloneTime(b.StartedAt)
	c.CompletedAt = cloneTime(b.CompletedAt)

	if b.Bookmarks != nil {
		c.Bookmarks = make([]Bookmark, len(b.Bookmarks))
		for i, bm := range b.Bookmarks {
			bm.Tags = slices.Clone(bm.Tags)
			c.Bookmarks[i] = bm
		}
	}
	c.Reviews = cloneAnnotations(b.Reviews)
	c.Quotes = cloneAnnotations(b.Quotes)
	c.Notes = cloneAnnotations(b.Notes)

	if b.ReadingSessions != nil {
		c.ReadingSessions = make([]ReadingSession, len(b.ReadingSessions))
		for i, s := range b.ReadingSessions {
			s.EndTime = cloneTime(s.EndTime)
			s.PausedAt = cloneTime(s.PausedAt)
			c.ReadingSessions[i] = s
		}
	}
	return c
}

func cloneAnnotations(items []Annotation) []Annotation {
	if items == nil {
		return nil
	}
	out := make([]Annotation, len(items))
	for i, a := range items {
		a.Tags = slices.Clone(a.Tags)
		if a.Rating != nil {
			r := *a.Rating
			a.Rating = &r
		}
		out[i] = a
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
