package entities

import "time"

// BookDraft is the input for creating a book, either typed in manually or
// mapped from a search candidate.
type BookDraft struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title" validate:"required"`
	Authors       []string `json:"authors" validate:"required,min=1,dive,required"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	Source        string   `json:"source,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Status        Status   `json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading completed"`
	PageCount     int      `json:"page_count" validate:"gte=0"`
	CurrentPage   int      `json:"current_page" validate:"gte=0"`
}

// BookPatch carries optional field updates; nil fields are left untouched.
type BookPatch struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,min=1"`
	Authors       *[]string `json:"authors,omitempty" validate:"omitempty,min=1,dive,required"`
	Publisher     *string   `json:"publisher,omitempty"`
	PublishedDate *string   `json:"published_date,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ThumbnailURL  *string   `json:"thumbnail_url,omitempty"`
	ISBN          *string   `json:"isbn,omitempty"`
	Categories    *[]string `json:"categories,omitempty"`
	Status        *Status   `json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading completed"`
	PageCount     *int      `json:"page_count,omitempty" validate:"omitempty,gte=0"`
	CurrentPage   *int      `json:"current_page,omitempty" validate:"omitempty,gte=0"`
}

type BookmarkInput struct {
	Page int      `json:"page" validate:"gte=1"`
	Note string   `json:"note"`
	Tags []string `json:"tags,omitempty" validate:"dive,required"`
}

type BookmarkPatch struct {
	Page *int      `json:"page,omitempty" validate:"omitempty,gte=1"`
	Note *string   `json:"note,omitempty"`
	Tags *[]string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

type AnnotationInput struct {
	Rating *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Text   string   `json:"text" validate:"required"`
	Tags   []string `json:"tags,omitempty" validate:"dive,required"`
}

type AnnotationPatch struct {
	Rating *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Text   *string   `json:"text,omitempty" validate:"omitempty,min=1"`
	Tags   *[]string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// SessionInput describes a finished reading session to be recorded against a
// book. Zero StartTime means "now".
type SessionInput struct {
	ID            string     `json:"id,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	StartPage     int        `json:"start_page" validate:"gte=0"`
	EndPage       int        `json:"end_page" validate:"gte=0,gtefield=StartPage"`
	TotalPausedMs int64      `json:"total_paused_ms" validate:"gte=0"`
	DurationMs    int64      `json:"duration_ms" validate:"gte=0"`
	Notes         string     `json:"notes,omitempty"`
}

// ListOptions filters and orders ListBooks results.
type ListOptions struct {
	Status Status
	Tag    string
	Search string
	Sort   SortKey
	Desc   bool
	Limit  int
}

type SortKey string

const (
	SortRecent  SortKey = "recent"
	SortCreated SortKey = "created"
	SortTitle   SortKey = "title"
	SortAuthor  SortKey = "author"
)
