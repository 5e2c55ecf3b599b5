package stats

import (
	"sync"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

const topTagsLimit = 10

// Summary is the dashboard view over the whole library.
type Summary struct {
	TotalBooks          int          `json:"total_books"`
	ByStatus            StatusCounts `json:"by_status"`
	CompletedThisMonth  int          `json:"completed_this_month"`
	CompletedThisYear   int          `json:"completed_this_year"`
	TotalPagesRead      int          `json:"total_pages_read"`
	TotalReadingSeconds int64        `json:"total_reading_seconds"`
	SessionCount        int          `json:"session_count"`
	AverageRating       float64      `json:"average_rating"`
	Streak              Streak       `json:"streak"`
	TopTags             []TagCount   `json:"top_tags"`
	Authors             []AuthorStat `json:"authors"`
}

func Summarize(books []entities.Book, now time.Time) Summary {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	sessions := 0
	for _, b := range books {
		sessions += len(b.ReadingSessions)
	}

	tags := TagFrequency(books)
	if len(tags) > topTagsLimit {
		tags = tags[:topTagsLimit]
	}

	return Summary{
		TotalBooks:          len(books),
		ByStatus:            CountByStatus(books),
		CompletedThisMonth:  BooksCompletedInRange(books, monthStart, monthStart.AddDate(0, 1, 0)),
		CompletedThisYear:   BooksCompletedInRange(books, yearStart, yearStart.AddDate(1, 0, 0)),
		TotalPagesRead:      TotalPagesRead(books),
		TotalReadingSeconds: int64(TotalReadingTime(books).Seconds()),
		SessionCount:        sessions,
		AverageRating:       AverageRating(books),
		Streak:              ReadingStreak(books, now),
		TopTags:             tags,
		Authors:             AuthorStats(books),
	}
}

// Source is a versioned book list, such as the library repository.
type Source interface {
	Version() uint64
	Books() []entities.Book
}

// Cache memoizes Summarize until the source changes or the day rolls over.
type Cache struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	day     time.Time
	summary Summary
}

func (c *Cache) Summary(src Source, now time.Time) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	version := src.Version()
	day := startOfDay(now)
	if c.valid && c.version == version && c.day.Equal(day) {
		return c.summary
	}

	c.summary = Summarize(src.Books(), now)
	c.version = version
	c.day = day
	c.valid = true
	return c.summary
}
