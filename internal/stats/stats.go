// Package stats derives reading statistics from a list of books. Every
// function is pure: it reads its arguments and never mutates them.
package stats

import (
	"slices"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

type StatusCounts struct {
	WantToRead int `json:"want_to_read"`
	Reading    int `json:"reading"`
	Completed  int `json:"completed"`
}

func CountByStatus(books []entities.Book) StatusCounts {
	var c StatusCounts
	for _, b := range books {
		switch b.Status {
		case entities.StatusWantToRead:
			c.WantToRead++
		case entities.StatusReading:
			c.Reading++
		case entities.StatusCompleted:
			c.Completed++
		}
	}
	return c
}

// BooksCompletedInRange counts books whose completion time is in [from, to).
func BooksCompletedInRange(books []entities.Book, from, to time.Time) int {
	n := 0
	for _, b := range books {
		if b.CompletedAt == nil {
			continue
		}
		if !b.CompletedAt.Before(from) && b.CompletedAt.Before(to) {
			n++
		}
	}
	return n
}

// TotalReadingTime sums the active duration of every session.
func TotalReadingTime(books []entities.Book) time.Duration {
	var total time.Duration
	for _, b := range books {
		for _, s := range b.ReadingSessions {
			total += s.Duration()
		}
	}
	return total
}

func TotalPagesRead(books []entities.Book) int {
	total := 0
	for _, b := range books {
		for _, s := range b.ReadingSessions {
			total += s.PagesRead()
		}
	}
	return total
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagFrequency counts tags across bookmarks, reviews, quotes and notes.
// Tags match exactly (case-sensitive). The result is ordered by count,
// descending, with ties kept in the order tags were first seen.
func TagFrequency(books []entities.Book) []TagCount {
	index := map[string]int{}
	var counts []TagCount
	add := func(tags []string) {
		for _, tag := range tags {
			if i, ok := index[tag]; ok {
				counts[i].Count++
				continue
			}
			index[tag] = len(counts)
			counts = append(counts, TagCount{Tag: tag, Count: 1})
		}
	}

	for _, b := range books {
		for _, bm := range b.Bookmarks {
			add(bm.Tags)
		}
		for _, kind := range []entities.AnnotationKind{entities.AnnotationReview, entities.AnnotationQuote, entities.AnnotationNote} {
			for _, a := range b.Annotations(kind) {
				add(a.Tags)
			}
		}
	}

	slices.SortStableFunc(counts, func(a, b TagCount) int { return b.Count - a.Count })
	if counts == nil {
		return []TagCount{}
	}
	return counts
}

// AverageRating is the mean review rating, or 0 when nothing is rated.
func AverageRating(books []entities.Book) float64 {
	sum, n := 0, 0
	for _, b := range books {
		for _, r := range b.Reviews {
			if r.Rating != nil {
				sum += *r.Rating
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
