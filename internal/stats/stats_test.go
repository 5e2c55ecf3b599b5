package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
)

var now = time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)

func at(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 19, 0, 0, 0, time.UTC)
}

func session(start time.Time, from, to int, minutes int) entities.ReadingSession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return entities.ReadingSession{
		ID:         fmt.Sprintf("s-%s-%d", start.Format("0102"), from),
		StartTime:  start,
		EndTime:    &end,
		StartPage:  from,
		EndPage:    to,
		DurationMs: int64(minutes) * 60 * 1000,
	}
}

func rating(v int) *int { return &v }

func library() []entities.Book {
	completedAug := at(time.August, 2)
	completedMar := at(time.March, 9)
	return []entities.Book{
		{
			ID: "b1", Title: "Dune", Authors: []string{"Frank Herbert"}, Status: entities.StatusCompleted, PageCount: 400,
			CompletedAt: &completedAug,
			Bookmarks:   []entities.Bookmark{{ID: "bm1", Page: 1, Tags: []string{"sci-fi", "desert"}}},
			Reviews:     []entities.Annotation{{ID: "r1", Rating: rating(5), Tags: []string{"classic"}}},
			ReadingSessions: []entities.ReadingSession{
				session(at(time.August, 1), 0, 200, 90),
				session(at(time.August, 2), 200, 400, 120),
			},
		},
		{
			ID: "b2", Title: "Children of Dune", Authors: []string{"Frank Herbert"}, Status: entities.StatusReading, PageCount: 450,
			Quotes: []entities.Annotation{{ID: "q1", Tags: []string{"desert", "Sci-Fi"}}},
			Notes:  []entities.Annotation{{ID: "n1", Tags: []string{"sci-fi"}}},
			ReadingSessions: []entities.ReadingSession{
				session(at(time.August, 13), 0, 30, 25),
				session(at(time.August, 14), 30, 60, 35),
			},
		},
		{
			ID: "b3", Title: "Persuasion", Authors: []string{"Jane Austen"}, Status: entities.StatusCompleted,
			CompletedAt: &completedMar,
			Reviews:     []entities.Annotation{{ID: "r2", Rating: rating(3), Tags: []string{"classic"}}},
		},
		{ID: "b4", Title: "Anonymous", Status: entities.StatusWantToRead},
	}
}

func TestCountByStatus(t *testing.T) {
	assert.Equal(t, StatusCounts{WantToRead: 1, Reading: 1, Completed: 2}, CountByStatus(library()))
	assert.Equal(t, StatusCounts{}, CountByStatus(nil))
}

func TestBooksCompletedInRange(t *testing.T) {
	books := library()

	tests := []struct {
		name     string
		from, to time.Time
		expected int
	}{
		{"august", at(time.August, 1).Add(-19 * time.Hour), at(time.September, 1).Add(-19 * time.Hour), 1},
		{"whole year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2},
		{"end is exclusive", at(time.July, 1), at(time.August, 2), 0},
		{"start is inclusive", at(time.August, 2), at(time.August, 3), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BooksCompletedInRange(books, tt.from, tt.to))
		})
	}
}

func TestTotals(t *testing.T) {
	books := library()

	assert.Equal(t, (90+120+25+35)*time.Minute, TotalReadingTime(books))
	assert.Equal(t, 200+200+30+30, TotalPagesRead(books))
	assert.Equal(t, 4.0, AverageRating(books))
	assert.Zero(t, TotalReadingTime(nil))
}

func TestTagFrequency(t *testing.T) {
	got := TagFrequency(library())

	// Tally: sci-fi 2, desert 2, classic 2, Sci-Fi 1. Ties keep first-seen order.
	expected := []TagCount{
		{Tag: "sci-fi", Count: 2},
		{Tag: "desert", Count: 2},
		{Tag: "classic", Count: 2},
		{Tag: "Sci-Fi", Count: 1},
	}
	assert.Equal(t, expected, got)
	assert.Equal(t, []TagCount{}, TagFrequency(nil))
}

func TestReadingStreak(t *testing.T) {
	t.Run("current streak includes yesterday", func(t *testing.T) {
		assert.Equal(t, Streak{Current: 2, Longest: 2}, ReadingStreak(library(), now))
	})

	t.Run("streak broken two days ago", func(t *testing.T) {
		later := now.AddDate(0, 0, 2)
		assert.Equal(t, Streak{Current: 0, Longest: 2}, ReadingStreak(library(), later))
	})

	t.Run("several sessions on one day count once", func(t *testing.T) {
		books := []entities.Book{{ReadingSessions: []entities.ReadingSession{
			session(at(time.August, 15).Add(-10*time.Hour), 0, 1, 1),
			session(at(time.August, 15).Add(-9*time.Hour), 1, 2, 1),
			session(at(time.August, 14), 2, 3, 1),
			session(at(time.August, 13), 3, 4, 1),
		}}}
		assert.Equal(t, Streak{Current: 3, Longest: 3}, ReadingStreak(books, now))
	})

	t.Run("no sessions", func(t *testing.T) {
		assert.Equal(t, Streak{}, ReadingStreak(nil, now))
	})
}

func TestAuthorStats(t *testing.T) {
	got := AuthorStats(library())

	require.Len(t, got, 3)
	assert.Equal(t, AuthorStat{Author: "Frank Herbert", Books: 2, Completed: 1, PagesRead: 460, AverageRating: 5}, got[0])
	assert.Equal(t, AuthorStat{Author: "Jane Austen", Books: 1, Completed: 1, AverageRating: 3}, got[1])
	assert.Equal(t, entities.UnknownAuthor, got[2].Author)
}

func TestMonthlySummary(t *testing.T) {
	months := MonthlySummary(library(), 2024, time.UTC)

	require.Len(t, months, 12)
	assert.Equal(t, MonthStat{Month: time.March, BooksCompleted: 1}, months[2])
	assert.Equal(t, MonthStat{Month: time.August, BooksCompleted: 1, PagesRead: 460, ReadingSeconds: 270 * 60}, months[7])
	assert.Equal(t, MonthStat{Month: time.January}, months[0])
}

func TestProgress(t *testing.T) {
	books := library()

	monthly := Progress(entities.ReadingGoal{Period: entities.GoalMonthly, TargetBooks: 2, TargetPages: 400}, books, now)
	assert.Equal(t, 1, monthly.BooksCompleted)
	assert.Equal(t, 460, monthly.PagesRead)
	assert.Equal(t, 50.0, monthly.BooksPercent)
	assert.Equal(t, 100.0, monthly.PagesPercent)
	assert.Equal(t, time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC), monthly.PeriodStart)
	assert.Equal(t, time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), monthly.PeriodEnd)

	yearly := Progress(entities.ReadingGoal{Period: entities.GoalYearly, TargetBooks: 8}, books, now)
	assert.Equal(t, 2, yearly.BooksCompleted)
	assert.Equal(t, 25.0, yearly.BooksPercent)
	assert.Zero(t, yearly.PagesPercent)
}

func TestSummarize(t *testing.T) {
	s := Summarize(library(), now)

	assert.Equal(t, 4, s.TotalBooks)
	assert.Equal(t, 1, s.CompletedThisMonth)
	assert.Equal(t, 2, s.CompletedThisYear)
	assert.Equal(t, 460, s.TotalPagesRead)
	assert.Equal(t, int64(270*60), s.TotalReadingSeconds)
	assert.Equal(t, 4, s.SessionCount)
	assert.Len(t, s.TopTags, 4)
	assert.Equal(t, Streak{Current: 2, Longest: 2}, s.Streak)
}

func TestFunctionsDoNotMutateInput(t *testing.T) {
	books := library()
	before := library()

	Summarize(books, now)
	MonthlySummary(books, 2024, time.UTC)
	Progress(entities.ReadingGoal{Period: entities.GoalYearly, TargetBooks: 1}, books, now)

	assert.Equal(t, before, books)
}

type countingSource struct {
	version uint64
	calls   int
	books   []entities.Book
}

func (s *countingSource) Version() uint64 { return s.version }

func (s *countingSource) Books() []entities.Book {
	s.calls++
	return s.books
}

func TestCache(t *testing.T) {
	src := &countingSource{version: 1, books: library()}
	var c Cache

	first := c.Summary(src, now)
	second := c.Summary(src, now.Add(time.Hour))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	src.version = 2
	src.books = src.books[:1]
	third := c.Summary(src, now)
	assert.Equal(t, 1, third.TotalBooks)
	assert.Equal(t, 2, src.calls)

	c.Summary(src, now.AddDate(0, 0, 1))
	assert.Equal(t, 3, src.calls, "a new day recomputes date-relative figures")
}
