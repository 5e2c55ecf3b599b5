package stats

import (
	"slices"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ReadingStreak counts runs of consecutive calendar days with at least one
// session, in now's location. The current streak is still alive when the
// last reading day is today or yesterday.
func ReadingStreak(books []entities.Book, now time.Time) Streak {
	loc := now.Location()
	days := map[time.Time]bool{}
	for _, b := range books {
		for _, s := range b.ReadingSessions {
			days[startOfDay(s.StartTime.In(loc))] = true
		}
	}
	if len(days) == 0 {
		return Streak{}
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	var s Streak
	run := 0
	for i, d := range sorted {
		if i > 0 && sorted[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		s.Longest = max(s.Longest, run)
	}

	today := startOfDay(now)
	last := sorted[len(sorted)-1]
	if last.Equal(today) || last.Equal(today.AddDate(0, 0, -1)) {
		s.Current = run
	}
	return s
}

type AuthorStat struct {
	Author        string  `json:"author"`
	Books         int     `json:"books"`
	Completed     int     `json:"completed"`
	PagesRead     int     `json:"pages_read"`
	AverageRating float64 `json:"average_rating"`
}

// AuthorStats groups books by display author, most books first.
func AuthorStats(books []entities.Book) []AuthorStat {
	index := map[string]int{}
	var out []AuthorStat
	ratings := map[string][2]int{}

	for _, b := range books {
		author := b.DisplayAuthor()
		i, ok := index[author]
		if !ok {
			i = len(out)
			index[author] = i
			out = append(out, AuthorStat{Author: author})
		}
		out[i].Books++
		if b.Status == entities.StatusCompleted {
			out[i].Completed++
		}
		for _, s := range b.ReadingSessions {
			out[i].PagesRead += s.PagesRead()
		}
		for _, r := range b.Reviews {
			if r.Rating != nil {
				acc := ratings[author]
				acc[0] += *r.Rating
				acc[1]++
				ratings[author] = acc
			}
		}
	}

	for i := range out {
		if acc := ratings[out[i].Author]; acc[1] > 0 {
			out[i].AverageRating = float64(acc[0]) / float64(acc[1])
		}
	}
	slices.SortStableFunc(out, func(a, b AuthorStat) int { return b.Books - a.Books })
	if out == nil {
		return []AuthorStat{}
	}
	return out
}

type MonthStat struct {
	Month          time.Month `json:"month"`
	BooksCompleted int        `json:"books_completed"`
	PagesRead      int        `json:"pages_read"`
	ReadingSeconds int64      `json:"reading_seconds"`
}

// MonthlySummary breaks the given year down by month in loc. Sessions count
// toward the month they started in.
func MonthlySummary(books []entities.Book, year int, loc *time.Location) []MonthStat {
	months := make([]MonthStat, 12)
	for i := range months {
		months[i].Month = time.Month(i + 1)
	}

	for _, b := range books {
		if b.CompletedAt != nil {
			if c := b.CompletedAt.In(loc); c.Year() == year {
				months[c.Month()-1].BooksCompleted++
			}
		}
		for _, s := range b.ReadingSessions {
			st := s.StartTime.In(loc)
			if st.Year() != year {
				continue
			}
			m := &months[st.Month()-1]
			m.PagesRead += s.PagesRead()
			m.ReadingSeconds += int64(s.Duration().Seconds())
		}
	}
	return months
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
