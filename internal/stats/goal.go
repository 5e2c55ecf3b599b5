package stats

import (
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

type GoalProgress struct {
	Goal           entities.ReadingGoal `json:"goal"`
	PeriodStart    time.Time            `json:"period_start"`
	PeriodEnd      time.Time            `json:"period_end"`
	BooksCompleted int                  `json:"books_completed"`
	PagesRead      int                  `json:"pages_read"`
	BooksPercent   float64              `json:"books_percent"`
	PagesPercent   float64              `json:"pages_percent"`
}

// Progress evaluates goal for the period containing now. Percentages are
// capped at 100 and are 0 when the goal has no target.
func Progress(goal entities.ReadingGoal, books []entities.Book, now time.Time) GoalProgress {
	start, end := period(goal.Period, now)

	p := GoalProgress{
		Goal:           goal,
		PeriodStart:    start,
		PeriodEnd:      end,
		BooksCompleted: BooksCompletedInRange(books, start, end),
	}
	for _, b := range books {
		for _, s := range b.ReadingSessions {
			if !s.StartTime.Before(start) && s.StartTime.Before(end) {
				p.PagesRead += s.PagesRead()
			}
		}
	}
	p.BooksPercent = percent(p.BooksCompleted, goal.TargetBooks)
	p.PagesPercent = percent(p.PagesRead, goal.TargetPages)
	return p
}

func period(kind entities.GoalPeriod, now time.Time) (time.Time, time.Time) {
	if kind == entities.GoalMonthly {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0)
}

func percent(done, target int) float64 {
	if target <= 0 {
		return 0
	}
	return min(float64(done)/float64(target)*100, 100)
}
