package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/readtrack/internal/stats"
)

// StatsCommand prints reading statistics for a library.
type StatsCommand struct {
	Store StoreFlags
	Year  int
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cmd.Store.register(fs)
	fs.IntVar(&cmd.Year, "year", time.Now().Year(), "Year for the monthly breakdown")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print reading statistics for the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	repo, closeFn, err := cmd.Store.openLibrary(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	now := time.Now().UTC()
	books := repo.Books()
	summary := stats.Summarize(books, now)

	fmt.Println("Reading Statistics")
	fmt.Println("==================")
	fmt.Printf("Books: %d (want to read %d, reading %d, completed %d)\n",
		summary.TotalBooks, summary.ByStatus.WantToRead, summary.ByStatus.Reading, summary.ByStatus.Completed)
	fmt.Printf("Completed this month: %d\n", summary.CompletedThisMonth)
	fmt.Printf("Completed this year: %d\n", summary.CompletedThisYear)
	fmt.Printf("Pages read: %d\n", summary.TotalPagesRead)
	fmt.Printf("Reading time: %s across %d sessions\n",
		(time.Duration(summary.TotalReadingSeconds) * time.Second).String(), summary.SessionCount)
	if summary.AverageRating > 0 {
		fmt.Printf("Average rating: %.1f\n", summary.AverageRating)
	}
	fmt.Printf("Streak: %d days (longest %d)\n", summary.Streak.Current, summary.Streak.Longest)

	if len(summary.TopTags) > 0 {
		fmt.Println("\n=== Top Tags ===")
		for _, tag := range summary.TopTags {
			fmt.Printf("  #%s  %d\n", tag.Tag, tag.Count)
		}
	}

	if goal, ok := repo.Goal(); ok {
		progress := stats.Progress(goal, books, now)
		fmt.Println("\n=== Goal ===")
		fmt.Printf("  %s: %d/%d books, %d/%d pages\n", goal.Period,
			progress.BooksCompleted, goal.TargetBooks, progress.PagesRead, goal.TargetPages)
	}

	fmt.Printf("\n=== %d by Month ===\n", cmd.Year)
	for _, month := range stats.MonthlySummary(books, cmd.Year, time.UTC) {
		if month.BooksCompleted == 0 && month.PagesRead == 0 {
			continue
		}
		fmt.Printf("  %-9s %d books, %d pages\n", month.Month, month.BooksCompleted, month.PagesRead)
	}
	return nil
}
