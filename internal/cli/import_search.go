package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/readtrack/internal/search"
	"github.com/mrlokans/readtrack/internal/tasks"
)

// ImportSearchCommand searches a catalogue and imports the best match.
type ImportSearchCommand struct {
	Store    StoreFlags
	Query    string
	Author   string
	Provider string
	APIKey   string
	First    bool
	DryRun   bool
	Timeout  time.Duration
}

func NewImportSearchCommand() *ImportSearchCommand {
	return &ImportSearchCommand{}
}

func (cmd *ImportSearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-search", flag.ExitOnError)
	cmd.Store.register(fs)
	fs.StringVar(&cmd.Query, "query", "", "Title, author or ISBN to search for (required)")
	fs.StringVar(&cmd.Author, "author", "", "Prefer candidates by this author")
	fs.StringVar(&cmd.Provider, "provider", search.ProviderOpenLibrary, "Search provider: openlibrary or googlebooks")
	fs.StringVar(&cmd.APIKey, "api-key", os.Getenv("GOOGLE_BOOKS_API_KEY"), "Google Books API key")
	fs.BoolVar(&cmd.First, "first", false, "Import the first result instead of the best match")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List candidates without importing")
	fs.DurationVar(&cmd.Timeout, "timeout", 30*time.Second, "Overall timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-search -query <q> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search a book catalogue and add the result to the library.\n")
		fmt.Fprintf(os.Stderr, "Books already in the library are left unchanged.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-search -query \"The Dispossessed\" -author \"Le Guin\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-search -query 9780060512750 -first\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Query == "" {
		return fmt.Errorf("required flag -query not provided")
	}
	return nil
}

func (cmd *ImportSearchCommand) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	provider, err := search.New(search.Config{
		Provider:       cmd.Provider,
		GoogleBooksKey: cmd.APIKey,
	})
	if err != nil {
		return err
	}

	if cmd.DryRun {
		return cmd.list(ctx, provider)
	}

	repo, closeFn, err := cmd.Store.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var result tasks.ImportResult
	if cmd.First {
		candidates, err := provider.Search(ctx, cmd.Query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(candidates) == 0 {
			return fmt.Errorf("no search results for %q", cmd.Query)
		}
		book, created, err := repo.ImportCandidate(candidates[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		result = tasks.ImportResult{Book: book, Created: created, Candidates: len(candidates)}
	} else {
		result, err = tasks.RunSearchImport(ctx, provider, repo, tasks.SearchImportTask{
			Query:  cmd.Query,
			Author: cmd.Author,
		})
		if err != nil {
			return err
		}
	}

	if result.Created {
		fmt.Printf("Imported \"%s\" by %s (%s)\n", result.Book.Title, result.Book.DisplayAuthor(), result.Book.ID)
	} else {
		fmt.Printf("Already in library: \"%s\" by %s (%s)\n", result.Book.Title, result.Book.DisplayAuthor(), result.Book.ID)
	}
	fmt.Printf("%d candidates considered\n", result.Candidates)
	return nil
}

func (cmd *ImportSearchCommand) list(ctx context.Context, provider search.Provider) error {
	candidates, err := provider.Search(ctx, cmd.Query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Printf("Found %d candidates for %q\n", len(candidates), cmd.Query)
	for i, c := range candidates {
		pages := ""
		if c.PageCount > 0 {
			pages = fmt.Sprintf(", %d pages", c.PageCount)
		}
		fmt.Printf("%d. \"%s\" by %s%s [%s]\n", i+1, c.Title, c.Author, pages, c.SourceTag)
	}
	fmt.Println("\nDry run complete. Use without -dry-run to import.")
	return nil
}

