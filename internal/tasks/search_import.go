package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/search"
)

// SearchImportTask searches a provider and imports the best matching
// candidate into the library.
type SearchImportTask struct {
	Query string `json:"query"`
	// Title and Author steer candidate ranking. Query is used as the title
	// when Title is empty.
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// Config returns the queue configuration for search import tasks.
func (t SearchImportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "search_import",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Importer adds a search candidate to the library.
type Importer interface {
	ImportCandidate(c entities.ExternalBookCandidate) (entities.Book, bool, error)
}

// ImportResult describes what a search import did.
type ImportResult struct {
	Book       entities.Book
	Created    bool
	Candidates int
}

// RunSearchImport searches the provider and imports the best match.
func RunSearchImport(ctx context.Context, provider search.Provider, importer Importer, task SearchImportTask) (ImportResult, error) {
	query := strings.TrimSpace(task.Query)
	if query == "" {
		return ImportResult{}, errors.ValidationField("query", "is required")
	}

	candidates, err := provider.Search(ctx, query)
	if err != nil {
		return ImportResult{}, fmt.Errorf("search %q: %w", query, err)
	}

	title := task.Title
	if title == "" {
		title = query
	}
	best, ok := search.BestMatch(candidates, title, task.Author)
	if !ok {
		return ImportResult{}, errors.NotFoundf("no search results for %q", query)
	}

	book, created, err := importer.ImportCandidate(best)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %q: %w", best.Title, err)
	}
	return ImportResult{Book: book, Created: created, Candidates: len(candidates)}, nil
}

// SearchImportProcessor creates a processor function for SearchImportTask.
func SearchImportProcessor(provider search.Provider, importer Importer) backlite.QueueProcessor[SearchImportTask] {
	return func(ctx context.Context, task SearchImportTask) error {
		if provider == nil || importer == nil {
			return fmt.Errorf("search import not configured")
		}

		result, err := RunSearchImport(ctx, provider, importer, task)
		if err != nil {
			return err
		}

		if result.Created {
			log.Printf("[TASK] Imported %q (%s) from %d candidates",
				result.Book.Title, result.Book.ID, result.Candidates)
		} else {
			log.Printf("[TASK] %q already in library (%s)", result.Book.Title, result.Book.ID)
		}
		return nil
	}
}

// NewSearchImportQueue creates a backlite queue for search import tasks.
func NewSearchImportQueue(provider search.Provider, importer Importer) backlite.Queue {
	return backlite.NewQueue(SearchImportProcessor(provider, importer))
}
