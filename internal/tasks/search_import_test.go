package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

type stubProvider struct {
	candidates []entities.ExternalBookCandidate
	err        error
	queries    []string
}

func (p *stubProvider) Search(_ context.Context, query string) ([]entities.ExternalBookCandidate, error) {
	p.queries = append(p.queries, query)
	return p.candidates, p.err
}

type stubImporter struct {
	mu       sync.Mutex
	imported []entities.ExternalBookCandidate
	done     chan entities.ExternalBookCandidate
}

func (i *stubImporter) ImportCandidate(c entities.ExternalBookCandidate) (entities.Book, bool, error) {
	i.mu.Lock()
	i.imported = append(i.imported, c)
	created := len(i.imported) == 1
	i.mu.Unlock()
	if i.done != nil {
		i.done <- c
	}
	return entities.Book{ID: "book-1", Title: c.Title}, created, nil
}

func TestSearchImportTaskConfig(t *testing.T) {
	cfg := SearchImportTask{Query: "dune"}.Config()

	assert.Equal(t, "search_import", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestRunSearchImport(t *testing.T) {
	candidates := []entities.ExternalBookCandidate{
		{Title: "Dune Messiah", Author: "Frank Herbert"},
		{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719"},
	}

	t.Run("imports best match", func(t *testing.T) {
		provider := &stubProvider{candidates: candidates}
		importer := &stubImporter{}

		result, err := RunSearchImport(context.Background(), provider, importer, SearchImportTask{Query: " Dune ", Author: "Frank Herbert"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Dune"}, provider.queries)
		require.Len(t, importer.imported, 1)
		assert.Equal(t, "9780441172719", importer.imported[0].ISBN)
		assert.True(t, result.Created)
		assert.Equal(t, 2, result.Candidates)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := RunSearchImport(context.Background(), &stubProvider{}, &stubImporter{}, SearchImportTask{})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("no results", func(t *testing.T) {
		importer := &stubImporter{}
		_, err := RunSearchImport(context.Background(), &stubProvider{}, importer, SearchImportTask{Query: "zzz"})
		assert.ErrorIs(t, err, errors.ErrNotFound)
		assert.Empty(t, importer.imported)
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := &stubProvider{err: fmt.Errorf("unexpected status: 503")}
		_, err := RunSearchImport(context.Background(), provider, &stubImporter{}, SearchImportTask{Query: "dune"})
		assert.ErrorContains(t, err, "503")
	})
}

func TestSearchImportQueue(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	client, err := NewClient(dbPath, Config{Workers: 1})
	require.NoError(t, err)
	defer client.Close()

	provider := &stubProvider{candidates: []entities.ExternalBookCandidate{{Title: "Dune", Author: "Frank Herbert"}}}
	importer := &stubImporter{done: make(chan entities.ExternalBookCandidate, 1)}
	client.EnableSearchImport(provider, importer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	taskID, err := client.ImportSearch(SearchImportTask{Query: "  dune  "})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	select {
	case c := <-importer.done:
		assert.Equal(t, "Dune", c.Title)
		assert.Equal(t, []string{"dune"}, provider.queries)
		assert.Eventually(t, func() bool {
			state, err := client.TaskState(ctx, taskID)
			return err == nil && state == TaskSucceeded
		}, 5*time.Second, 20*time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Fatal("search import was not executed within timeout")
	}
}
