package exporters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
)

var exportTime = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func sampleBook() entities.Book {
	rating := 4
	return entities.Book{
		ID:          "book_1",
		Title:       "The \"Sample\" Book",
		Authors:     []string{"Ann Author", "Bob Writer"},
		Source:      entities.SourceGoogleBooks,
		Status:      entities.StatusReading,
		PageCount:   300,
		CurrentPage: 120,
		ISBN:        "9780000000001",
		Reviews: []entities.Annotation{
			{ID: "r1", Kind: entities.AnnotationReview, Rating: &rating, Text: "Solid."},
		},
		Quotes: []entities.Annotation{
			{ID: "q1", Kind: entities.AnnotationQuote, Text: "Line one\nLine two", Tags: []string{"Craft", "long read"}, CreatedAt: exportTime},
		},
		Notes: []entities.Annotation{
			{ID: "n1", Kind: entities.AnnotationNote, Text: "Remember chapter 3", Tags: []string{"craft"}},
		},
		Bookmarks: []entities.Bookmark{
			{ID: "bm1", Page: 42, Note: "Map"},
			{ID: "bm2", Page: 99},
		},
	}
}

func TestGenerateMarkdown(t *testing.T) {
	t.Run("renders frontmatter and every section", func(t *testing.T) {
		book := sampleBook()
		markdown := GenerateMarkdown(&book, exportTime)

		assert.Contains(t, markdown, "content_source: googlebooks\n")
		assert.Contains(t, markdown, "created_at: 2024-06-15\n")
		assert.Contains(t, markdown, "title: \"The \\\"Sample\\\" Book\"\n")
		assert.Contains(t, markdown, "author: \"Ann Author, Bob Writer\"\n")
		assert.Contains(t, markdown, "status: reading\n")
		assert.Contains(t, markdown, "progress: 120/300\n")
		assert.Contains(t, markdown, "isbn: 9780000000001\n")
		assert.Contains(t, markdown, "tags: [books, craft, long read]\n")

		assert.Contains(t, markdown, "## Reviews\n\n**Rating:** 4/5\n\nSolid.\n")
		assert.Contains(t, markdown, "> [!quote] 2024-06-15 14:30\n> Line one\n> Line two\n> #Craft #long-read\n")
		assert.Contains(t, markdown, "- Remember chapter 3 #craft\n")
		assert.Contains(t, markdown, "- p. 42: Map\n- p. 99\n")
	})

	t.Run("omits empty sections", func(t *testing.T) {
		book := entities.Book{Title: "Bare", Status: entities.StatusWantToRead}
		markdown := GenerateMarkdown(&book, exportTime)

		assert.Contains(t, markdown, "content_source: manual\n")
		assert.Contains(t, markdown, "author: \"Unknown author\"\n")
		assert.NotContains(t, markdown, "progress:")
		assert.NotContains(t, markdown, "## Quotes")
		assert.NotContains(t, markdown, "## Bookmarks")
		assert.Contains(t, markdown, "tags: [books]\n")
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		book     entities.Book
		expected string
	}{
		{entities.Book{ID: "b1", Title: "Dune"}, "Dune.md"},
		{entities.Book{ID: "b2", Title: "AC/DC: A Story?"}, "AC_DC_ A Story_.md"},
		{entities.Book{ID: "b3", Title: "  "}, "b3.md"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(&tt.book))
		})
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	exporter := NewMarkdownExporter(dir)
	exporter.now = func() time.Time { return exportTime }

	books := []entities.Book{
		sampleBook(),
		{ID: "b2", Title: "Done", Status: entities.StatusCompleted},
	}

	result, err := exporter.Export(books)
	require.NoError(t, err)

	assert.Equal(t, 2, result.BooksProcessed)
	assert.Equal(t, 3, result.AnnotationsProcessed)
	assert.Equal(t, 2, result.BookmarksProcessed)
	assert.Equal(t, 0, result.BooksFailed)
	require.Len(t, result.Files, 2)

	content, err := os.ReadFile(filepath.Join(dir, "reading", "The _Sample_ Book.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "## Quotes")

	_, err = os.Stat(filepath.Join(dir, "completed", "Done.md"))
	assert.NoError(t, err)
}
