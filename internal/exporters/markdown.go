package exporters

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
)

// MarkdownExporter writes one Markdown file per book, grouped in a folder per
// reading status.
type MarkdownExporter struct {
	ExportDir string
	now       func() time.Time
}

func NewMarkdownExporter(exportDir string) *MarkdownExporter {
	return &MarkdownExporter{
		ExportDir: exportDir,
		now:       time.Now,
	}
}

func (exporter *MarkdownExporter) Export(books []entities.Book) (ExportResult, error) {
	result := ExportResult{Files: []string{}}

	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}

	for i := range books {
		book := &books[i]
		path, err := exporter.exportBook(book)
		if err != nil {
			log.Printf("[EXPORT] Failed to export %q: %v", book.Title, err)
			result.BooksFailed++
			continue
		}
		result.BooksProcessed++
		result.AnnotationsProcessed += len(book.Reviews) + len(book.Quotes) + len(book.Notes)
		result.BookmarksProcessed += len(book.Bookmarks)
		result.Files = append(result.Files, path)
	}

	return result, nil
}

func (exporter *MarkdownExporter) exportBook(book *entities.Book) (string, error) {
	status := string(book.Status)
	if status == "" {
		status = string(entities.StatusWantToRead)
	}
	dir := filepath.Join(exporter.ExportDir, status)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create status directory: %w", err)
	}

	path := filepath.Join(dir, FileName(book))
	content := GenerateMarkdown(book, exporter.now())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FileName returns a filesystem-safe Markdown file name for the book.
func FileName(book *entities.Book) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(book.Title))
	if name == "" {
		name = book.ID
	}
	return name + ".md"
}

// GenerateMarkdown renders the book's reviews, quotes, notes and bookmarks.
// Empty sections are omitted.
func GenerateMarkdown(book *entities.Book, now time.Time) string {
	var builder strings.Builder

	source := book.Source
	if source == "" {
		source = entities.SourceManual
	}

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_source: %s\n", source)
	fmt.Fprintf(&builder, "content_type: book_notes\n")
	fmt.Fprintf(&builder, "created_at: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&builder, "title: \"%s\"\n", escapeQuotes(book.Title))
	fmt.Fprintf(&builder, "author: \"%s\"\n", escapeQuotes(book.DisplayAuthor()))
	fmt.Fprintf(&builder, "status: %s\n", book.Status)
	if book.PageCount > 0 {
		fmt.Fprintf(&builder, "progress: %d/%d\n", book.CurrentPage, book.PageCount)
	}
	if book.ISBN != "" {
		fmt.Fprintf(&builder, "isbn: %s\n", book.ISBN)
	}
	fmt.Fprintf(&builder, "tags: [%s]\n", strings.Join(frontmatterTags(book), ", "))
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", book.Title)

	if len(book.Reviews) > 0 {
		fmt.Fprintf(&builder, "## Reviews\n\n")
		for _, r := range book.Reviews {
			if r.Rating != nil {
				fmt.Fprintf(&builder, "**Rating:** %d/5\n\n", *r.Rating)
			}
			fmt.Fprintf(&builder, "%s\n\n", r.Text)
		}
	}

	if len(book.Quotes) > 0 {
		fmt.Fprintf(&builder, "## Quotes\n\n")
		for _, q := range book.Quotes {
			fmt.Fprintf(&builder, "> [!quote] %s\n", q.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(&builder, "> %s\n", strings.ReplaceAll(q.Text, "\n", "\n> "))
			if tags := hashTags(q.Tags); tags != "" {
				fmt.Fprintf(&builder, "> %s\n", tags)
			}
			builder.WriteString("\n")
		}
	}

	if len(book.Notes) > 0 {
		fmt.Fprintf(&builder, "## Notes\n\n")
		for _, n := range book.Notes {
			line := strings.ReplaceAll(n.Text, "\n", " ")
			if tags := hashTags(n.Tags); tags != "" {
				line += " " + tags
			}
			fmt.Fprintf(&builder, "- %s\n", line)
		}
		builder.WriteString("\n")
	}

	if len(book.Bookmarks) > 0 {
		fmt.Fprintf(&builder, "## Bookmarks\n\n")
		for _, bm := range book.Bookmarks {
			if bm.Note != "" {
				fmt.Fprintf(&builder, "- p. %d: %s\n", bm.Page, bm.Note)
			} else {
				fmt.Fprintf(&builder, "- p. %d\n", bm.Page)
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func frontmatterTags(book *entities.Book) []string {
	tags := []string{"books"}
	seen := map[string]bool{"books": true}
	add := func(values []string) {
		for _, t := range values {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	for _, kind := range []entities.AnnotationKind{entities.AnnotationReview, entities.AnnotationQuote, entities.AnnotationNote} {
		for _, a := range book.Annotations(kind) {
			add(a.Tags)
		}
	}
	for _, bm := range book.Bookmarks {
		add(bm.Tags)
	}
	return tags
}

func hashTags(tags []string) string {
	hashed := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			hashed = append(hashed, "#"+strings.ReplaceAll(t, " ", "-"))
		}
	}
	return strings.Join(hashed, " ")
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
