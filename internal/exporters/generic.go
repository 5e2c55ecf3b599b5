package exporters

import "github.com/mrlokans/readtrack/internal/entities"

type BookExporter interface {
	Export(books []entities.Book) (ExportResult, error)
}

type ExportResult struct {
	BooksProcessed       int      `json:"books_processed"`
	AnnotationsProcessed int      `json:"annotations_processed"`
	BookmarksProcessed   int      `json:"bookmarks_processed"`
	BooksFailed          int      `json:"books_failed"`
	Files                []string `json:"files"`
}
