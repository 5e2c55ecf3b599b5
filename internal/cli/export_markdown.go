package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/exporters"
)

// ExportMarkdownCommand writes books as Obsidian-compatible Markdown files.
type ExportMarkdownCommand struct {
	Store     StoreFlags
	BookID    string
	OutputDir string
	Verbose   bool
}

func NewExportMarkdownCommand() *ExportMarkdownCommand {
	return &ExportMarkdownCommand{}
}

func (cmd *ExportMarkdownCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-markdown", flag.ExitOnError)
	cmd.Store.register(fs)
	fs.StringVar(&cmd.BookID, "book", "", "Export only the book with this id (default: all books)")
	fs.StringVar(&cmd.OutputDir, "output", "", "Output directory for markdown files (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every exported file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-markdown -output <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export reviews, quotes, notes and bookmarks to markdown.\n")
		fmt.Fprintf(os.Stderr, "Files are grouped into one folder per reading status.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export-markdown -output ~/Obsidian/Books\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export-markdown -book book-abc123 -output ./out\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputDir == "" {
		return fmt.Errorf("required flag -output not provided")
	}
	return nil
}

func (cmd *ExportMarkdownCommand) Run() error {
	repo, closeFn, err := cmd.Store.openLibrary(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	var books []entities.Book
	if cmd.BookID != "" {
		book, ok := repo.GetBook(cmd.BookID)
		if !ok {
			return fmt.Errorf("book %s not found", cmd.BookID)
		}
		books = []entities.Book{book}
	} else {
		books = repo.Books()
	}

	if len(books) == 0 {
		fmt.Println("No books to export")
		return nil
	}

	outputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}

	fmt.Printf("Exporting %d books to %s\n", len(books), outputDir)

	result, err := exporters.NewMarkdownExporter(outputDir).Export(books)
	if err != nil {
		return fmt.Errorf("failed to export to markdown: %w", err)
	}

	if cmd.Verbose {
		for _, file := range result.Files {
			fmt.Printf("  [OK] %s\n", file)
		}
	}

	fmt.Println("\n=== Export Summary ===")
	fmt.Printf("Books exported: %d\n", result.BooksProcessed)
	fmt.Printf("Annotations: %d\n", result.AnnotationsProcessed)
	fmt.Printf("Bookmarks: %d\n", result.BookmarksProcessed)
	if result.BooksFailed > 0 {
		fmt.Printf("%d books failed to export\n", result.BooksFailed)
	}
	return nil
}
