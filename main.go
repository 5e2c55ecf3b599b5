package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/readtrack/internal/cli"
	"github.com/mrlokans/readtrack/internal/config"
	"github.com/mrlokans/readtrack/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "stats":
		cmd = cli.NewStatsCommand()
	case "export-markdown":
		cmd = cli.NewExportMarkdownCommand()
	case "import-search":
		cmd = cli.NewImportSearchCommand()
	case "restore-snapshot":
		cmd = cli.NewRestoreSnapshotCommand()
	case "version":
		fmt.Printf("readtrack %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve             Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  stats             Print reading statistics\n")
	fmt.Fprintf(os.Stderr, "  export-markdown   Export annotations and bookmarks to markdown\n")
	fmt.Fprintf(os.Stderr, "  import-search     Search a book catalogue and import the result\n")
	fmt.Fprintf(os.Stderr, "  restore-snapshot  Restore the library from an audit snapshot\n")
	fmt.Fprintf(os.Stderr, "  version           Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
