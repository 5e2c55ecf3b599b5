package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/readtrack/internal/audit"
	"github.com/mrlokans/readtrack/internal/storage"
)

// RestoreSnapshotCommand writes an audit snapshot back into the store.
type RestoreSnapshotCommand struct {
	Store    StoreFlags
	File     string
	AuditDir string
	Force    bool
}

func NewRestoreSnapshotCommand() *RestoreSnapshotCommand {
	return &RestoreSnapshotCommand{}
}

func (cmd *RestoreSnapshotCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("restore-snapshot", flag.ExitOnError)
	cmd.Store.register(fs)
	fs.StringVar(&cmd.File, "file", "", "Snapshot file written to the audit directory (required)")
	fs.StringVar(&cmd.AuditDir, "audit-dir", "./audit", "Directory holding audit snapshots")
	fs.BoolVar(&cmd.Force, "force", false, "Overwrite a library that already has books")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s restore-snapshot -file <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replace the stored library with an audit snapshot.\n")
		fmt.Fprintf(os.Stderr, "Snapshots are written when a save to the store fails.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if filepath.Dir(cmd.File) != "." {
		cmd.AuditDir = filepath.Dir(cmd.File)
	}
	return nil
}

func (cmd *RestoreSnapshotCommand) Run() error {
	snapshot, err := audit.NewAuditor(cmd.AuditDir).Read(cmd.File)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s (%s) from %s: %d books\n",
		snapshot.ID, snapshot.Reason, snapshot.CreatedAt.Format("2006-01-02 15:04:05"), snapshot.BookCount)

	ctx := context.Background()
	dbPath, err := filepath.Abs(cmd.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	store, err := storage.Open(cmd.Store.Engine, dbPath, cmd.Store.BadgerDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	existing, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}
	if len(existing) > 0 && !cmd.Force {
		return fmt.Errorf("library already has %d books, use -force to overwrite", len(existing))
	}

	if err := store.SaveAll(ctx, snapshot.Books); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	fmt.Printf("Restored %d books\n", len(snapshot.Books))
	return nil
}

