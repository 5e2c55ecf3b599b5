// Package audit writes JSON snapshots of the library for later recovery.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/readtrack/internal/entities"
)

// Snapshot is the file format written by Dump.
type Snapshot struct {
	ID        string          `json:"id"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
	BookCount int             `json:"book_count"`
	Books     []entities.Book `json:"books"`
}

type Auditor struct {
	AuditDir string
	now      func() time.Time
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
		now:      time.Now,
	}
}

// Dump writes the books as a snapshot and returns its file name.
func (a *Auditor) Dump(reason string, books []entities.Book) (string, error) {
	if books == nil {
		books = []entities.Book{}
	}
	snapshot := Snapshot{
		ID:        uuid.New().String(),
		Reason:    reason,
		CreatedAt: a.now().UTC(),
		BookCount: len(books),
		Books:     books,
	}
	filename, err := a.save(snapshot.ID, snapshot)
	if err != nil {
		return "", err
	}
	log.Printf("[AUDIT] Saved %s snapshot of %d books to %s", reason, len(books), filename)
	return filename, nil
}

// Read loads a snapshot previously written by Dump.
func (a *Auditor) Read(filename string) (Snapshot, error) {
	var snapshot Snapshot
	data, err := os.ReadFile(filepath.Join(a.AuditDir, filepath.Base(filename)))
	if err != nil {
		return snapshot, fmt.Errorf("failed to read audit file: %w", err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to parse audit file: %w", err)
	}
	return snapshot, nil
}

func (a *Auditor) save(id string, data any) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	filename := fmt.Sprintf("%s.json", id)
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	return filename, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
