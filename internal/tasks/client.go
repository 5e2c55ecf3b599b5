package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/search"
)

// TaskState is the lifecycle of a queued import as reported over the API.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "success"
	TaskFailed    TaskState = "failure"
)

// Client queues library imports. The queue lives in its own SQLite file so a
// busy worker never contends with library writes.
type Client struct {
	queue  *backlite.Client
	db     *sql.DB
	config Config

	mu           sync.RWMutex
	started      bool
	searchImport bool
}

// NewClient opens the queue database next to the library database, named
// with a "-tasks" suffix.
func NewClient(libraryDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	path := TasksDBPath(libraryDBPath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install task queue schema: %w", err)
	}

	log.Printf("[TASK] Queue database at %s", path)
	return &Client{queue: queue, db: db, config: cfg}, nil
}

// EnableSearchImport registers the search import queue. Call it before Start.
func (c *Client) EnableSearchImport(provider search.Provider, importer Importer) {
	c.queue.Register(NewSearchImportQueue(provider, importer))

	c.mu.Lock()
	c.searchImport = true
	c.mu.Unlock()
}

// ImportSearch queues a search import and returns its task id. Tasks queued
// before Start wait in the database until workers pick them up.
func (c *Client) ImportSearch(task SearchImportTask) (string, error) {
	task.Query = strings.TrimSpace(task.Query)
	if task.Query == "" {
		return "", errors.ValidationField("query", "is required")
	}

	c.mu.RLock()
	enabled := c.searchImport
	c.mu.RUnlock()
	if !enabled {
		return "", errors.InvalidStatef("search import is not configured")
	}

	ids, err := c.queue.Add(task).Save()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "enqueue search import")
	}
	log.Printf("[TASK] Queued search import %s for %q", ids[0], task.Query)
	return ids[0], nil
}

// TaskState reports where taskID is in its lifecycle. Unknown and purged
// tasks are NOT_FOUND.
func (c *Client) TaskState(ctx context.Context, taskID string) (TaskState, error) {
	status, err := c.queue.Status(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("task %s status: %w", taskID, err)
	}

	switch status {
	case backlite.TaskStatusPending:
		return TaskPending, nil
	case backlite.TaskStatusRunning:
		return TaskRunning, nil
	case backlite.TaskStatusSuccess:
		return TaskSucceeded, nil
	case backlite.TaskStatusFailure:
		return TaskFailed, nil
	case backlite.TaskStatusNotFound:
		return "", errors.NotFoundf("task %s not found", taskID)
	}
	return "", fmt.Errorf("task %s has unknown status %v", taskID, status)
}

// Start runs the workers until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	enabled := c.searchImport
	c.mu.Unlock()

	log.Printf("[TASK] Queue started with %d workers (search import: %t)", c.config.Workers, enabled)
	c.queue.Start(ctx)
}

// Stop waits for running imports and reports whether they all finished before
// the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	if !c.queue.Stop(ctx) {
		log.Println("[TASK] Queue stop timed out, some imports may not have completed")
		return false
	}
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// TasksDBPath derives the queue database path from the library database path.
func TasksDBPath(libraryDBPath string) string {
	dir := filepath.Dir(libraryDBPath)
	base := filepath.Base(libraryDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
