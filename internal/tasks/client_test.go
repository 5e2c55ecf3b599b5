package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/errors"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

func TestClient_ImportSearch(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "library.db"), Config{Workers: 1})
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	_, err = client.ImportSearch(SearchImportTask{Query: "dune"})
	assert.ErrorIs(t, err, errors.ErrInvalidState, "queue without a search import handler")

	client.EnableSearchImport(&stubProvider{}, &stubImporter{})

	_, err = client.ImportSearch(SearchImportTask{Query: "   "})
	assert.ErrorIs(t, err, errors.ErrValidation)

	taskID, err := client.ImportSearch(SearchImportTask{Query: "dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	// Workers are not started, so the task stays queued.
	state, err := client.TaskState(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, TaskPending, state)

	_, err = client.TaskState(ctx, "missing-task")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "readtrack-tasks.db"), TasksDBPath(filepath.Join("data", "readtrack.db")))
	assert.Equal(t, "library-tasks", TasksDBPath("library"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)

	assert.Equal(t, cfg, Config{}.withDefaults())
	assert.Equal(t, 4, Config{Workers: 4}.withDefaults().Workers)
}
