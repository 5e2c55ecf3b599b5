package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/search"
	"github.com/mrlokans/readtrack/internal/tasks"
)

// TaskQueue runs search imports in the background and reports their state.
type TaskQueue interface {
	ImportSearch(task tasks.SearchImportTask) (string, error)
	TaskState(ctx context.Context, taskID string) (tasks.TaskState, error)
}

// SearchController looks up books in the external catalogue and imports them.
type SearchController struct {
	provider search.Provider
	importer CandidateImporter
	queue    TaskQueue
}

// NewSearchController creates a SearchController. queue may be nil when the
// task queue is disabled.
func NewSearchController(provider search.Provider, importer CandidateImporter, queue TaskQueue) *SearchController {
	return &SearchController{provider: provider, importer: importer, queue: queue}
}

// Search handles GET /api/search?q=
func (sc *SearchController) Search(c *gin.Context) {
	candidates, err := sc.provider.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		sc.respondSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "count": len(candidates)})
}

type importResponse struct {
	Book    entities.Book `json:"book"`
	Created bool          `json:"created"`
}

// Import handles POST /api/search/import with a candidate from a previous
// search. Existing duplicates are returned with 200 and created=false.
func (sc *SearchController) Import(c *gin.Context) {
	var candidate entities.ExternalBookCandidate
	if !bindJSON(c, &candidate) {
		return
	}

	book, created, err := sc.importer.ImportCandidate(candidate)
	if err != nil {
		respondError(c, err, "import candidate")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, importResponse{Book: book, Created: created})
}

// ImportAsync handles POST /api/search/import/async. The search and import run
// on the task queue.
func (sc *SearchController) ImportAsync(c *gin.Context) {
	if sc.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}

	var task tasks.SearchImportTask
	if !bindJSON(c, &task) {
		return
	}

	taskID, err := sc.queue.ImportSearch(task)
	if err != nil {
		respondError(c, err, "enqueue search import")
		return
	}
	respondAccepted(c, "task enqueued", gin.H{"task_id": taskID, "type": task.Config().Name})
}

// TaskStatus handles GET /api/tasks/:id
func (sc *SearchController) TaskStatus(c *gin.Context) {
	if sc.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	taskID := c.Param("id")
	state, err := sc.queue.TaskState(ctx, taskID)
	if err != nil {
		respondError(c, err, "task status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": taskID, "status": state})
}

// respondSearchError passes domain errors through and reports everything else
// as an upstream failure.
func (sc *SearchController) respondSearchError(c *gin.Context, err error) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		respondError(c, err, "search")
		return
	}
	log.Printf("[HTTP] Search provider error: %v", err)
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: "search provider unavailable", Code: "UPSTREAM_ERROR"})
}

