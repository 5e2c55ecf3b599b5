package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/session"
)

// SessionsController drives live reading sessions and records finished ones.
type SessionsController struct {
	recorder SessionRecorder
	manager  *session.Manager
}

func NewSessionsController(recorder SessionRecorder, manager *session.Manager) *SessionsController {
	return &SessionsController{recorder: recorder, manager: manager}
}

// RecordSession handles POST /api/books/:id/sessions
func (sc *SessionsController) RecordSession(c *gin.Context) {
	var in entities.SessionInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := sc.recorder.RecordReadingSession(c.Param("id"), in)
	if err != nil {
		respondError(c, err, "record session")
		return
	}
	respondCreated(c, book)
}

type startSessionRequest struct {
	StartPage int `json:"start_page"`
}

// Start handles POST /api/books/:id/session/start
func (sc *SessionsController) Start(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	status, err := sc.manager.Start(c.Param("id"), req.StartPage)
	if err != nil {
		respondError(c, err, "start session")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Pause handles POST /api/books/:id/session/pause
func (sc *SessionsController) Pause(c *gin.Context) {
	status, err := sc.manager.Pause(c.Param("id"))
	if err != nil {
		respondError(c, err, "pause session")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Resume handles POST /api/books/:id/session/resume
func (sc *SessionsController) Resume(c *gin.Context) {
	status, err := sc.manager.Resume(c.Param("id"))
	if err != nil {
		respondError(c, err, "resume session")
		return
	}
	c.JSON(http.StatusOK, status)
}

type endSessionRequest struct {
	EndPage int    `json:"end_page"`
	Notes   string `json:"notes"`
}

// End handles POST /api/books/:id/session/end
func (sc *SessionsController) End(c *gin.Context) {
	var req endSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := sc.manager.End(c.Param("id"), req.EndPage, req.Notes)
	if err != nil {
		respondError(c, err, "end session")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Status handles GET /api/books/:id/session
func (sc *SessionsController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, sc.manager.Status(c.Param("id")))
}

// Active handles GET /api/sessions/active
func (sc *SessionsController) Active(c *gin.Context) {
	active := sc.manager.Active()
	c.JSON(http.StatusOK, gin.H{"sessions": active, "count": len(active)})
}
