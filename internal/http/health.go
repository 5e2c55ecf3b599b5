package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	store       Pinger
	persistence PersistenceStatus
	version     string
}

func NewHealthController(store Pinger, persistence PersistenceStatus, version string) *HealthController {
	return &HealthController{
		store:       store,
		persistence: persistence,
		version:     version,
	}
}

// Status reports "unhealthy" when the store is unreachable and "degraded"
// when the latest durable write failed but the cache is still serving.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			checks["store"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	if h.persistence != nil {
		if err := h.persistence.LastPersistenceError(); err != nil {
			checks["persistence"] = "error: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["persistence"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
