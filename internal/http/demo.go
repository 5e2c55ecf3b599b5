package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/demo"
)

// DemoController handles demo mode related endpoints.
type DemoController struct {
	middleware *demo.Middleware
}

func NewDemoController(middleware *demo.Middleware) *DemoController {
	return &DemoController{
		middleware: middleware,
	}
}

type DemoStatusResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// GetStatus handles GET /api/demo/status
func (dc *DemoController) GetStatus(c *gin.Context) {
	if dc.middleware == nil || !dc.middleware.IsEnabled() {
		c.JSON(http.StatusOK, DemoStatusResponse{
			Enabled: false,
			Message: "Demo mode is not active",
		})
		return
	}

	c.JSON(http.StatusOK, DemoStatusResponse{
		Enabled: true,
		Message: "Demo mode is active - write operations are blocked",
	})
}
