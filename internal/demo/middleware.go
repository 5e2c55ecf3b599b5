package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware blocks write operations when the demo runs read-only.
// GET requests always pass, and a few live-session paths stay open because
// they only touch in-memory timer state.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether read-only demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "This action is disabled in demo mode",
			"code":      "DEMO_READ_ONLY",
			"demo_mode": true,
		})
	}
}

// isAllowedPath checks if a path is allowed for write operations in demo mode.
// Ending a session records it, so only start, pause and resume are listed.
func (m *Middleware) isAllowedPath(path string) bool {
	allowedSuffixes := []string{
		"/session/start",
		"/session/pause",
		"/session/resume",
	}

	for _, allowed := range allowedSuffixes {
		if strings.HasPrefix(path, "/api/books/") && strings.HasSuffix(path, allowed) {
			return true
		}
	}
	return false
}

// ContextKeyDemoMode is the gin context key holding the demo flag.
const ContextKeyDemoMode = "demo_mode"

// InjectContext stores the demo flag on the request context so handlers can
// report it.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDemoMode, m.enabled)
		c.Next()
	}
}
