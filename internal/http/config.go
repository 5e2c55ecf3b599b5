package http

import (
	"time"

	"github.com/mrlokans/readtrack/internal/demo"
	"github.com/mrlokans/readtrack/internal/search"
	"github.com/mrlokans/readtrack/internal/session"
	"github.com/mrlokans/readtrack/internal/stats"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library  Library
	Sessions *session.Manager
	Stats    *stats.Cache

	// Store health check (optional)
	Store Pinger

	// Search provider and task queue (both optional)
	Search    search.Provider
	TaskQueue TaskQueue

	// Demo mode (optional)
	DemoMiddleware *demo.Middleware

	// Application info
	Version string

	// Now overrides the clock used for statistics
	Now func() time.Time
}
