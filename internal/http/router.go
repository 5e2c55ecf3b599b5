package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.InjectContext())
		router.Use(cfg.DemoMiddleware.Handler())
	}

	health := NewHealthController(cfg.Store, cfg.Library, cfg.Version)
	books := NewBooksController(cfg.Library)
	collections := NewCollectionsController(cfg.Library)
	sessions := NewSessionsController(cfg.Library, cfg.Sessions)
	statistics := NewStatsController(cfg.Library, cfg.Stats, cfg.Now)
	demoController := NewDemoController(cfg.DemoMiddleware)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Books
	api.GET("/books", books.ListBooks)
	api.POST("/books", books.CreateBook)
	api.GET("/books/:id", books.GetBook)
	api.PATCH("/books/:id", books.UpdateBook)
	api.DELETE("/books/:id", books.DeleteBook)
	api.PUT("/books/:id/status", books.SetStatus)

	// Bookmarks and annotations
	api.POST("/books/:id/bookmarks", collections.AddBookmark)
	api.PATCH("/books/:id/bookmarks/:bookmarkId", collections.UpdateBookmark)
	api.DELETE("/books/:id/bookmarks/:bookmarkId", collections.DeleteBookmark)
	api.POST("/books/:id/annotations/:kind", collections.AddAnnotation)
	api.PATCH("/books/:id/annotations/:kind/:annotationId", collections.UpdateAnnotation)
	api.DELETE("/books/:id/annotations/:kind/:annotationId", collections.DeleteAnnotation)

	// Reading sessions
	api.POST("/books/:id/sessions", sessions.RecordSession)
	if cfg.Sessions != nil {
		api.GET("/books/:id/session", sessions.Status)
		api.POST("/books/:id/session/start", sessions.Start)
		api.POST("/books/:id/session/pause", sessions.Pause)
		api.POST("/books/:id/session/resume", sessions.Resume)
		api.POST("/books/:id/session/end", sessions.End)
		api.GET("/sessions/active", sessions.Active)
	}

	// Statistics and goal
	api.GET("/stats", statistics.Summary)
	api.GET("/stats/tags", statistics.Tags)
	api.GET("/stats/monthly", statistics.Monthly)
	api.GET("/goal", statistics.GetGoal)
	api.PUT("/goal", statistics.SetGoal)

	// Search and import
	if cfg.Search != nil {
		searchController := NewSearchController(cfg.Search, cfg.Library, cfg.TaskQueue)
		api.GET("/search", searchController.Search)
		api.POST("/search/import", searchController.Import)
		api.POST("/search/import/async", searchController.ImportAsync)
		api.GET("/tasks/:id", searchController.TaskStatus)
	}

	api.GET("/demo/status", demoController.GetStatus)

	return router
}
