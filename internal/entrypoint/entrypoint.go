package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/audit"
	"github.com/mrlokans/readtrack/internal/config"
	"github.com/mrlokans/readtrack/internal/demo"
	"github.com/mrlokans/readtrack/internal/entities"
	http_controllers "github.com/mrlokans/readtrack/internal/http"
	"github.com/mrlokans/readtrack/internal/library"
	"github.com/mrlokans/readtrack/internal/scheduler"
	"github.com/mrlokans/readtrack/internal/search"
	"github.com/mrlokans/readtrack/internal/session"
	"github.com/mrlokans/readtrack/internal/stats"
	"github.com/mrlokans/readtrack/internal/storage"
	"github.com/mrlokans/readtrack/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is SIGINT, plain kill sends SIGTERM; SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before flushing the library.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// App holds the long-lived components wired from configuration.
type App struct {
	Store      storage.Store
	Library    *library.Repository
	Sessions   *session.Manager
	Stats      *stats.Cache
	Search     search.Provider
	Tasks      *tasks.Client
	Reconciler *scheduler.ReconcileScheduler
	Demo       *demo.Middleware

	cancelTasks context.CancelFunc
}

// Build opens the store, hydrates the library and creates the background
// workers. Hydration failures are logged and the library keeps serving from
// the seed or an empty cache.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Reconcile.Enabled {
		if err := scheduler.ValidateSchedule(cfg.Reconcile.Schedule); err != nil {
			return nil, fmt.Errorf("invalid RECONCILE_SCHEDULE %q: %w", cfg.Reconcile.Schedule, err)
		}
	}

	store, err := storage.OpenConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	var seed []entities.Book
	if cfg.Demo.Enabled {
		seed, err = demo.Seed()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load demo seed: %w", err)
		}
		log.Printf("Demo mode enabled with %d seed books", len(seed))
	}

	repo := library.New(store, library.Options{
		Seed:        seed,
		SeedOnEmpty: cfg.Demo.Enabled && cfg.Demo.SeedOnEmpty,
		Auditor:     audit.NewAuditor(cfg.Audit.Dir),
	})
	if err := repo.Hydrate(ctx); err != nil {
		log.Printf("WARNING: %v", err)
	}
	repo.Subscribe(func(ev library.Event) {
		if ev.Type == library.EventPersistenceWarning {
			log.Printf("WARNING: durable write failed: %v", ev.Err)
		}
	})

	app := &App{
		Store:   store,
		Library: repo,
		Sessions: session.NewManager(repo, session.Options{
			TickInterval: cfg.Session.TickInterval,
		}),
		Stats: &stats.Cache{},
	}
	app.Sessions.FollowRemovals(repo)

	if cfg.Demo.ReadOnly {
		log.Printf("Read-only demo mode - write operations will be blocked")
		app.Demo = demo.NewMiddleware(true)
	}

	app.Search, err = search.New(search.Config{
		Provider:       cfg.Search.Provider,
		Timeout:        cfg.Search.Timeout,
		RatePerSecond:  cfg.Search.RatePerSecond,
		GoogleBooksKey: cfg.Search.GoogleBooksKey,
	})
	if err != nil {
		log.Printf("WARNING: search disabled: %v", err)
	}

	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		if app.Search != nil {
			app.Tasks.EnableSearchImport(app.Search, repo)
		}
	}

	if cfg.Reconcile.Enabled {
		app.Reconciler = scheduler.NewReconcileScheduler(repo, cfg.Reconcile.Schedule)
	}

	return app, nil
}

// Start launches the task workers and the reconcile schedule.
func (a *App) Start(ctx context.Context) error {
	if a.Tasks != nil {
		var taskCtx context.Context
		taskCtx, a.cancelTasks = context.WithCancel(ctx)
		go a.Tasks.Start(taskCtx)
	}
	if a.Reconciler != nil {
		if err := a.Reconciler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reconcile scheduler: %w", err)
		}
	}
	return nil
}

// RouterConfig returns the HTTP dependencies for the app.
func (a *App) RouterConfig(version string) http_controllers.RouterConfig {
	cfg := http_controllers.RouterConfig{
		Library:        a.Library,
		Sessions:       a.Sessions,
		Stats:          a.Stats,
		Store:          a.Store,
		Search:         a.Search,
		DemoMiddleware: a.Demo,
		Version:        version,
	}
	// Leave the interface nil when the queue is disabled.
	if a.Tasks != nil {
		cfg.TaskQueue = a.Tasks
	}
	return cfg
}

// Close stops background work, flushes the library and closes the store.
func (a *App) Close(ctx context.Context) {
	if a.Reconciler != nil {
		a.Reconciler.Stop()
	}
	if a.Tasks != nil {
		a.Tasks.Stop(ctx)
		if a.cancelTasks != nil {
			a.cancelTasks()
		}
		if err := a.Tasks.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if a.Sessions != nil {
		a.Sessions.SuspendAll()
	}
	if err := a.Library.Close(ctx); err != nil {
		log.Printf("Error flushing library: %v", err)
	}
	if err := a.Store.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting ReadTrack v%s", version)

	ctx := context.Background()
	app, err := Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	if err := app.Start(ctx); err != nil {
		app.Close(ctx)
		log.Fatalf("Failed to start: %v", err)
	}

	router := http_controllers.NewRouter(app.RouterConfig(version))

	Serve(router, cfg, app.Close)
}
