package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Audit
		Demo
		Reconcile
		Search
		Tasks
		Session
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path      string
		Engine    string // sqlite or badger
		BadgerDir string
	}
	Audit struct {
		Dir string
	}
	Demo struct {
		Enabled     bool // Seed the library when hydration fails
		SeedOnEmpty bool // Also seed an empty store
		ReadOnly    bool // Block write requests
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Search struct {
		Provider       string // openlibrary or googlebooks
		Timeout        time.Duration
		RatePerSecond  float64
		GoogleBooksKey string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Session struct {
		TickInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("storage_engine", StorageSQLite)
	v.SetDefault("badger_dir", DefaultBadgerDir)
	v.SetDefault("audit_dir", "./audit")

	v.SetDefault("demo_mode", false)
	v.SetDefault("demo_seed_on_empty", false)
	v.SetDefault("demo_read_only", false)

	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_schedule", "*/15 * * * *")

	v.SetDefault("search_provider", "openlibrary")
	v.SetDefault("search_timeout", "10s")
	v.SetDefault("search_rate_per_second", 1.0)
	v.SetDefault("google_books_api_key", "")

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("session_tick_interval", "1s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:      v.GetString("DATABASE_PATH"),
			Engine:    v.GetString("STORAGE_ENGINE"),
			BadgerDir: v.GetString("BADGER_DIR"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Demo: Demo{
			Enabled:     v.GetBool("DEMO_MODE"),
			SeedOnEmpty: v.GetBool("DEMO_SEED_ON_EMPTY"),
			ReadOnly:    v.GetBool("DEMO_READ_ONLY"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("RECONCILE_ENABLED"),
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
		},
		Search: Search{
			Provider:       v.GetString("SEARCH_PROVIDER"),
			Timeout:        v.GetDuration("SEARCH_TIMEOUT"),
			RatePerSecond:  v.GetFloat64("SEARCH_RATE_PER_SECOND"),
			GoogleBooksKey: v.GetString("GOOGLE_BOOKS_API_KEY"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Session: Session{
			TickInterval: v.GetDuration("SESSION_TICK_INTERVAL"),
		},
	}
}
