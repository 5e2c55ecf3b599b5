package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readtrack/internal/audit"
	"github.com/mrlokans/readtrack/internal/database"
	"github.com/mrlokans/readtrack/internal/exporters"
	"github.com/mrlokans/readtrack/internal/http"
	"github.com/mrlokans/readtrack/internal/kvstore"
	"github.com/mrlokans/readtrack/internal/library"
	"github.com/mrlokans/readtrack/internal/scheduler"
	"github.com/mrlokans/readtrack/internal/search"
	"github.com/mrlokans/readtrack/internal/session"
	"github.com/mrlokans/readtrack/internal/stats"
	"github.com/mrlokans/readtrack/internal/storage"
	"github.com/mrlokans/readtrack/internal/tasks"
)

// =============================================================================
// Persistence
// =============================================================================

// Durable stores
var _ library.Store = (*database.Database)(nil)
var _ library.Store = (*kvstore.Store)(nil)
var _ library.SettingsStore = (*database.Database)(nil)
var _ library.SettingsStore = (*kvstore.Store)(nil)
var _ storage.Store = (*database.Database)(nil)
var _ storage.Store = (*kvstore.Store)(nil)

// Failure snapshots
var _ library.Auditor = (*audit.Auditor)(nil)

// =============================================================================
// Repository consumers
// =============================================================================

var _ http.Library = (*library.Repository)(nil)
var _ session.Library = (*library.Repository)(nil)
var _ stats.Source = (*library.Repository)(nil)
var _ tasks.Importer = (*library.Repository)(nil)
var _ scheduler.Reconciler = (*library.Repository)(nil)

// Health checks
var _ http.Pinger = (*database.Database)(nil)
var _ http.Pinger = (*kvstore.Store)(nil)

// =============================================================================
// External Services
// =============================================================================

// Search providers
var _ search.Provider = (*search.OpenLibraryClient)(nil)
var _ search.Provider = (*search.GoogleBooksClient)(nil)

// Background queue
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Export
// =============================================================================

var _ exporters.BookExporter = (*exporters.MarkdownExporter)(nil)
