// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Persistence Interfaces
//
//   - library.Store: Init/Load/SaveAll/Close over the whole book graph (internal/library/repository.go)
//   - library.SettingsStore: small key/value settings such as the reading goal
//   - library.Auditor: receives a cache snapshot when a durable write fails
//   - storage.Store: a library.Store that can also be pinged (internal/storage/storage.go)
//
// Implementations: database.Database (SQLite through gorm) and kvstore.Store (badger).
//
// ## Repository Consumers
//
// The HTTP layer, the session manager, the statistics cache, the task queue and the
// reconcile scheduler each depend on a narrow view of library.Repository:
//
//   - http.Library: composite of BookStore, CollectionStore, SessionRecorder, StatsSource,
//     CandidateImporter and PersistenceStatus (internal/http/stores.go)
//   - session.Library: GetBook + RecordReadingSession (internal/session/manager.go)
//   - stats.Source: Version + Books (internal/stats/summary.go)
//   - tasks.Importer: ImportCandidate (internal/tasks/search_import.go)
//   - scheduler.Reconciler: Reconcile (internal/scheduler/reconcile.go)
//
// ## External Service Interfaces
//
//   - search.Provider: catalogue search returning ExternalBookCandidate values (internal/search/provider.go)
//   - http.TaskQueue: ImportSearch + TaskState over the backlite queue (internal/http/search.go)
//
// # Adding a New Search Provider
//
//  1. Implement Provider in internal/search/
//
//     type ISBNdbClient struct {
//         apiKey      string
//         httpClient  *http.Client
//         rateLimiter *rate.Limiter
//     }
//
//     func (c *ISBNdbClient) Search(ctx context.Context, query string) ([]entities.ExternalBookCandidate, error)
//
//     var _ Provider = (*ISBNdbClient)(nil)
//
//  2. Add a case to search.New and a SEARCH_PROVIDER value.
//
// # Adding a New Storage Engine
//
//  1. Implement library.Store (and library.SettingsStore for the reading goal).
//     SaveAll must replace the stored graph atomically: a failed write leaves the
//     previous state in place.
//
//  2. Add a Ping method and a case to storage.Open.
//
//  3. Add compile-time checks to checks.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
