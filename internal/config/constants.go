package config

const (
	// DefaultDatabasePath is the default path for the SQLite library database
	DefaultDatabasePath = "./readtrack.db"

	// DefaultBadgerDir is the default directory for the badger store
	DefaultBadgerDir = "./readtrack-badger"

	StorageSQLite = "sqlite"
	StorageBadger = "badger"
)
