package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default SQLite path for the catalog database.
	// Set DATABASE_URL to a postgres:// DSN to use PostgreSQL instead.
	DefaultDatabasePath = "./bookcatalog.db"

	// DefaultSessionDBPath is the default path for the session store database.
	DefaultSessionDBPath = "./bookcatalog-sessions.db"

	// DefaultTasksDBPath is the default path for the background task database.
	DefaultTasksDBPath = "./bookcatalog-tasks.db"

	// DefaultGoodreadsBaseURL is the base URL of the external ratings service.
	DefaultGoodreadsBaseURL = "https://www.goodreads.com"
)
