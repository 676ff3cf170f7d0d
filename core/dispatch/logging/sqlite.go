package logging

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	schema: `CREATE TABLE IF NOT EXISTS dispatch_outcomes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        device_id TEXT,
        failed BOOLEAN,
        record TEXT
    );`,
	placeholder: func(int) string { return "?" },
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return newSQLStore(db, sqliteDialect)
}
