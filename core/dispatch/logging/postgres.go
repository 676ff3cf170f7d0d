package logging

import (
	"database/sql"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	schema: `CREATE TABLE IF NOT EXISTS dispatch_outcomes (
        id BIGSERIAL PRIMARY KEY,
        ts BIGINT NOT NULL,
        device_id TEXT NOT NULL,
        failed BOOLEAN NOT NULL,
        record TEXT NOT NULL
    );`,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// NewPostgresStore connects to the database described by dsn and ensures schema.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(db, postgresDialect)
}
