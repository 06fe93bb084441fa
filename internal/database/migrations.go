package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1Lookups,
}

// migrationV1Lookups creates the lookup history table.
//
// month is NULL for full-year renders. created_at is fixed-width RFC3339
// text written by the application, so tests can control it.
const migrationV1Lookups = `
CREATE TABLE IF NOT EXISTS lookups (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	year       INTEGER NOT NULL CHECK (year >= 1582),
	month      INTEGER CHECK (month IS NULL OR (month BETWEEN 1 AND 12)),
	source     TEXT NOT NULL CHECK (source IN ('console', 'api')),
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups (created_at);
CREATE INDEX IF NOT EXISTS idx_lookups_year ON lookups (year);
`
