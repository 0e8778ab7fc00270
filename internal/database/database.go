package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// The UNIQUE constraint on email is the real uniqueness guarantee; the
// pre-insert existence check in the service layer is only a fast path.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		addr_country TEXT NOT NULL DEFAULT '',
		addr_city TEXT NOT NULL DEFAULT '',
		addr_state TEXT NOT NULL DEFAULT '',
		addr_postal_code TEXT NOT NULL DEFAULT '',
		addr_tax_id TEXT NOT NULL DEFAULT '',
		profile_image TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
