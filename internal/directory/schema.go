// Package directory stores the accounts that WebFinger and the ActivityPub
// stubs resolve against. It runs on SQLite or PostgreSQL.
package directory

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	username       TEXT NOT NULL,
	username_lower TEXT NOT NULL,
	host           TEXT,
	uri            TEXT,
	source         TEXT NOT NULL DEFAULT '',
	checksum       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(username_lower);
CREATE INDEX IF NOT EXISTS idx_users_uri ON users(uri);
`

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Pool bounds the connection pool.
type Pool struct {
	MinConns int
	MaxConns int
}

// DB wraps a sql.DB with directory-specific operations.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to databaseURL and applies the schema. postgres:// and
// postgresql:// URLs use PostgreSQL; anything else is taken as a SQLite
// file, with an optional sqlite: prefix.
func Open(databaseURL string, pool Pool) (*DB, error) {
	driver, dsn := parseURL(databaseURL)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("directory: open db: %w", err)
	}
	if pool.MaxConns > 0 {
		conn.SetMaxOpenConns(pool.MaxConns)
	}
	if pool.MinConns > 0 {
		conn.SetMaxIdleConns(pool.MinConns)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("directory: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("directory: apply schema: %w", err)
	}
	return &DB{conn: conn, driver: driver}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func parseURL(databaseURL string) (driver, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return driverPostgres, databaseURL
	}
	path := strings.TrimPrefix(strings.TrimPrefix(databaseURL, "sqlite://"), "sqlite:")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return driverSQLite, path + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
