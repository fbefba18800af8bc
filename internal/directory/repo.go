package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

const userColumns = `id, username, host, uri`

// FindUserByTag looks a user up by name and, when host is non-nil, by host.
// Both are compared case-insensitively. Without a host any user of that name
// matches, local users first. It returns (nil, nil) when nobody matches.
func (db *DB) FindUserByTag(ctx context.Context, name string, host *string) (*models.User, error) {
	var row *sql.Row
	if host != nil {
		row = db.conn.QueryRowContext(ctx, db.rebind(`
			SELECT `+userColumns+` FROM users
			WHERE username_lower = ? AND lower(host) = ?
			ORDER BY id
			LIMIT 1
		`), strings.ToLower(name), strings.ToLower(*host))
	} else {
		row = db.conn.QueryRowContext(ctx, db.rebind(`
			SELECT `+userColumns+` FROM users
			WHERE username_lower = ?
			ORDER BY CASE WHEN host IS NULL THEN 0 ELSE 1 END, id
			LIMIT 1
		`), strings.ToLower(name))
	}
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("directory: find by tag: %w", err)
	}
	return u, nil
}

// FindUserByURI looks a user up by exact URI. It returns (nil, nil) when
// nobody matches.
func (db *DB) FindUserByURI(ctx context.Context, uri string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+userColumns+` FROM users
		WHERE uri = ?
		ORDER BY id
		LIMIT 1
	`), uri)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("directory: find by uri: %w", err)
	}
	return u, nil
}

// UpsertUser inserts or replaces a user row, recording where it came from.
func (db *DB) UpsertUser(ctx context.Context, u models.User, source, checksum string) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO users (id, username, username_lower, host, uri, source, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username       = excluded.username,
			username_lower = excluded.username_lower,
			host           = excluded.host,
			uri            = excluded.uri,
			source         = excluded.source,
			checksum       = excluded.checksum
	`), u.ID, u.Username, strings.ToLower(u.Username), nullable(u.Host), nullable(u.URI), source, checksum)
	if err != nil {
		return fmt.Errorf("directory: upsert user: %w", err)
	}
	return nil
}

// DeleteUser removes a user row.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return fmt.Errorf("directory: delete user: %w", err)
	}
	return nil
}

// AllUsers returns every user ordered by lowercase name, local users first.
func (db *DB) AllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY username_lower, CASE WHEN host IS NULL THEN 0 ELSE 1 END, host
	`)
	if err != nil {
		return nil, fmt.Errorf("directory: all users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every user imported from source,
// keyed by id.
func (db *DB) AllChecksums(ctx context.Context, source string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`SELECT id, checksum FROM users WHERE source = ?`), source)
	if err != nil {
		return nil, fmt.Errorf("directory: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u    models.User
		host sql.NullString
		uri  sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &host, &uri); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if host.Valid {
		u.Host = &host.String
	}
	if uri.Valid {
		u.URI = &uri.String
	}
	return &u, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
