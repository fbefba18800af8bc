package directory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name(), Pool{MaxConns: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strptr(s string) *string { return &s }

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("users table missing: %v", err)
	}
}

func TestParseURL(t *testing.T) {
	cases := []struct {
		in, driver, dsn string
	}{
		{"postgres://u@db/ansuz", driverPostgres, "postgres://u@db/ansuz"},
		{"postgresql://u@db/ansuz", driverPostgres, "postgresql://u@db/ansuz"},
		{"sqlite://data/ansuz.db", driverSQLite, "data/ansuz.db?_journal_mode=WAL&_busy_timeout=5000"},
		{"sqlite:ansuz.db", driverSQLite, "ansuz.db?_journal_mode=WAL&_busy_timeout=5000"},
		{"file:ansuz.db?cache=shared", driverSQLite, "file:ansuz.db?cache=shared&_journal_mode=WAL&_busy_timeout=5000"},
	}
	for _, tc := range cases {
		driver, dsn := parseURL(tc.in)
		if driver != tc.driver || dsn != tc.dsn {
			t.Errorf("parseURL(%q) = (%q, %q), want (%q, %q)", tc.in, driver, dsn, tc.driver, tc.dsn)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: driverPostgres}
	if got := pg.rebind(`a = ? AND b = ?`); got != `a = $1 AND b = $2` {
		t.Errorf("rebind = %q", got)
	}
	lite := &DB{driver: driverSQLite}
	if got := lite.rebind(`a = ?`); got != `a = ?` {
		t.Errorf("rebind = %q", got)
	}
}

func TestFindUserByTag(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	local := models.User{ID: "1", Username: "Natty", URI: strptr("https://tech.lgbt/users/natty")}
	remote := models.User{ID: "0", Username: "natty", Host: strptr("Other.Example")}
	for _, u := range []models.User{local, remote} {
		if err := db.UpsertUser(ctx, u, "", ""); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}

	got, err := db.FindUserByTag(ctx, "NATTY", nil)
	if err != nil {
		t.Fatalf("FindUserByTag: %v", err)
	}
	if got == nil || got.ID != "1" {
		t.Fatalf("host-agnostic lookup = %+v, want local user", got)
	}
	if !got.IsLocal() || got.URI == nil {
		t.Errorf("scanned user = %+v", got)
	}

	got, err = db.FindUserByTag(ctx, "natty", strptr("other.example"))
	if err != nil {
		t.Fatalf("FindUserByTag: %v", err)
	}
	if got == nil || got.ID != "0" || got.Host == nil || *got.Host != "Other.Example" {
		t.Fatalf("host lookup = %+v", got)
	}

	got, err = db.FindUserByTag(ctx, "nobody", nil)
	if err != nil || got != nil {
		t.Errorf("missing user = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestFindUserByURI(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertUser(ctx, models.User{ID: "1", Username: "natty", URI: strptr("https://tech.lgbt/users/natty")}, "", "")

	got, err := db.FindUserByURI(ctx, "https://tech.lgbt/users/natty")
	if err != nil || got == nil || got.Username != "natty" {
		t.Fatalf("FindUserByURI = (%+v, %v)", got, err)
	}
	got, err = db.FindUserByURI(ctx, "https://tech.lgbt/users/other")
	if err != nil || got != nil {
		t.Errorf("missing uri = (%+v, %v), want (nil, nil)", got, err)
	}
}

func countLocal(t *testing.T, db *DB) int {
	t.Helper()
	all, err := db.AllUsers(context.Background())
	if err != nil {
		t.Fatalf("AllUsers: %v", err)
	}
	n := 0
	for _, u := range all {
		if u.IsLocal() {
			n++
		}
	}
	return n
}

func TestUpsertDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertUser(ctx, models.User{ID: "1", Username: "a"}, "", "")
	_ = db.UpsertUser(ctx, models.User{ID: "2", Username: "b"}, "", "")
	_ = db.UpsertUser(ctx, models.User{ID: "3", Username: "c", Host: strptr("x.example")}, "", "")

	if n := countLocal(t, db); n != 2 {
		t.Errorf("local users = %d, want 2", n)
	}

	// Upsert replaces the row in place.
	_ = db.UpsertUser(ctx, models.User{ID: "2", Username: "B", Host: strptr("y.example")}, "", "")
	if n := countLocal(t, db); n != 1 {
		t.Errorf("local users after update = %d, want 1", n)
	}

	if err := db.DeleteUser(ctx, "1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	all, err := db.AllUsers(ctx)
	if err != nil {
		t.Fatalf("AllUsers: %v", err)
	}
	if len(all) != 2 || all[0].Username != "B" || all[1].Username != "c" {
		t.Errorf("AllUsers = %+v", all)
	}
	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func writeRoster(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.yaml")

	// Rows from other sources are left alone.
	_ = db.UpsertUser(ctx, models.User{ID: "manual", Username: "admin"}, "", "")

	writeRoster(t, path, `
users:
  - username: natty
    uri: https://tech.lgbt/users/natty
  - username: bob
    host: remote.example
`)
	stats, err := Sync(ctx, db, path, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats != (SyncStats{Added: 2}) {
		t.Errorf("first sync = %+v", stats)
	}

	// Unchanged roster is a no-op.
	stats, _ = Sync(ctx, db, path, quietLogger())
	if stats.Changed() {
		t.Errorf("second sync = %+v, want no changes", stats)
	}

	writeRoster(t, path, `
users:
  - username: natty
    uri: https://tech.lgbt/users/natty2
`)
	stats, err = Sync(ctx, db, path, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats != (SyncStats{Updated: 1, Removed: 1}) {
		t.Errorf("third sync = %+v", stats)
	}

	u, _ := db.FindUserByTag(ctx, "natty", nil)
	if u == nil || u.URI == nil || *u.URI != "https://tech.lgbt/users/natty2" {
		t.Fatalf("natty = %+v", u)
	}
	if u.ID != UserID("natty") {
		t.Errorf("id = %q, want %q", u.ID, UserID("natty"))
	}
	if u, _ := db.FindUserByTag(ctx, "bob", strptr("remote.example")); u != nil {
		t.Errorf("bob should be removed, got %+v", u)
	}
	if u, _ := db.FindUserByTag(ctx, "admin", nil); u == nil {
		t.Error("manual row should survive sync")
	}
}

func TestSync_MissingFile(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.yaml")

	writeRoster(t, path, "users:\n  - username: natty\n")
	if _, err := Sync(ctx, db, path, quietLogger()); err != nil {
		t.Fatal(err)
	}
	_ = os.Remove(path)

	stats, err := Sync(ctx, db, path, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("stats = %+v, want 1 removed", stats)
	}
}

func TestSync_InvalidRoster(t *testing.T) {
	db := testDB(t)
	path := filepath.Join(t.TempDir(), "roster.yaml")
	writeRoster(t, path, "users:\n  - username: \"no spaces\"\n")
	if _, err := Sync(context.Background(), db, path, quietLogger()); err == nil {
		t.Error("expected validation error")
	}
}
