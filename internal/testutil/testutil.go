// Package testutil provides shared test helpers for setting up directories.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/directory"
	"github.com/starford/ansuz/internal/models"
)

// TestDB creates a temporary SQLite directory that is automatically cleaned up.
func TestDB(t *testing.T) *directory.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := directory.Open(dbFile.Name(), directory.Pool{MaxConns: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Seed inserts users into db, giving each an id derived from its key when
// none is set.
func Seed(t *testing.T, db directory.Directory, users ...models.User) {
	t.Helper()
	for _, u := range users {
		if u.ID == "" {
			u.ID = directory.UserID(u.Key())
		}
		if err := db.UpsertUser(context.Background(), u, "", ""); err != nil {
			t.Fatalf("seed %s: %v", u.Key(), err)
		}
	}
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
