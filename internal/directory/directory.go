package directory

import (
	"context"

	"github.com/starford/ansuz/internal/models"
)

// Directory defines the user store operations. Consumers should depend on
// this interface, or a narrower one, rather than the concrete *DB type.
type Directory interface {
	FindUserByTag(ctx context.Context, name string, host *string) (*models.User, error)
	FindUserByURI(ctx context.Context, uri string) (*models.User, error)
	UpsertUser(ctx context.Context, u models.User, source, checksum string) error
	DeleteUser(ctx context.Context, id string) error
	AllUsers(ctx context.Context) ([]models.User, error)
	AllChecksums(ctx context.Context, source string) (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies Directory at compile time.
var _ Directory = (*DB)(nil)
