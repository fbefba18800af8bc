package directory

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/roster"
)

// SourceRoster marks rows imported from the roster file.
const SourceRoster = "roster"

// SyncStats counts the row changes made by a Sync.
type SyncStats struct {
	Added   int
	Updated int
	Removed int
}

// Changed reports whether the sync touched any row.
func (s SyncStats) Changed() bool {
	return s.Added+s.Updated+s.Removed > 0
}

// UserID returns the stable id of the account with the given key.
func UserID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ansuz:user:"+key)).String()
}

// Sync reads the roster at path and brings the directory up to date:
//   - new/changed entries are upserted
//   - roster rows no longer in the file are deleted
//
// A missing file is an empty roster.
func Sync(ctx context.Context, db Directory, path string, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return stats, err
	}
	entries, err := roster.Parse(data)
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums(ctx, SourceRoster)
	if err != nil {
		return stats, err
	}

	want := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		u := models.User{ID: UserID(e.Key()), Username: e.Username, Host: e.Host, URI: e.URI}
		want[u.ID] = struct{}{}

		cs := entryChecksum(e)
		old, known := checksums[u.ID]
		if known && old == cs {
			continue
		}
		if err := db.UpsertUser(ctx, u, SourceRoster, cs); err != nil {
			logger.Warn("sync: upsert failed", slog.String("user", e.Key()), slog.String("error", err.Error()))
			continue
		}
		if known {
			stats.Updated++
		} else {
			stats.Added++
		}
		logger.Debug("sync: upserted", slog.String("user", e.Key()))
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := want[id]; ok {
			continue
		}
		if err := db.DeleteUser(ctx, id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("id", id))
	}

	return stats, nil
}

// entryChecksum covers every stored field, including the username's case.
func entryChecksum(e roster.Entry) string {
	var host, uri string
	if e.Host != nil {
		host = *e.Host
	}
	if e.URI != nil {
		uri = *e.URI
	}
	return checksum.Fields(e.Username, host, uri)
}
