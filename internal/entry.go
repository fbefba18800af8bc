// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/activitypub"
	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/directory"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/metrics"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/webfinger"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger initializes the structured JSON logger and makes it the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) openDirectory() (*directory.DB, error) {
	db, err := directory.Open(a.config.Data.DatabaseURL, a.config.Data.Pool())
	if err != nil {
		return nil, fmt.Errorf("init directory: %w", err)
	}
	return db, nil
}

func (a *application) syncRoster(ctx context.Context, db *directory.DB, logger *slog.Logger, m *metrics.Collector) error {
	if a.config.Data.RosterPath == "" {
		return nil
	}
	stats, err := directory.Sync(ctx, db, a.config.Data.RosterPath, logger)
	if err != nil {
		return err
	}
	if m != nil {
		m.ObserveSync(stats.Added, stats.Updated, stats.Removed)
	}
	logger.Info("Roster synced",
		slog.String("roster", a.config.Data.RosterPath),
		slog.Int("added", stats.Added),
		slog.Int("updated", stats.Updated),
		slog.Int("removed", stats.Removed))
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Networking.Address()),
		slog.String("host", cfg.Networking.Host),
		slog.String("protocol", cfg.Networking.Protocol),
		slog.String("roster_path", cfg.Data.RosterPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := app.openDirectory()
	if err != nil {
		return err
	}
	defer db.Close()

	collector := metrics.NewCollector("ansuz")

	// Run initial sync.
	if err := app.syncRoster(ctx, db, logger, collector); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	keys, err := activitypub.GenerateKeys(activitypub.DefaultKeyBits)
	if err != nil {
		return err
	}

	h := api.NewHandler(db, cfg.Networking.Public(), cfg.Branding.NodeInfo(), keys, collector)
	httpServer := &http.Server{
		Addr:              cfg.Networking.Address(),
		Handler:           api.NewRouter(h, collector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.Networking.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start roster watcher.
	if cfg.Data.RosterPath != "" {
		g.Go(func() error {
			err := directory.Watch(gCtx, db, cfg.Data.RosterPath, logger, func(s directory.SyncStats) {
				collector.ObserveSync(s.Added, s.Updated, s.Removed)
			})
			if err != nil {
				logger.Error("roster watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Networking.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the tool server over stdio. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.logger()

	db, err := app.openDirectory()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := app.syncRoster(ctx, db, logger, nil); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(db, app.config.Networking.Public(), app.config.Branding.NodeInfo(), logger)
	return srv.ServeStdio()
}

// Import syncs the roster into the directory once.
func Import(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.config.Data.RosterPath == "" {
		return fmt.Errorf("data.roster_path is not set")
	}
	logger := app.logger()

	db, err := app.openDirectory()
	if err != nil {
		return err
	}
	defer db.Close()

	return app.syncRoster(ctx, db, logger, nil)
}

// Resolve answers one WebFinger query against the directory and writes the
// document to out as indented JSON.
func Resolve(ctx context.Context, out io.Writer, resource string, rels []string, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.logger()

	db, err := app.openDirectory()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := resolver.New(db, app.config.Networking.Public(), logger)
	doc, err := svc.Resolve(ctx, resolver.Query{
		Resource: webfinger.ParseSubject(resource),
		Rels:     rels,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
