package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if path := cmd.String("roster"); path != "" {
		cfg.Data.RosterPath = path
	}
	return internal.Import(ctx, internal.WithConfig(cfg))
}

func runResolve(ctx context.Context, cmd *cli.Command) error {
	resource := cmd.Args().First()
	if resource == "" {
		return fmt.Errorf("resolve: resource argument is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Resolve(ctx, os.Stdout, resource, cmd.StringSlice("rel"), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "WebFinger, NodeInfo and ActivityPub discovery responder for a fediverse host",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("ANSUZ_CONFIG_PATH", "APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the discovery endpoints (default)",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve directory lookups as MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:  "import",
				Usage: "Sync the roster file into the user directory once",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "roster",
						Usage: "Roster file to import instead of data.roster_path",
					},
				},
				Action: runImport,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve one WebFinger resource and print the document",
				ArgsUsage: "<acct:name@host | uri>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "rel",
						Usage: "Link relation to keep (repeatable)",
					},
				},
				Action: runResolve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
