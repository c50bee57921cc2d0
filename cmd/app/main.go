package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/brymcon/mindlink/internal"
	pkgconfig "github.com/brymcon/mindlink/pkg/config"
)

// loadConfig reads the config file and applies command-line overrides. A
// missing default config file is not an error; defaults plus flags are used.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	cfg := internal.NewDefaultConfig()

	override := func(c *internal.Config) {
		if cmd.IsSet("vault") {
			c.Vault.Path = cmd.String("vault")
		}
		if cmd.IsSet("dry-run") {
			c.DryRun = cmd.Bool("dry-run")
		}
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
		return cfg, nil
	}

	if err := pkgconfig.Load(configPath, cfg, override); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func link(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sum, err := internal.Run(ctx, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("link pass error: %w", err)
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d notes failed to update", sum.Failed)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "mindlink",
		Usage:   "Link notes in a Markdown vault by their shared tags",
		Version: internal.Version,
		Action:  link,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides vault.path)",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report planned changes without writing (overrides dry_run)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the tag graph over a read-only HTTP API and refresh it on file changes",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the tag graph to MCP clients over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
