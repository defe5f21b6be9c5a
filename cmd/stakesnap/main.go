package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "stakesnap",
		Usage:   "Snapshot Cosmos delegators staking above a threshold across chains",
		Version: fmt.Sprintf("%s (%s)", version, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load before reading configuration",
				Value:   ".env",
				Aliases: []string{"e"},
				Sources: cli.EnvVars("STAKESNAP_ENVFILE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) error {
			return loadEnvFile(cmd.String("envfile"))
		},
		Commands: []*cli.Command{
			runCommand(),
			convertCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.ErrorContext(ctx, "stakesnap failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
