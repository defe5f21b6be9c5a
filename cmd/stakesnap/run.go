package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/screwyprof/stakesnap/pkg/bech32conv"
	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/logger"
	"github.com/screwyprof/stakesnap/pkg/pgxdb"
	"github.com/screwyprof/stakesnap/snapshot"
	"github.com/screwyprof/stakesnap/snapshot/config"
	"github.com/screwyprof/stakesnap/snapshot/store/csvstore"
	"github.com/screwyprof/stakesnap/snapshot/store/pgxstore"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Take a snapshot of all configured chains and write the report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "chains",
				Usage: "chains YAML file (overrides SNAPSHOT_CHAINS_FILE)",
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "report CSV path (overrides SNAPSHOT_OUTPUT_FILE)",
				Aliases: []string{"o"},
			},
		},
		Action: runSnapshot,
	}
}

func runSnapshot(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Parse(nil)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if cmd.IsSet("chains") {
		cfg.ChainsFile = cmd.String("chains")
	}
	if cmd.IsSet("output") {
		cfg.OutputFile = cmd.String("output")
	}

	// Initialize logger and set as default
	log := logger.NewFromConfig(cfg.Logger(logger.HumanFriendly(cfg.LogHumanFriendly, os.Stdout)))
	slog.SetDefault(log)

	chains, err := config.LoadChains(cfg.ChainsFile, cfg.PageSize)
	if err != nil {
		return cli.Exit(err, 1)
	}

	// HTTP client & REST clients per chain
	httpClient := &http.Client{
		Timeout:   cfg.HttpClientTimeout,
		Transport: logger.NewTransport(log, http.DefaultTransport),
	}
	clients := func(chain snapshot.ChainConfig) snapshot.Client {
		return cosmosrest.NewClient(httpClient, chain.APIURL)
	}

	// Report writers: the database copy goes first so the file only appears once it committed
	var writers []snapshot.ReportWriter
	if cfg.DatabaseURL != "" {
		db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return cli.Exit(err, 1)
		}
		store, storeCloser := pgxstore.New(db)
		defer storeCloser()
		writers = append(writers, store)
	}
	writers = append(writers, csvstore.New(cfg.OutputFile))

	reg := prometheus.NewRegistry()
	service := snapshot.NewService(
		cfg.Snapshot(chains),
		clients,
		bech32conv.Reencoder{},
		snapshot.Writers(writers...),
		snapshot.WithMetrics(snapshot.NewMetrics(reg)),
	)

	log.InfoContext(ctx, "Starting snapshot",
		slog.Int("chains", len(chains)),
		slog.String("outputPrefix", cfg.OutputPrefix),
		slog.String("outputFile", cfg.OutputFile),
		slog.Bool("database", cfg.DatabaseURL != ""),
	)
	events, done := service.Start(ctx)

	// Subscribe to events for logging
	var runErr error
	subCloser := setupEventLogging(ctx, events, log, cfg.PreviewRows, func(err error) { runErr = err })

	// Wait for the run to finish and every event to be logged
	<-done
	subCloser()

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			log.ErrorContext(ctx, "Failed to write metrics", slog.String("file", cfg.MetricsFile), slog.Any("error", err))
		}
	}

	if runErr != nil {
		return cli.Exit(runErr, 1)
	}
	log.InfoContext(ctx, "Report written", slog.String("file", cfg.OutputFile))
	return nil
}
