package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/screwyprof/stakesnap/pkg/bech32conv"
	"github.com/screwyprof/stakesnap/pkg/logger"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Re-encode a file of addresses (one per line) to another bech32 prefix",
		ArgsUsage: "<input_file> <new_prefix> <output_file>",
		Action:    convertAddresses,
	}
}

func convertAddresses(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 3 {
		return cli.Exit(errors.New("usage: stakesnap convert <input_file> <new_prefix> <output_file>"), 2)
	}
	input, prefix, output := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogHumanFriendly: logger.HumanFriendly(nil, os.Stdout),
	})

	res, err := bech32conv.ConvertFile(input, output, prefix)
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, skipped := range res.Skipped {
		log.WarnContext(ctx, "Skipped address",
			slog.Int("line", skipped.Line),
			slog.String("address", skipped.Address),
			slog.Any("error", skipped.Err),
		)
	}
	log.InfoContext(ctx, "Addresses converted",
		slog.Int("converted", res.Converted),
		slog.Int("skipped", len(res.Skipped)),
		slog.String("output", output),
	)
	return nil
}
