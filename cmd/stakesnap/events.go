package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/stakesnap/pkg/logger"
	"github.com/screwyprof/stakesnap/snapshot"
)

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan snapshot.Event, log *slog.Logger, previewRows int, onFailure func(error)) func() {
	return snapshot.NewSubscriber(events,
		snapshot.OnSnapshotStarted(func(event snapshot.SnapshotStarted) {
			log.InfoContext(ctx, "Snapshot started",
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
				slog.Int("chains", event.Chains),
				slog.Int("maxWorkers", event.MaxWorkers),
			)
		}),
		snapshot.OnChainStateChanged(func(event snapshot.ChainStateChanged) {
			log.DebugContext(ctx, "Chain state changed",
				slog.String("chain", event.Chain),
				slog.String("state", event.State.String()),
			)
		}),
		snapshot.OnValidatorsListed(func(event snapshot.ValidatorsListed) {
			log.InfoContext(ctx, "Validators listed",
				slog.String("chain", event.Chain),
				slog.Int("validators", event.Count),
			)
		}),
		snapshot.OnFetchRetried(func(event snapshot.FetchRetried) {
			log.WarnContext(ctx, "Retrying request",
				slog.String("chain", event.Chain),
				slog.String("validator", event.Validator),
				slog.Int("attempt", event.Attempt),
				slog.Duration("delay", event.Delay),
				slog.Any("error", event.Err),
			)
		}),
		snapshot.OnValidatorDropped(func(event snapshot.ValidatorDropped) {
			log.WarnContext(ctx, "Validator dropped",
				slog.String("chain", event.Chain),
				slog.String("validator", event.Validator),
				slog.Any("error", event.Err),
			)
		}),
		snapshot.OnDelegatorDropped(func(event snapshot.DelegatorDropped) {
			log.WarnContext(ctx, "Delegator dropped",
				slog.String("chain", event.Chain),
				slog.String("address", event.Address),
				slog.Any("error", event.Err),
			)
		}),
		snapshot.OnChainAborted(func(event snapshot.ChainAborted) {
			log.ErrorContext(ctx, "Chain aborted",
				slog.String("chain", event.Chain),
				slog.Any("error", event.Err),
			)
		}),
		snapshot.OnChainDone(func(event snapshot.ChainDone) {
			log.InfoContext(ctx, "Chain completed",
				slog.String("chain", event.Chain),
				slog.Int("delegators", event.Delegators),
				slog.Int("validators", event.Validators),
				slog.Int("droppedValidators", event.DroppedValidators),
				slog.Int("droppedDelegators", event.DroppedDelegators),
				slog.Duration("duration", event.Duration),
			)
		}),
		snapshot.OnSnapshotDone(func(event snapshot.SnapshotDone) {
			logSummary(ctx, log, event.Report)
			logPreview(ctx, log, event.Report.Rows, previewRows)
			log.InfoContext(ctx, "Snapshot completed",
				slog.Int("delegators", event.Report.Overall.Count),
				slog.Duration("duration", event.Duration),
			)
		}),
		snapshot.OnSnapshotError(func(event snapshot.SnapshotError) {
			log.ErrorContext(ctx, "Snapshot failed", slog.Any("error", event.Err))
			onFailure(event.Err)
		}),
	)
}

// logSummary logs per-chain and overall statistics, rounded for display only
func logSummary(ctx context.Context, log *slog.Logger, report snapshot.Report) {
	for _, c := range report.Chains {
		attrs := append([]any{
			slog.String("chain", c.Chain),
			slog.String("state", c.State.String()),
		}, statsAttrs(c.Stats)...)
		if c.Err != nil {
			attrs = append(attrs, slog.Any("error", c.Err))
		}
		log.InfoContext(ctx, "Chain summary", attrs...)
	}
	log.InfoContext(ctx, "Overall summary", statsAttrs(report.Overall)...)
}

func statsAttrs(s snapshot.Stats) []any {
	return []any{
		slog.Int("delegators", s.Count),
		slog.String("total", display(s.Total)),
		slog.String("mean", display(s.Mean)),
		slog.String("median", display(s.Median)),
		slog.String("max", display(s.Max)),
		slog.String("meanValidators", display(s.MeanValidators)),
	}
}

func logPreview(ctx context.Context, log *slog.Logger, rows []snapshot.AggregatedDelegator, n int) {
	for _, r := range rows[:min(n, len(rows))] {
		log.InfoContext(ctx, "Report row",
			slog.String("address", r.Address),
			slog.String("amount", r.Amount.String()),
			slog.String("validators", strings.Join(r.Validators, ",")),
			slog.String("originalAddress", r.OriginalAddress),
			slog.String("chain", r.Chain),
		)
	}
}

func display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
