package snapshot

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// ComputeStats summarises rows. Amounts stay exact; only the divisions for mean and median are rounded,
// to decimal.DivisionPrecision places.
func ComputeStats(rows []AggregatedDelegator) Stats {
	stats := Stats{
		Count:          len(rows),
		Total:          decimal.Zero,
		Mean:           decimal.Zero,
		Median:         decimal.Zero,
		Max:            decimal.Zero,
		MeanValidators: decimal.Zero,
	}
	if len(rows) == 0 {
		return stats
	}

	amounts := make([]decimal.Decimal, len(rows))
	validators := 0
	for i, r := range rows {
		amounts[i] = r.Amount
		stats.Total = stats.Total.Add(r.Amount)
		validators += len(r.Validators)
	}

	slices.SortFunc(amounts, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	count := decimal.NewFromInt(int64(len(rows)))
	stats.Mean = stats.Total.Div(count)
	stats.Max = amounts[len(amounts)-1]
	stats.MeanValidators = decimal.NewFromInt(int64(validators)).Div(count)

	mid := len(amounts) / 2
	if len(amounts)%2 == 1 {
		stats.Median = amounts[mid]
	} else {
		stats.Median = amounts[mid-1].Add(amounts[mid]).Div(two)
	}

	return stats
}

// BuildReport merges chain results in order and computes per-chain and overall statistics.
func BuildReport(takenAt time.Time, outputPrefix string, results []ChainResult) Report {
	report := Report{
		TakenAt:      takenAt,
		OutputPrefix: outputPrefix,
		Chains:       make([]ChainSummary, 0, len(results)),
	}

	for _, res := range results {
		report.Rows = append(report.Rows, res.Delegators...)
		report.Chains = append(report.Chains, ChainSummary{
			Chain:             res.Chain,
			State:             res.State,
			Err:               res.Err,
			Validators:        res.Validators,
			DroppedValidators: res.DroppedValidators,
			DroppedDelegators: res.DroppedDelegators,
			Duration:          res.Duration,
			Stats:             ComputeStats(res.Delegators),
		})
	}
	report.Overall = ComputeStats(report.Rows)

	return report
}
