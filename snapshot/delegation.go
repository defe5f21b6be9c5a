package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainConfig describes one chain to snapshot. Threshold applies both to single delegations and to a delegator's total.
type ChainConfig struct {
	Name      string
	APIURL    string
	Prefix    string
	Threshold decimal.Decimal
	PageSize  uint64
}

// DelegationRecord is one delegation that passed the per-record threshold
type DelegationRecord struct {
	Delegator string
	Validator string
	Amount    decimal.Decimal
}

// AggregatedDelegator is one report row
type AggregatedDelegator struct {
	Address         string // re-encoded to the output prefix
	OriginalAddress string // chain-native
	Amount          decimal.Decimal
	Validators      []string // sorted, distinct
	Chain           string
}

// ChainResult is what ProcessChain returns for one chain
type ChainResult struct {
	Chain             string
	State             ChainState
	Err               error
	Delegators        []AggregatedDelegator
	Validators        int
	DroppedValidators int
	DroppedDelegators int
	Duration          time.Duration
}

// Stats summarises stake amounts of a set of report rows
type Stats struct {
	Count          int
	Total          decimal.Decimal
	Mean           decimal.Decimal
	Median         decimal.Decimal
	Max            decimal.Decimal
	MeanValidators decimal.Decimal
}

// ChainSummary is the per-chain part of a report
type ChainSummary struct {
	Chain             string
	State             ChainState
	Err               error
	Validators        int
	DroppedValidators int
	DroppedDelegators int
	Duration          time.Duration
	Stats             Stats
}

// Report is the merged snapshot handed to the ReportWriter
type Report struct {
	TakenAt      time.Time
	OutputPrefix string
	Rows         []AggregatedDelegator
	Chains       []ChainSummary
	Overall      Stats
}
