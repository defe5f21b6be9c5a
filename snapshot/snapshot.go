package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/retry"
)

// Sentinel errors for failure cases
var (
	ErrValidatorListing  = errors.New("validator listing failed")
	ErrDelegationFetch   = errors.New("delegation fetch failed")
	ErrAddressReencoding = errors.New("address re-encoding failed")
	ErrReportWrite       = errors.New("report write failed")
	ErrSnapshotCancelled = errors.New("snapshot cancelled")
	ErrChainPanicked     = errors.New("chain processing panicked")
)

// Default configuration values
const (
	DefaultOutputPrefix        = "symphony"
	DefaultMaxWorkers          = 10
	DefaultMaxConcurrentChains = 2
	DefaultValidatorPageSize   = uint64(1000)
	DefaultPageSize            = uint64(10000)
	DefaultMaxPages            = 1000
)

// Client fetches staking data for one chain
// -----------------------------------------
type Client interface {
	Validators(ctx context.Context, req cosmosrest.PageRequest) (cosmosrest.Page[cosmosrest.Validator], error)
	Delegations(ctx context.Context, validator string, req cosmosrest.PageRequest) (cosmosrest.Page[cosmosrest.Delegation], error)
}

// ClientFactory returns the client for a chain
type ClientFactory func(chain ChainConfig) Client

// AddressReencoder converts an address carrying the prefix from to the same payload under the prefix to
type AddressReencoder interface {
	ReencodeFrom(address, from, to string) (string, error)
}

// ReportWriter persists the final report
type ReportWriter interface {
	WriteReport(ctx context.Context, report Report) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Config is the immutable input of one snapshot run
// -------------------------------------------------
type Config struct {
	Chains              []ChainConfig
	OutputPrefix        string
	MaxWorkers          int
	MaxConcurrentChains int
	ValidatorPageSize   uint64
	MaxPages            int
	Retry               retry.Policy
}

// DefaultConfig returns a configuration without chains
func DefaultConfig() Config {
	return Config{
		OutputPrefix:        DefaultOutputPrefix,
		MaxWorkers:          DefaultMaxWorkers,
		MaxConcurrentChains: DefaultMaxConcurrentChains,
		ValidatorPageSize:   DefaultValidatorPageSize,
		MaxPages:            DefaultMaxPages,
		Retry:               retry.Default(),
	}
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type SnapshotStarted struct {
	StartedAt  time.Time
	Chains     int
	MaxWorkers int
}

type ChainStateChanged struct {
	Chain string
	State ChainState
}

type ValidatorsListed struct {
	Chain string
	Count int
}

type FetchRetried struct {
	Chain     string
	Validator string // empty while listing validators
	Attempt   int
	Delay     time.Duration
	Err       error
}

type ValidatorDropped struct {
	Chain     string
	Validator string
	Err       error
}

type DelegatorDropped struct {
	Chain   string
	Address string
	Err     error
}

type ChainAborted struct {
	Chain string
	Err   error
}

type ChainDone struct {
	Chain             string
	Delegators        int
	Validators        int
	DroppedValidators int
	DroppedDelegators int
	Duration          time.Duration
}

type SnapshotDone struct {
	Report   Report
	Duration time.Duration
}

type SnapshotError struct {
	Err error
}
