package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screwyprof/stakesnap/pkg/fanout"
	"github.com/screwyprof/stakesnap/pkg/retry"
)

// chainRun carries one chain through its states
type chainRun struct {
	svc    *Service
	chain  ChainConfig
	client Client
	state  ChainState
	result ChainResult
}

// processChain runs ListingValidators -> FetchingDelegations -> Aggregating -> ReEncoding -> Done for one chain.
// Only a listing failure aborts the chain; later failures drop single validators or delegators.
func (s *Service) processChain(ctx context.Context, chain ChainConfig) ChainResult {
	start := s.clock.Now()
	run := &chainRun{
		svc:    s,
		chain:  chain,
		client: s.clients(chain),
		result: ChainResult{Chain: chain.Name},
	}

	run.enter(StateListingValidators)
	validators, err := run.listValidators(ctx)
	if err != nil {
		run.enter(StateAborted)
		run.result.Err = err
		s.metrics.chainAborted(chain.Name)
		s.emit(ChainAborted{Chain: chain.Name, Err: err})
		return run.finish(start)
	}
	run.result.Validators = len(validators)
	s.emit(ValidatorsListed{Chain: chain.Name, Count: len(validators)})

	run.enter(StateFetchingDelegations)
	records := run.collectDelegations(ctx, validators)

	run.enter(StateAggregating)
	aggregated := Aggregate(chain, records)

	run.enter(StateReEncoding)
	run.result.Delegators = run.reencode(aggregated)

	run.enter(StateDone)
	res := run.finish(start)
	s.metrics.chainDone(res)
	s.emit(ChainDone{
		Chain:             chain.Name,
		Delegators:        len(res.Delegators),
		Validators:        res.Validators,
		DroppedValidators: res.DroppedValidators,
		DroppedDelegators: res.DroppedDelegators,
		Duration:          res.Duration,
	})
	return res
}

func (r *chainRun) enter(next ChainState) {
	if !r.state.CanTransition(next) {
		panic(fmt.Sprintf("chain %s: illegal transition %s -> %s", r.chain.Name, r.state, next))
	}
	r.state = next
	r.svc.emit(ChainStateChanged{Chain: r.chain.Name, State: next})
}

func (r *chainRun) finish(start time.Time) ChainResult {
	r.result.State = r.state
	r.result.Duration = r.svc.clock.Now().Sub(start)
	return r.result
}

func (r *chainRun) listValidators(ctx context.Context) ([]string, error) {
	lister := ValidatorLister{
		Client:   r.client,
		Retry:    r.retryPolicy(""),
		PageSize: r.svc.cfg.ValidatorPageSize,
		MaxPages: r.svc.cfg.MaxPages,
	}

	var validators []string
	err := r.svc.workers.Do(ctx, func(ctx context.Context) error {
		var err error
		validators, err = lister.List(ctx)
		return err
	})
	// List wraps its own failures; a cancelled wait for a slot or a panic does not go through it
	if err != nil && !errors.Is(err, ErrValidatorListing) {
		return nil, fmt.Errorf("%w: %w", ErrValidatorListing, err)
	}
	return validators, err
}

// collectDelegations fans out over validators on the shared worker pool and merges the surviving records
// once every validator has finished.
func (r *chainRun) collectDelegations(ctx context.Context, validators []string) []DelegationRecord {
	pageSize := r.chain.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	tasks := make([]fanout.Task[[]DelegationRecord], len(validators))
	for i, validator := range validators {
		collector := DelegationCollector{
			Client:    r.client,
			Retry:     r.retryPolicy(validator),
			PageSize:  pageSize,
			MaxPages:  r.svc.cfg.MaxPages,
			Threshold: r.chain.Threshold,
		}
		tasks[i] = func(ctx context.Context) ([]DelegationRecord, error) {
			return collector.Collect(ctx, validator)
		}
	}

	outcomes := fanout.Map(ctx, r.svc.workers, tasks)

	var records []DelegationRecord
	for i, o := range outcomes {
		if o.Err != nil {
			r.result.DroppedValidators++
			r.svc.metrics.validatorDropped(r.chain.Name)
			r.svc.emit(ValidatorDropped{
				Chain:     r.chain.Name,
				Validator: validators[i],
				Err:       fmt.Errorf("%w: %w", ErrDelegationFetch, o.Err),
			})
			continue
		}
		records = append(records, o.Value...)
	}
	return records
}

// reencode returns new rows carrying the output-prefix address. Rows that fail to re-encode, or whose address does
// not carry the chain prefix, are dropped.
func (r *chainRun) reencode(rows []AggregatedDelegator) []AggregatedDelegator {
	out := make([]AggregatedDelegator, 0, len(rows))
	for _, row := range rows {
		addr, err := r.svc.codec.ReencodeFrom(row.OriginalAddress, r.chain.Prefix, r.svc.cfg.OutputPrefix)
		if err != nil {
			r.result.DroppedDelegators++
			r.svc.metrics.delegatorDropped(r.chain.Name)
			r.svc.emit(DelegatorDropped{
				Chain:   r.chain.Name,
				Address: row.OriginalAddress,
				Err:     fmt.Errorf("%w: %w", ErrAddressReencoding, err),
			})
			continue
		}
		row.Address = addr
		out = append(out, row)
	}
	return out
}

// retryPolicy is the configured policy with the service clock and a retry hook for this chain
func (r *chainRun) retryPolicy(validator string) retry.Policy {
	p := r.svc.cfg.Retry
	if p.Clock == nil {
		p.Clock = r.svc.clock
	}
	chain := r.chain.Name
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.svc.metrics.retried(chain)
		r.svc.emit(FetchRetried{
			Chain:     chain,
			Validator: validator,
			Attempt:   attempt,
			Delay:     delay,
			Err:       err,
		})
	}
	return p
}
