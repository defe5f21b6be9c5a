package snapshot

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/retry"
)

// ValidatorLister lists every validator of a chain
type ValidatorLister struct {
	Client   Client
	Retry    retry.Policy
	PageSize uint64
	MaxPages int
}

// List returns operator addresses in API order. Any error wraps ErrValidatorListing.
func (l ValidatorLister) List(ctx context.Context) ([]string, error) {
	validators, err := cosmosrest.Paginate(ctx, l.MaxPages,
		func(ctx context.Context, key string) (cosmosrest.Page[cosmosrest.Validator], error) {
			return retry.Call(ctx, l.Retry, func(ctx context.Context) (cosmosrest.Page[cosmosrest.Validator], error) {
				return l.Client.Validators(ctx, cosmosrest.PageRequest{Key: key, Limit: l.PageSize})
			})
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidatorListing, err)
	}

	ids := make([]string, len(validators))
	for i, v := range validators {
		ids[i] = v.OperatorAddress
	}
	return ids, nil
}

// DelegationCollector collects the delegations of one validator above a threshold
type DelegationCollector struct {
	Client    Client
	Retry     retry.Policy
	PageSize  uint64
	MaxPages  int
	Threshold decimal.Decimal
}

// Collect fetches every delegation page of validator, retrying each page on its own, and keeps only records whose
// amount strictly exceeds the threshold. On error no records are returned.
func (c DelegationCollector) Collect(ctx context.Context, validator string) ([]DelegationRecord, error) {
	records, err := cosmosrest.Paginate(ctx, c.MaxPages,
		func(ctx context.Context, key string) (cosmosrest.Page[DelegationRecord], error) {
			page, err := retry.Call(ctx, c.Retry, func(ctx context.Context) (cosmosrest.Page[cosmosrest.Delegation], error) {
				return c.Client.Delegations(ctx, validator, cosmosrest.PageRequest{Key: key, Limit: c.PageSize})
			})
			if err != nil {
				return cosmosrest.Page[DelegationRecord]{}, err
			}
			return cosmosrest.Page[DelegationRecord]{
				Items:   c.keep(validator, page.Items),
				NextKey: page.NextKey,
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// keep applies the per-record threshold. The validator is taken from the request, not the response.
func (c DelegationCollector) keep(validator string, delegations []cosmosrest.Delegation) []DelegationRecord {
	var records []DelegationRecord
	for _, d := range delegations {
		if !AboveThreshold(d.Amount, c.Threshold) {
			continue
		}
		records = append(records, DelegationRecord{
			Delegator: d.DelegatorAddress,
			Validator: validator,
			Amount:    d.Amount,
		})
	}
	return records
}
