package snapshot

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AboveThreshold is the strict comparison used by both filters
func AboveThreshold(amount, threshold decimal.Decimal) bool {
	return amount.GreaterThan(threshold)
}

// Aggregate groups records by delegator, sums their amounts and collects distinct validators.
// Delegators whose total does not exceed the chain threshold are dropped.
//
// The result depends only on the multiset of records: rows are sorted by address and validator sets are sorted.
// Address is left equal to OriginalAddress; re-encoding happens later.
func Aggregate(chain ChainConfig, records []DelegationRecord) []AggregatedDelegator {
	type group struct {
		total      decimal.Decimal
		validators map[string]struct{}
	}

	groups := make(map[string]*group)
	for _, r := range records {
		g, ok := groups[r.Delegator]
		if !ok {
			g = &group{total: decimal.Zero, validators: make(map[string]struct{})}
			groups[r.Delegator] = g
		}
		g.total = g.total.Add(r.Amount)
		g.validators[r.Validator] = struct{}{}
	}

	rows := make([]AggregatedDelegator, 0, len(groups))
	for addr, g := range groups {
		if !AboveThreshold(g.total, chain.Threshold) {
			continue
		}

		validators := make([]string, 0, len(g.validators))
		for v := range g.validators {
			validators = append(validators, v)
		}
		slices.Sort(validators)

		rows = append(rows, AggregatedDelegator{
			Address:         addr,
			OriginalAddress: addr,
			Amount:          g.total,
			Validators:      validators,
			Chain:           chain.Name,
		})
	}

	slices.SortFunc(rows, func(a, b AggregatedDelegator) int {
		return strings.Compare(a.OriginalAddress, b.OriginalAddress)
	})
	return rows
}
