package snapshot

import "fmt"

// ChainState is the phase a chain is in
type ChainState int

const (
	StatePending ChainState = iota
	StateListingValidators
	StateFetchingDelegations
	StateAggregating
	StateReEncoding
	StateDone
	StateAborted
)

var chainStateNames = map[ChainState]string{
	StatePending:             "pending",
	StateListingValidators:   "listing_validators",
	StateFetchingDelegations: "fetching_delegations",
	StateAggregating:         "aggregating",
	StateReEncoding:          "re_encoding",
	StateDone:                "done",
	StateAborted:             "aborted",
}

func (s ChainState) String() string {
	if name, ok := chainStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ChainState(%d)", int(s))
}

// Terminal reports whether no further transition is possible
func (s ChainState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// CanTransition reports whether a chain may move from s to next.
// Aborted is only reachable while listing validators.
func (s ChainState) CanTransition(next ChainState) bool {
	switch s {
	case StatePending:
		return next == StateListingValidators
	case StateListingValidators:
		return next == StateFetchingDelegations || next == StateAborted
	case StateFetchingDelegations:
		return next == StateAggregating
	case StateAggregating:
		return next == StateReEncoding
	case StateReEncoding:
		return next == StateDone
	default:
		return false
	}
}
