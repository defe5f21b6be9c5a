package cosmosrest

import (
	"github.com/shopspring/decimal"
)

// PageRequest selects one page of a listing
type PageRequest struct {
	Key   string
	Limit uint64
}

// Page is one page of items plus the cursor of the next one. NextKey is empty on the last page.
type Page[T any] struct {
	Items   []T
	NextKey string
}

// Validator is a validator as listed by the staking module
type Validator struct {
	OperatorAddress string
}

// Delegation is one delegator's stake with a validator
type Delegation struct {
	DelegatorAddress string
	ValidatorAddress string
	Denom            string
	Amount           decimal.Decimal
}

// Wire schemas. Validation tags are checked right after decoding.

type pagination struct {
	NextKey *string `json:"next_key"`
	Total   string  `json:"total"`
}

type validatorsResponse struct {
	Validators []validatorJSON `json:"validators" validate:"required,dive"`
	Pagination *pagination     `json:"pagination" validate:"required"`
}

type validatorJSON struct {
	OperatorAddress string `json:"operator_address" validate:"required"`
}

type delegationsResponse struct {
	DelegationResponses []delegationResponseJSON `json:"delegation_responses" validate:"required,dive"`
	Pagination          *pagination              `json:"pagination" validate:"required"`
}

type delegationResponseJSON struct {
	Delegation struct {
		DelegatorAddress string `json:"delegator_address" validate:"required"`
		ValidatorAddress string `json:"validator_address"`
	} `json:"delegation"`
	Balance struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount" validate:"required"`
	} `json:"balance"`
}

func (p *pagination) nextKey() string {
	if p == nil || p.NextKey == nil {
		return ""
	}
	return *p.NextKey
}
