//go:build acceptance

package cosmosrest_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/cosmosrest/testcfg"
)

func TestClientRealAPI(t *testing.T) {
	t.Parallel()

	// Load test configuration from environment
	testCfg := testcfg.New()

	// Arrange
	client := cosmosrest.NewClient(&http.Client{Timeout: testCfg.HTTPTimeout}, testCfg.BaseURL)

	// Act - two small pages of validators are enough to exercise the cursor
	validators, err := cosmosrest.Paginate(t.Context(), testCfg.MaxPages,
		func(ctx context.Context, key string) (cosmosrest.Page[cosmosrest.Validator], error) {
			return client.Validators(ctx, cosmosrest.PageRequest{Key: key, Limit: testCfg.PageSize})
		})
	if errors.Is(err, cosmosrest.ErrPageLimitExceeded) {
		err = nil
	}

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, validators)
	for i, v := range validators {
		assert.NotEmpty(t, v.OperatorAddress, "Validator %d should have an operator address", i)
	}

	page, err := client.Delegations(t.Context(), validators[0].OperatorAddress, cosmosrest.PageRequest{Limit: testCfg.PageSize})
	require.NoError(t, err)
	for i, d := range page.Items {
		assert.NotEmpty(t, d.DelegatorAddress, "Delegation %d should have a delegator", i)
		assert.False(t, d.Amount.IsNegative(), "Delegation %d should have a non-negative amount", i)
		t.Logf("Delegation %d: delegator=%s amount=%s%s", i, d.DelegatorAddress, d.Amount, d.Denom)
	}
}
