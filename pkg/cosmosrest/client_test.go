package cosmosrest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
)

func TestClientValidators(t *testing.T) {
	t.Parallel()

	t.Run("it parses a validators page", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var gotQuery map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cosmos/staking/v1beta1/validators", r.URL.Path)
			gotQuery = map[string]string{
				"limit": r.URL.Query().Get("pagination.limit"),
				"key":   r.URL.Query().Get("pagination.key"),
			}
			writeJSON(w, `{
				"validators": [
					{"operator_address": "cosmosvaloper1aaa", "jailed": false, "status": "BOND_STATUS_BONDED", "description": {"moniker": "Alpha"}},
					{"operator_address": "cosmosvaloper1bbb", "jailed": true, "status": "BOND_STATUS_UNBONDING"}
				],
				"pagination": {"next_key": "L3+/key==", "total": "2"}
			}`)
		}))
		defer server.Close()

		client := cosmosrest.NewClient(server.Client(), server.URL+"/")

		// Act
		page, err := client.Validators(t.Context(), cosmosrest.PageRequest{Key: "abc=", Limit: 1000})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"limit": "1000", "key": "abc="}, gotQuery)
		assert.Equal(t, "L3+/key==", page.NextKey)
		assert.Equal(t, []cosmosrest.Validator{
			{OperatorAddress: "cosmosvaloper1aaa"},
			{OperatorAddress: "cosmosvaloper1bbb"},
		}, page.Items)
	})

	t.Run("it treats a null next key as the last page", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := serverResponding(http.StatusOK, `{"validators": [], "pagination": {"next_key": null, "total": "0"}}`)
		defer server.Close()

		client := cosmosrest.NewClient(server.Client(), server.URL)

		// Act
		page, err := client.Validators(t.Context(), cosmosrest.PageRequest{Limit: 10})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Empty(t, page.NextKey)
	})

	t.Run("it rejects responses missing required fields", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			body string
		}{
			{name: "missing validators", body: `{"pagination": {"next_key": null}}`},
			{name: "missing pagination", body: `{"validators": []}`},
			{name: "missing operator address", body: `{"validators": [{"jailed": false}], "pagination": {}}`},
			{name: "invalid json", body: `{"validators": [`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Arrange
				server := serverResponding(http.StatusOK, tc.body)
				defer server.Close()

				client := cosmosrest.NewClient(server.Client(), server.URL)

				// Act
				_, err := client.Validators(t.Context(), cosmosrest.PageRequest{Limit: 10})

				// Assert
				assertMalformed(t, err)
			})
		}
	})
}

func TestClientDelegations(t *testing.T) {
	t.Parallel()

	t.Run("it parses a delegations page with exact amounts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cosmos/staking/v1beta1/validators/cosmosvaloper1aaa/delegations", r.URL.Path)
			assert.Equal(t, "10000", r.URL.Query().Get("pagination.limit"))
			writeJSON(w, `{
				"delegation_responses": [
					{"delegation": {"delegator_address": "cosmos1d1", "validator_address": "cosmosvaloper1aaa", "shares": "1.0"},
					 "balance": {"denom": "uatom", "amount": "123456789012345678901234567890"}}
				],
				"pagination": {"next_key": null, "total": "1"}
			}`)
		}))
		defer server.Close()

		client := cosmosrest.NewClient(server.Client(), server.URL)

		// Act
		page, err := client.Delegations(t.Context(), "cosmosvaloper1aaa", cosmosrest.PageRequest{Limit: 10000})

		// Assert
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "cosmos1d1", page.Items[0].DelegatorAddress)
		assert.Equal(t, "cosmosvaloper1aaa", page.Items[0].ValidatorAddress)
		assert.Equal(t, "uatom", page.Items[0].Denom)
		assert.True(t, decimal.RequireFromString("123456789012345678901234567890").Equal(page.Items[0].Amount))
	})

	t.Run("it rejects malformed delegations", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			body string
		}{
			{name: "missing delegation_responses", body: `{"pagination": {}}`},
			{name: "missing delegator address", body: `{"delegation_responses": [{"delegation": {}, "balance": {"amount": "1"}}], "pagination": {}}`},
			{name: "missing amount", body: `{"delegation_responses": [{"delegation": {"delegator_address": "cosmos1d"}, "balance": {}}], "pagination": {}}`},
			{name: "non decimal amount", body: `{"delegation_responses": [{"delegation": {"delegator_address": "cosmos1d"}, "balance": {"amount": "1e"}}], "pagination": {}}`},
			{name: "negative amount", body: `{"delegation_responses": [{"delegation": {"delegator_address": "cosmos1d"}, "balance": {"amount": "-5"}}], "pagination": {}}`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Arrange
				server := serverResponding(http.StatusOK, tc.body)
				defer server.Close()

				client := cosmosrest.NewClient(server.Client(), server.URL)

				// Act
				_, err := client.Delegations(t.Context(), "cosmosvaloper1aaa", cosmosrest.PageRequest{Limit: 10})

				// Assert
				assertMalformed(t, err)
			})
		}
	})
}

func TestClientErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("it reports non-2xx responses as client HTTP errors", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := serverResponding(http.StatusServiceUnavailable, `{"code": 14, "message": "upstream unavailable"}`)
		defer server.Close()

		client := cosmosrest.NewClient(server.Client(), server.URL)

		// Act
		_, err := client.Validators(t.Context(), cosmosrest.PageRequest{Limit: 10})

		// Assert
		var httpErr *cosmosrest.ClientHTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
		assert.Contains(t, httpErr.Body, "upstream unavailable")
		assert.False(t, cosmosrest.IsTransient(err))
	})

	t.Run("it reports connection failures as transient", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := serverResponding(http.StatusOK, `{}`)
		url := server.URL
		server.Close()

		client := cosmosrest.NewClient(http.DefaultClient, url)

		// Act
		_, err := client.Validators(t.Context(), cosmosrest.PageRequest{Limit: 10})

		// Assert
		assert.True(t, cosmosrest.IsTransient(err))
	})

	t.Run("it returns the context error when cancelled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := serverResponding(http.StatusOK, `{}`)
		defer server.Close()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		client := cosmosrest.NewClient(server.Client(), server.URL)

		// Act
		_, err := client.Validators(ctx, cosmosrest.PageRequest{Limit: 10})

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, cosmosrest.IsTransient(err))
	})
}

func TestRetryOn(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient error", err: &cosmosrest.TransientNetworkError{URL: "u", Err: errors.New("reset")}, want: true},
		{name: "listed status", err: &cosmosrest.ClientHTTPError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "unlisted status", err: &cosmosrest.ClientHTTPError{StatusCode: http.StatusNotFound}, want: false},
		{name: "malformed response", err: &cosmosrest.MalformedResponseError{URL: "u", Err: errors.New("bad")}, want: false},
		{name: "other error", err: errors.New("other"), want: false},
	}

	retryable := cosmosrest.RetryOn(http.StatusTooManyRequests)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			got := retryable(tc.err)

			// Assert
			assert.Equal(t, tc.want, got)
		})
	}
}

// Test helpers

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func serverResponding(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	var malformed *cosmosrest.MalformedResponseError
	assert.ErrorAs(t, err, &malformed, "expected a malformed response error, got %v", err)
}
