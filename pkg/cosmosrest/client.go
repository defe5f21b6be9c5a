// Package cosmosrest is a client for the Cosmos SDK staking REST endpoints.
package cosmosrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	validatorsPath  = "/cosmos/staking/v1beta1/validators"
	errorBodyLength = 256
)

// ErrNegativeAmount is reported inside a MalformedResponseError for a negative balance.
var ErrNegativeAmount = errors.New("negative amount")

var validate = validator.New()

// Client represents a Cosmos REST API client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for one chain's REST endpoint
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Validators retrieves one page of the validator set
func (c *Client) Validators(ctx context.Context, req PageRequest) (Page[Validator], error) {
	var resp validatorsResponse
	if err := c.get(ctx, validatorsPath, req, &resp); err != nil {
		return Page[Validator]{}, err
	}

	validators := make([]Validator, len(resp.Validators))
	for i, v := range resp.Validators {
		validators[i] = Validator{OperatorAddress: v.OperatorAddress}
	}

	return Page[Validator]{Items: validators, NextKey: resp.Pagination.nextKey()}, nil
}

// Delegations retrieves one page of the delegations made to a validator
func (c *Client) Delegations(ctx context.Context, validatorAddr string, req PageRequest) (Page[Delegation], error) {
	path := validatorsPath + "/" + url.PathEscape(validatorAddr) + "/delegations"

	var resp delegationsResponse
	if err := c.get(ctx, path, req, &resp); err != nil {
		return Page[Delegation]{}, err
	}

	delegations := make([]Delegation, len(resp.DelegationResponses))
	for i, d := range resp.DelegationResponses {
		amount, err := decimal.NewFromString(d.Balance.Amount)
		if err != nil {
			return Page[Delegation]{}, &MalformedResponseError{URL: c.baseURL + path, Err: fmt.Errorf("amount %q: %w", d.Balance.Amount, err)}
		}
		if amount.IsNegative() {
			return Page[Delegation]{}, &MalformedResponseError{URL: c.baseURL + path, Err: fmt.Errorf("%w: %s", ErrNegativeAmount, d.Balance.Amount)}
		}

		delegations[i] = Delegation{
			DelegatorAddress: d.Delegation.DelegatorAddress,
			ValidatorAddress: d.Delegation.ValidatorAddress,
			Denom:            d.Balance.Denom,
			Amount:           amount,
		}
	}

	return Page[Delegation]{Items: delegations, NextKey: resp.Pagination.nextKey()}, nil
}

// get performs one GET and decodes a validated response into out
func (c *Client) get(ctx context.Context, path string, req PageRequest, out any) error {
	query := url.Values{}
	if req.Limit > 0 {
		query.Set("pagination.limit", strconv.FormatUint(req.Limit, 10))
	}
	if req.Key != "" {
		query.Set("pagination.key", req.Key)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransientNetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransientNetworkError{URL: endpoint, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &ClientHTTPError{URL: endpoint, StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{URL: endpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if err := validate.Struct(out); err != nil {
		return &MalformedResponseError{URL: endpoint, Err: err}
	}

	return nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > errorBodyLength {
		return s[:errorBodyLength] + "..."
	}
	return s
}
