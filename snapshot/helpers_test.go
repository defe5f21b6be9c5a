package snapshot_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesnap/pkg/bech32conv"
	"github.com/screwyprof/stakesnap/pkg/cosmosrest"
	"github.com/screwyprof/stakesnap/pkg/retry"
	"github.com/screwyprof/stakesnap/snapshot"
)

const validatorsPath = "/cosmos/staking/v1beta1/validators"

// stake is one delegation served by the fake API
type stake struct {
	delegator string
	amount    string
}

// chainAPI is an in-memory staking module served over HTTP with offset cursors
type chainAPI struct {
	validators  []string
	delegations map[string][]stake

	listStatus int            // non-zero fails every validators request
	failing    map[string]int // validator -> status for every delegations request
	flaky      map[string]int // validator -> number of 503 responses before success
	failFrom   map[string]int // validator -> offset from which every delegations page returns 503
	latency    time.Duration

	mu       sync.Mutex
	requests map[string]int
	inFlight *concurrency
}

// concurrency records the peak number of requests in flight, possibly across servers
type concurrency struct {
	current atomic.Int64
	peak    atomic.Int64
}

func (c *concurrency) enter() {
	n := c.current.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (c *concurrency) leave() { c.current.Add(-1) }

func (a *chainAPI) serve(t *testing.T) *httptest.Server {
	t.Helper()

	a.requests = make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(a.handle))
	t.Cleanup(server.Close)
	return server
}

func (a *chainAPI) handle(w http.ResponseWriter, r *http.Request) {
	if a.inFlight != nil {
		a.inFlight.enter()
		defer a.inFlight.leave()
	}
	if a.latency > 0 {
		time.Sleep(a.latency)
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("pagination.key"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("pagination.limit"))

	if r.URL.Path == validatorsPath {
		if a.listStatus != 0 {
			http.Error(w, "listing unavailable", a.listStatus)
			return
		}
		items, next := window(len(a.validators), offset, limit)
		validators := make([]map[string]any, 0, len(items))
		for _, i := range items {
			validators = append(validators, map[string]any{"operator_address": a.validators[i], "status": "BOND_STATUS_BONDED"})
		}
		writeBody(w, map[string]any{"validators": validators, "pagination": map[string]any{"next_key": next}})
		return
	}

	validator := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, validatorsPath+"/"), "/delegations")
	if status, ok := a.failing[validator]; ok {
		http.Error(w, "validator unavailable", status)
		return
	}
	if a.flakyHit(validator) {
		http.Error(w, "try again", http.StatusServiceUnavailable)
		return
	}
	if from, ok := a.failFrom[validator]; ok && offset >= from {
		http.Error(w, "try again", http.StatusServiceUnavailable)
		return
	}

	stakes := a.delegations[validator]
	items, next := window(len(stakes), offset, limit)
	responses := make([]map[string]any, 0, len(items))
	for _, i := range items {
		responses = append(responses, map[string]any{
			"delegation": map[string]any{"delegator_address": stakes[i].delegator, "validator_address": validator},
			"balance":    map[string]any{"denom": "uatom", "amount": stakes[i].amount},
		})
	}
	writeBody(w, map[string]any{"delegation_responses": responses, "pagination": map[string]any{"next_key": next}})
}

func (a *chainAPI) flakyHit(validator string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests[validator]++
	return a.requests[validator] <= a.flaky[validator]
}

func (a *chainAPI) requestsFor(validator string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[validator]
}

// window returns the indexes of one page and the next cursor, nil on the last page
func window(total, offset, limit int) ([]int, any) {
	if limit <= 0 {
		limit = total
	}
	end := min(offset+limit, total)

	var items []int
	for i := offset; i < end; i++ {
		items = append(items, i)
	}
	if end >= total {
		return items, nil
	}
	return items, strconv.Itoa(end)
}

func writeBody(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// addr builds a valid bech32 address with a deterministic 20-byte payload
func addr(t *testing.T, prefix string, seed byte) string {
	t.Helper()

	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = seed + byte(i)
	}
	a, err := bech32conv.Encode(prefix, payload)
	require.NoError(t, err)
	return a
}

func reencoded(t *testing.T, address, prefix string) string {
	t.Helper()

	a, err := bech32conv.Reencoder{}.Reencode(address, prefix)
	require.NoError(t, err)
	return a
}

// instantClock fires every timer at once and reports wall time
type instantClock struct {
	mu     sync.Mutex
	waited []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waited = append(c.waited, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *instantClock) Now() time.Time { return time.Now() }

func (c *instantClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waited...)
}

func testRetryPolicy(clock *instantClock) retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		MinDelay:    time.Second,
		MaxDelay:    4 * time.Second,
		Multiplier:  2,
		Retryable:   cosmosrest.RetryOn(http.StatusServiceUnavailable),
		Clock:       clock,
	}
}

func chainAt(name, url, prefix, threshold string) snapshot.ChainConfig {
	return snapshot.ChainConfig{
		Name:      name,
		APIURL:    url,
		Prefix:    prefix,
		Threshold: decimal.RequireFromString(threshold),
	}
}

func restClients(chain snapshot.ChainConfig) snapshot.Client {
	return cosmosrest.NewClient(http.DefaultClient, chain.APIURL)
}
