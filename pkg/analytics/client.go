package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/utils"
	"golang.org/x/time/rate"
)

// Client issues queries against the analytics upstream.
type Client interface {
	Query(ctx context.Context, queryID string, params Params) ([]Row, error)
}

// HTTPClient talks to the analytics API over HTTP with endpoint failover, a
// shared rate limiter, and a per-endpoint circuit breaker. One instance is
// shared by every calculator, so the limiter caps total upstream pressure.
type HTTPClient struct {
	endpoints []string
	client    *http.Client
	limiter   *rate.Limiter

	mu       sync.Mutex
	failures map[string]int
	opened   map[string]time.Time

	breakerThreshold int
	breakerCooldown  time.Duration
}

// ClientOpts is the set of options for a new HTTPClient.
type ClientOpts struct {
	Endpoints       []string
	Timeout         time.Duration
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// NewHTTPClient creates a new analytics HTTP client with the given options.
func NewHTTPClient(o ClientOpts) *HTTPClient {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	return &HTTPClient{
		endpoints:        utils.Dedup(o.Endpoints),
		client:           client,
		limiter:          rate.NewLimiter(rate.Limit(o.RPS), o.Burst),
		failures:         map[string]int{},
		opened:           map[string]time.Time{},
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
}

// NewHTTPClientFromEnv builds a client from ANALYTICS_* environment
// variables (comma-separated ANALYTICS_ENDPOINTS, ANALYTICS_TIMEOUT,
// ANALYTICS_RPS).
func NewHTTPClientFromEnv() *HTTPClient {
	endpoints := strings.Split(utils.Env("ANALYTICS_ENDPOINTS", "http://localhost:8090"), ",")
	return NewHTTPClient(ClientOpts{
		Endpoints: endpoints,
		Timeout:   utils.EnvDuration("ANALYTICS_TIMEOUT", 15*time.Second),
		RPS:       utils.EnvInt("ANALYTICS_RPS", 20),
	})
}

// isOpen returns true if the endpoint's breaker is in the OPEN state.
func (c *HTTPClient) isOpen(ep string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.opened[ep]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.opened, ep)
		c.failures[ep] = 0
		return false
	}
	return true
}

// noteFailure marks an endpoint as failed and opens the circuit-breaker if
// the failure count exceeds the threshold.
func (c *HTTPClient) noteFailure(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep]++
	if c.failures[ep] >= c.breakerThreshold {
		c.opened[ep] = time.Now().Add(c.breakerCooldown)
	}
}

func (c *HTTPClient) noteSuccess(ep string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[ep] = 0
}

type queryResponse struct {
	Rows []Row `json:"rows"`
}

// Query executes the named query and returns its rows. It walks the
// configured endpoints, skipping those whose breaker is open, and returns
// the last error if all fail.
func (c *HTTPClient) Query(ctx context.Context, queryID string, params Params) ([]Row, error) {
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("no analytics endpoints configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < len(c.endpoints); i++ {
		ep := c.endpoints[i%len(c.endpoints)]
		if c.isOpen(ep) {
			continue
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, ep+"/v1/query/"+queryID, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			// Respect cancellation instead of failing over.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = doErr
			c.noteFailure(ep)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server %d from %s", resp.StatusCode, ep)
			c.noteFailure(ep)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("http %d from %s", resp.StatusCode, ep)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}

		var out queryResponse
		decErr := json.NewDecoder(resp.Body).Decode(&out)
		_ = utils.DrainAndClose(resp.Body)
		if decErr != nil {
			lastErr = fmt.Errorf("decode response from %s: %w", ep, decErr)
			c.noteFailure(ep)
			continue
		}

		c.noteSuccess(ep)
		return out.Rows, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all analytics endpoints unavailable")
	}
	return nil, lastErr
}
