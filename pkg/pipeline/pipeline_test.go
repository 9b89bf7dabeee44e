package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/cache"
	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// routingProvider answers snapshot fetches per query ID and tracks fetch
// concurrency so the bounded-fan-out property is observable.
type routingProvider struct {
	mu      sync.Mutex
	snaps   map[string]*analytics.Snapshot
	fail    map[string]error
	delay   time.Duration
	active  atomic.Int64
	maxSeen atomic.Int64
}

func (r *routingProvider) Fetch(ctx context.Context, queryID string, _ analytics.Params, _ bool) (*analytics.Snapshot, error) {
	cur := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		prev := r.maxSeen.Load()
		if cur <= prev || r.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[queryID]; err != nil {
		return nil, err
	}
	if snap := r.snaps[queryID]; snap != nil {
		return snap, nil
	}
	return &analytics.Snapshot{QueryID: queryID}, nil
}

func healthySnapshots() map[string]*analytics.Snapshot {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	transfers := []analytics.Row{}
	tokens := []string{"0xaaa", "0xbbb", "0xccc", "0xddd"}
	for i, token := range tokens {
		transfers = append(transfers,
			analytics.Row{
				"token_address": token,
				"direction":     "buy",
				"amount":        float64(4000 + i*500),
				"fee":           5e6,
				"block_time":    t0.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			},
			analytics.Row{
				"token_address": token,
				"direction":     "sell",
				"amount":        float64(4000 + i*500),
				"fee":           5e6,
				"block_time":    t0.Add(time.Duration(100+i) * time.Hour).Format(time.RFC3339),
			},
		)
	}
	return map[string]*analytics.Snapshot{
		analytics.QueryWalletStats: {
			QueryID: analytics.QueryWalletStats,
			Rows: []analytics.Row{{
				"night_trade_ratio":     0.1,
				"avg_hold_hours":        300.0,
				"trade_count":           60.0,
				"total_gas_spent":       5e7,
				"unique_tokens":         8.0,
				"new_token_ratio":       0.3,
				"avg_position_usd":      1500.0,
				"max_drawdown_pct":      25.0,
				"volatility_preference": 0.4,
				"rug_pull_count":        0.0,
				"gas_per_trade":         1e6,
			}},
		},
		analytics.QueryTokenTransfers: {
			QueryID: analytics.QueryTokenTransfers,
			Rows:    transfers,
		},
	}
}

func newTestOrchestrator(t *testing.T, provider cards.SnapshotProvider, workers int) *Orchestrator {
	t.Helper()
	registry := cards.NewRegistry(config.Default().Scoring)
	svc := cards.NewService(registry, provider, cache.NewMemoryStore(), nil, zaptest.NewLogger(t), nil, 24*time.Hour)
	o := NewOrchestrator(svc, workers, zaptest.NewLogger(t))
	t.Cleanup(o.Close)
	return o
}

func testIdentity(t *testing.T) wallet.Identity {
	t.Helper()
	id, err := wallet.ParseIdentity("0xab5801a7d398351b8be11c439e05c5b3259aec9b", wallet.ChainEthereum)
	require.NoError(t, err)
	return id
}

func TestGetAllCardsReturnsOneResultPerType(t *testing.T) {
	provider := &routingProvider{snaps: healthySnapshots()}
	o := newTestOrchestrator(t, provider, 8)

	batch := o.GetAllCards(context.Background(), testIdentity(t), false)

	require.Len(t, batch.Results, len(o.AvailableCardTypes()))
	assert.Empty(t, batch.Unknown)

	seen := map[string]bool{}
	for _, res := range batch.Results {
		require.NotNil(t, res)
		assert.False(t, seen[res.CardType], "duplicate result for %s", res.CardType)
		seen[res.CardType] = true
		assert.True(t, res.OK(), "card %s should compute: %v", res.CardType, res.Error)
	}
}

func TestGetCardsFaultIsolation(t *testing.T) {
	// wallet_stats is down: archetype and risk degrade to Error-results,
	// the five transfer-backed cards still compute.
	provider := &routingProvider{
		snaps: healthySnapshots(),
		fail:  map[string]error{analytics.QueryWalletStats: errors.New("upstream 502")},
	}
	o := newTestOrchestrator(t, provider, 8)

	batch := o.GetAllCards(context.Background(), testIdentity(t), false)
	require.Len(t, batch.Results, 7)

	var ok, failed int
	for _, res := range batch.Results {
		if res.OK() {
			ok++
		} else {
			failed++
			assert.Contains(t,
				[]string{cards.TypeArchetype, cards.TypeRiskAppetite}, res.CardType)
			assert.Equal(t, cards.CodeDataUnavailable, res.Error.Code)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 2, failed)
}

func TestGetCardsReportsUnknownTypes(t *testing.T) {
	provider := &routingProvider{snaps: healthySnapshots()}
	o := newTestOrchestrator(t, provider, 8)

	batch := o.GetCards(context.Background(), testIdentity(t),
		[]string{cards.TypeRiskAppetite, "palm_reading", cards.TypeGasFeePersonality, "palm_reading"}, false)

	require.Len(t, batch.Results, 2)
	assert.Equal(t, []string{"palm_reading"}, batch.Unknown)
}

func TestGetCardsBoundedConcurrency(t *testing.T) {
	provider := &routingProvider{snaps: healthySnapshots(), delay: 30 * time.Millisecond}
	o := newTestOrchestrator(t, provider, 2)

	batch := o.GetAllCards(context.Background(), testIdentity(t), true)
	require.Len(t, batch.Results, 7)

	assert.LessOrEqual(t, provider.maxSeen.Load(), int64(2),
		"fan-out must not exceed the worker limit")
}

func TestGetCardsCancellation(t *testing.T) {
	provider := &routingProvider{snaps: healthySnapshots(), delay: 200 * time.Millisecond}
	o := newTestOrchestrator(t, provider, 2)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	batch := o.GetAllCards(ctx, testIdentity(t), true)

	// Every executed type is still tagged; cancelled slots carry results
	// rather than holes.
	require.Len(t, batch.Results, 7)
	for _, res := range batch.Results {
		require.NotNil(t, res)
		assert.NotEmpty(t, res.CardType)
	}
}

func TestBuildProfile(t *testing.T) {
	provider := &routingProvider{snaps: healthySnapshots()}
	o := newTestOrchestrator(t, provider, 8)
	id := testIdentity(t)

	batch := o.GetAllCards(context.Background(), id, false)
	p := BuildProfile(id, batch)

	assert.Equal(t, id.Address, p.WalletAddress)
	assert.NotEmpty(t, p.Archetype)
	assert.NotEmpty(t, p.RiskBand)
	assert.InDelta(t, 2.0, p.TradesPerDay, 0.01)
	assert.True(t, p.HasCard(cards.TypeConvictionCollapse))
	assert.Equal(t, 4, p.TokenCount)
	assert.Len(t, p.Cards, 7)
}

func TestBuildProfileWithPartialBatch(t *testing.T) {
	provider := &routingProvider{
		snaps: healthySnapshots(),
		fail:  map[string]error{analytics.QueryWalletStats: errors.New("down")},
	}
	o := newTestOrchestrator(t, provider, 8)
	id := testIdentity(t)

	batch := o.GetAllCards(context.Background(), id, false)
	p := BuildProfile(id, batch)

	assert.Empty(t, p.Archetype)
	assert.False(t, p.HasCard(cards.TypeArchetype))
	assert.True(t, p.HasCard(cards.TypeGasFeePersonality))
}
