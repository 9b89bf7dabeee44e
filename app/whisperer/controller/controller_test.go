package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JoodasCode/wallet-whisperer/app/whisperer/types"
	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/cache"
	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
	"github.com/JoodasCode/wallet-whisperer/pkg/narrative"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
)

const testAddress = "0x1111111111111111111111111111111111111111"

type fakeProvider struct {
	snaps map[string]*analytics.Snapshot
}

func (f *fakeProvider) Fetch(_ context.Context, queryID string, _ analytics.Params, _ bool) (*analytics.Snapshot, error) {
	snap, ok := f.snaps[queryID]
	if !ok {
		return &analytics.Snapshot{QueryID: queryID, FetchedAt: time.Now()}, nil
	}
	return snap, nil
}

func testSnapshots() map[string]*analytics.Snapshot {
	now := time.Now().UTC()
	stats := analytics.Row{
		"night_trade_ratio":     0.1,
		"avg_hold_hours":        400.0,
		"trade_count":           60.0,
		"total_gas_spent":       3e8,
		"unique_tokens":         8.0,
		"new_token_ratio":       0.2,
		"avg_position_usd":      900.0,
		"max_drawdown_pct":      25.0,
		"volatility_preference": 30.0,
		"rug_pull_count":        0.0,
		"gas_per_trade":         5e6,
	}
	var transfers []analytics.Row
	for i := 0; i < 6; i++ {
		base := now.Add(-time.Duration(200+i*10) * time.Hour)
		transfers = append(transfers,
			analytics.Row{"token_address": "tok", "direction": "buy", "amount": 5000.0, "fee": 5e6, "block_time": base.Format(time.RFC3339)},
			analytics.Row{"token_address": "tok", "direction": "sell", "amount": 5000.0, "fee": 5e6, "block_time": base.Add(100 * time.Hour).Format(time.RFC3339)},
		)
	}
	return map[string]*analytics.Snapshot{
		analytics.QueryWalletStats:    {QueryID: analytics.QueryWalletStats, Rows: []analytics.Row{stats}, FetchedAt: now},
		analytics.QueryTokenTransfers: {QueryID: analytics.QueryTokenTransfers, Rows: transfers, FetchedAt: now},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zaptest.NewLogger(t)
	cfg := config.Default()
	registry := cards.NewRegistry(cfg.Scoring)
	provider := &fakeProvider{snaps: testSnapshots()}
	svc := cards.NewService(registry, provider, cache.NewMemoryStore(), nil, logger, nil, cfg.Cache.CardTTL)
	orch := pipeline.NewOrchestrator(svc, 4, logger)
	t.Cleanup(orch.Close)

	app := &types.App{
		Config:       &cfg,
		Registry:     registry,
		Orchestrator: orch,
		Synthesizer:  narrative.NewSynthesizer(nil, logger),
		PromRegistry: prometheus.NewRegistry(),
		Logger:       logger,
	}

	router, err := NewController(app).NewRouter()
	require.NoError(t, err)
	return router
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCardTypes(t *testing.T) {
	rec := get(t, newTestRouter(t), "/cards/types")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Types []string `json:"types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Types, 7)
	assert.Equal(t, cards.TypeArchetype, body.Types[0])
}

func TestSingleCard(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/wallets/"+testAddress+"/cards/"+cards.TypeArchetype)
	require.Equal(t, http.StatusOK, rec.Code)

	var result cards.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, cards.TypeArchetype, result.CardType)
	assert.Equal(t, testAddress, result.WalletAddress)
	assert.True(t, result.OK())
}

func TestSingleCardUnknownType(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/"+testAddress+"/cards/zodiac_sign")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown card type")
}

func TestSingleCardBadAddress(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/nonsense/cards/"+cards.TypeArchetype)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchCards(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/"+testAddress+"/cards")
	require.Equal(t, http.StatusOK, rec.Code)

	var batch pipeline.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch.Results, 7)
	for _, res := range batch.Results {
		assert.True(t, res.OK(), "card %s should have a payload", res.CardType)
	}
}

func TestBatchCardsSubsetWithUnknown(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/"+testAddress+"/cards?types="+cards.TypeArchetype+",zodiac_sign")
	require.Equal(t, http.StatusOK, rec.Code)

	var batch pipeline.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch.Results, 1)
	assert.Equal(t, []string{"zodiac_sign"}, batch.Unknown)
}

func TestHistoryWithoutPersistence(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/"+testAddress+"/cards/"+cards.TypeArchetype+"/history")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNarrative(t *testing.T) {
	rec := get(t, newTestRouter(t), "/wallets/"+testAddress+"/narrative")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Profile   pipeline.Profile `json:"profile"`
		Narrative narrative.Bundle `json:"narrative"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, testAddress, body.Profile.WalletAddress)
	assert.NotEmpty(t, body.Narrative.Narratives.Brutal)
	assert.False(t, body.Narrative.Generated)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
