package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/cache"
	"github.com/JoodasCode/wallet-whisperer/pkg/metrics"
	"github.com/JoodasCode/wallet-whisperer/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "whisperer:snapshot:"

// flight is one in-progress upstream fetch. done is closed exactly once by
// the flight's owner, after snap/err have been assigned.
type flight struct {
	done chan struct{}
	snap *Snapshot
	err  error
}

// Provider serves wallet snapshots with a cache-aside layer and duplicate
// fetch suppression: for N concurrent callers asking for the same
// (queryID, params) snapshot, exactly one upstream call is made.
type Provider struct {
	client  Client
	cache   cache.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	inflight *xsync.Map[string, *flight]
	now      func() time.Time
}

func NewProvider(client Client, store cache.Store, logger *zap.Logger, m *metrics.Metrics, ttl time.Duration) *Provider {
	return &Provider{
		client:   client,
		cache:    store,
		logger:   logger,
		metrics:  m,
		ttl:      ttl,
		inflight: xsync.NewMap[string, *flight](),
		now:      time.Now,
	}
}

// Fetch returns the snapshot for (queryID, params). Unless skipCache is set
// it is served cache-aside with the provider's TTL. On a miss, concurrent
// identical fetches coalesce onto a single upstream call; waiters observing
// the owner's failure receive that error rather than retrying upstream.
func (p *Provider) Fetch(ctx context.Context, queryID string, params Params, skipCache bool) (*Snapshot, error) {
	key := snapshotKeyPrefix + queryID + ":" + utils.HashParams(params)

	if !skipCache {
		if snap := p.cachedSnapshot(ctx, key); snap != nil {
			p.metrics.CacheHit("snapshot")
			return snap, nil
		}
		p.metrics.CacheMiss("snapshot")
	}

	f := &flight{done: make(chan struct{})}
	if winner, loaded := p.inflight.LoadOrStore(key, f); loaded {
		// Someone else is already fetching this snapshot; piggyback.
		p.metrics.CoalescedFetch()
		select {
		case <-winner.done:
			return winner.snap, winner.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Owner path. The entry must be cleared on every exit (success, error,
	// cancellation) or future callers would block on a dead flight.
	defer func() {
		p.inflight.Delete(key)
		close(f.done)
	}()

	start := p.now()
	rows, err := p.client.Query(ctx, queryID, params)
	p.metrics.UpstreamCall(time.Since(start))
	if err != nil {
		f.err = fmt.Errorf("fetch %s: %w", queryID, err)
		return nil, f.err
	}

	snap := &Snapshot{
		QueryID:   queryID,
		Rows:      rows,
		FetchedAt: p.now().UTC(),
	}
	f.snap = snap

	// Write-back is best-effort; a cache outage must not fail the fetch.
	if raw, mErr := json.Marshal(snap); mErr == nil {
		if sErr := p.cache.Set(ctx, key, string(raw), p.ttl); sErr != nil {
			p.logger.Warn("snapshot cache write failed",
				zap.String("query_id", queryID),
				zap.Error(sErr))
		}
	}

	return snap, nil
}

// cachedSnapshot returns the cached snapshot for the key, treating every
// failure mode (transport error, corrupt payload) as a miss.
func (p *Provider) cachedSnapshot(ctx context.Context, key string) *Snapshot {
	raw, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		p.logger.Warn("corrupt snapshot cache entry, treating as miss",
			zap.String("key", key),
			zap.Error(err))
		return nil
	}
	return &snap
}
