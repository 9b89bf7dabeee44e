package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/cache"
	"github.com/JoodasCode/wallet-whisperer/pkg/metrics"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
	"go.uber.org/zap"
)

const (
	cardKeyPrefix  = "whisperer:card:"
	persistTimeout = 5 * time.Second
)

// SnapshotProvider is the slice of the analytics provider the card service
// needs.
type SnapshotProvider interface {
	Fetch(ctx context.Context, queryID string, params analytics.Params, skipCache bool) (*analytics.Snapshot, error)
}

// PersistenceStore receives computed cards for history. Failures are logged
// and swallowed; persistence never affects the returned result.
type PersistenceStore interface {
	UpsertCardResult(ctx context.Context, res *Result) error
}

// Service runs the per-card pipeline: cache lookup, snapshot fetch,
// transform, write-through, best-effort persist.
type Service struct {
	registry *Registry
	provider SnapshotProvider
	cache    cache.Store
	store    PersistenceStore
	logger   *zap.Logger
	metrics  *metrics.Metrics
	cardTTL  time.Duration
	now      func() time.Time
}

// NewService wires the card service. store may be nil when persistence is
// disabled.
func NewService(registry *Registry, provider SnapshotProvider, store cache.Store, persist PersistenceStore, logger *zap.Logger, m *metrics.Metrics, cardTTL time.Duration) *Service {
	return &Service{
		registry: registry,
		provider: provider,
		cache:    store,
		store:    persist,
		logger:   logger,
		metrics:  m,
		cardTTL:  cardTTL,
		now:      time.Now,
	}
}

// Registry exposes the service's registry for orchestration.
func (s *Service) Registry() *Registry {
	return s.registry
}

// GetCardData computes (or serves from cache) one card for one wallet.
//
// The error return is reserved for request-level problems — today only
// ErrUnknownCardType. Data problems (empty snapshot, missing fields,
// upstream timeout) come back as an Error-carrying Result with nil error.
func (s *Service) GetCardData(ctx context.Context, id wallet.Identity, cardType string, forceRefresh bool) (*Result, error) {
	calc, err := s.registry.Get(cardType)
	if err != nil {
		return nil, err
	}

	key := cardCacheKey(id, cardType)
	if !forceRefresh {
		if res := s.cachedResult(ctx, key); res != nil {
			s.metrics.CacheHit("card")
			return res, nil
		}
		s.metrics.CacheMiss("card")
	}

	// forceRefresh also skips the snapshot tier: a forced recompute must not
	// silently reuse an hour-old snapshot. Coalescing still applies.
	snap, err := s.provider.Fetch(ctx, calc.QueryID(), analytics.WalletParams(id), forceRefresh)
	if err != nil {
		return s.errorResult(id, cardType, fetchErrorCode(err), err.Error()), nil
	}

	if len(snap.Rows) == 0 {
		return s.errorResult(id, cardType, CodeDataUnavailable, "snapshot has no rows"), nil
	}
	if missing := snap.MissingFields(calc.RequiredFields()); len(missing) > 0 {
		return s.errorResult(id, cardType, CodeDataUnavailable,
			fmt.Sprintf("snapshot missing fields: %v", missing)), nil
	}

	payload, err := calc.Transform(snap)
	if err != nil {
		return s.errorResult(id, cardType, CodeDataUnavailable, err.Error()), nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload structs are plain data; failing to marshal one is a bug,
		// not a data condition.
		return nil, fmt.Errorf("marshal %s payload: %w", cardType, err)
	}

	res := &Result{
		CardType:      cardType,
		WalletAddress: id.Address,
		Chain:         id.Chain,
		CalculatedAt:  s.now().UTC(),
		Payload:       raw,
	}

	s.writeThrough(ctx, key, res)
	s.persist(ctx, res)
	s.metrics.CardComputed(cardType, "ok")
	return res, nil
}

func (s *Service) errorResult(id wallet.Identity, cardType, code, msg string) *Result {
	s.metrics.CardComputed(cardType, "error")
	return &Result{
		CardType:      cardType,
		WalletAddress: id.Address,
		Chain:         id.Chain,
		CalculatedAt:  s.now().UTC(),
		Error:         &CardError{Code: code, Message: msg},
	}
}

func (s *Service) cachedResult(ctx context.Context, key string) *Result {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("card cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		s.logger.Warn("corrupt card cache entry, treating as miss",
			zap.String("key", key),
			zap.Error(err))
		return nil
	}
	return &res
}

func (s *Service) writeThrough(ctx context.Context, key string, res *Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cardTTL); err != nil {
		s.logger.Warn("card cache write failed",
			zap.String("card_type", res.CardType),
			zap.Error(err))
	}
}

func (s *Service) persist(ctx context.Context, res *Result) {
	if s.store == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.store.UpsertCardResult(pctx, res); err != nil {
		s.logger.Warn("card persistence failed",
			zap.String("wallet", res.WalletAddress),
			zap.String("card_type", res.CardType),
			zap.Error(err))
	}
}

func fetchErrorCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeUpstreamTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeUpstreamTimeout
	}
	return CodeDataUnavailable
}

func cardCacheKey(id wallet.Identity, cardType string) string {
	return cardKeyPrefix + id.Chain + ":" + id.Address + ":" + cardType
}
