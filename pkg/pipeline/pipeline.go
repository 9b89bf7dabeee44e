package pipeline

import (
	"context"
	"errors"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// Batch is the outcome of one fan-out. Results carry exactly one entry per
// executed card type in no guaranteed order; Unknown lists requested types
// that are not registered (reported, never silently dropped).
type Batch struct {
	Results []*cards.Result `json:"results"`
	Unknown []string        `json:"unknownTypes,omitempty"`
}

// Orchestrator fans card computations out over a bounded worker pool. The
// pool is shared across batches so concurrent dashboard loads cannot stack
// unbounded goroutines onto the analytics upstream.
type Orchestrator struct {
	svc    *cards.Service
	pool   pond.Pool
	logger *zap.Logger
}

func NewOrchestrator(svc *cards.Service, workerLimit int, logger *zap.Logger) *Orchestrator {
	if workerLimit <= 0 {
		workerLimit = 8
	}
	return &Orchestrator{
		svc:    svc,
		pool:   pond.NewPool(workerLimit, pond.WithQueueSize(workerLimit*32)),
		logger: logger,
	}
}

// Close drains the worker pool.
func (o *Orchestrator) Close() {
	o.pool.StopAndWait()
}

// GetCard computes a single card, exposing the card service contract to the
// HTTP layer.
func (o *Orchestrator) GetCard(ctx context.Context, id wallet.Identity, cardType string, forceRefresh bool) (*cards.Result, error) {
	return o.svc.GetCardData(ctx, id, cardType, forceRefresh)
}

// GetCards computes the requested card types concurrently. Each task catches
// its own failure and degrades to an Error-result; one bad card never
// cancels its siblings.
func (o *Orchestrator) GetCards(ctx context.Context, id wallet.Identity, types []string, forceRefresh bool) *Batch {
	known := make([]string, 0, len(types))
	var unknown []string
	seen := map[string]bool{}
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		if o.svc.Registry().Has(t) {
			known = append(known, t)
		} else {
			unknown = append(unknown, t)
		}
	}

	results := make([]*cards.Result, len(known))
	group := o.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, cardType := range known {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			res, err := o.svc.GetCardData(groupCtx, id, cardType, forceRefresh)
			if err != nil {
				// Unknown types were filtered above, so this is unexpected;
				// isolate it to this slot like any other card failure.
				o.logger.Warn("card computation failed",
					zap.String("wallet", id.Address),
					zap.String("card_type", cardType),
					zap.Error(err))
				res = &cards.Result{
					CardType:      cardType,
					WalletAddress: id.Address,
					Chain:         id.Chain,
					Error:         &cards.CardError{Code: cards.CodeDataUnavailable, Message: err.Error()},
				}
			}
			results[i] = res
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		o.logger.Warn("card batch finished with error",
			zap.String("wallet", id.Address),
			zap.Error(err))
	}

	// Slots left empty by cancellation still get a tagged Error-result so
	// every executed type is accounted for.
	for i, res := range results {
		if res == nil {
			results[i] = &cards.Result{
				CardType:      known[i],
				WalletAddress: id.Address,
				Chain:         id.Chain,
				Error:         &cards.CardError{Code: cards.CodeUpstreamTimeout, Message: "batch cancelled before computation"},
			}
		}
	}

	return &Batch{Results: results, Unknown: unknown}
}

// GetAllCards runs GetCards over every registered type.
func (o *Orchestrator) GetAllCards(ctx context.Context, id wallet.Identity, forceRefresh bool) *Batch {
	return o.GetCards(ctx, id, o.svc.Registry().Types(), forceRefresh)
}

// AvailableCardTypes lists the registered card types in registration order.
func (o *Orchestrator) AvailableCardTypes() []string {
	return o.svc.Registry().Types()
}
