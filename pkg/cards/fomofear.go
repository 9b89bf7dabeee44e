package cards

import (
	"fmt"
	"sort"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

const (
	CycleFomoDominant = "FOMO Dominant"
	CycleFearDominant = "Fear Dominant"
	CycleBalanced     = "Balanced"
)

type FomoFearPayload struct {
	State      string  `json:"state"`
	FomoRate   float64 `json:"fomoRate"`
	FearRate   float64 `json:"fearRate"`
	WindowSize int     `json:"windowSize"`
}

// FomoFearCycle looks at the most recent transactions only: the share paid
// with panic-level fees (FOMO) against the share that were exits (fear).
type FomoFearCycle struct {
	windowTxs int
	highFee   float64
	fomoPct   float64
	fearPct   float64
}

func NewFomoFearCycle(sc config.Scoring) *FomoFearCycle {
	return &FomoFearCycle{
		windowTxs: sc.RecentWindowTxs,
		highFee:   sc.HighFeeThreshold,
		fomoPct:   sc.FomoThresholdPct,
		fearPct:   sc.FearThresholdPct,
	}
}

func (c *FomoFearCycle) CardType() string { return TypeFomoFearCycle }
func (c *FomoFearCycle) QueryID() string  { return analytics.QueryTokenTransfers }

func (c *FomoFearCycle) RequiredFields() []string {
	return []string{"fee", "direction", "block_time"}
}

type recentTx struct {
	fee  float64
	sell bool
	at   time.Time
}

func (c *FomoFearCycle) Transform(snap *analytics.Snapshot) (any, error) {
	var txs []recentTx
	for _, row := range snap.Rows {
		fee, okFee := row.Float("fee")
		side, okSide := row.String("direction")
		at, okAt := row.Time("block_time")
		if !okFee || !okSide || !okAt {
			continue
		}
		txs = append(txs, recentTx{fee: fee, sell: side == "sell", at: at})
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: no parsable transactions", ErrDataUnavailable)
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].at.After(txs[j].at) })
	if len(txs) > c.windowTxs {
		txs = txs[:c.windowTxs]
	}

	var fomoCount, fearCount int
	for _, tx := range txs {
		if tx.fee > c.highFee {
			fomoCount++
		}
		if tx.sell {
			fearCount++
		}
	}
	n := float64(len(txs))
	fomoRate := float64(fomoCount) / n * 100
	fearRate := float64(fearCount) / n * 100

	// When both rates clear their threshold the stronger one names the
	// state; FOMO wins an exact tie.
	state := CycleBalanced
	switch {
	case fomoRate > c.fomoPct && fomoRate >= fearRate:
		state = CycleFomoDominant
	case fearRate > c.fearPct:
		state = CycleFearDominant
	case fomoRate > c.fomoPct:
		state = CycleFomoDominant
	}

	return &FomoFearPayload{
		State:      state,
		FomoRate:   round1(fomoRate),
		FearRate:   round1(fearRate),
		WindowSize: len(txs),
	}, nil
}
