package cards

import (
	"fmt"
	"sort"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

type transferEvent struct {
	token  string
	side   string
	amount float64
	at     time.Time
}

type CollapseEvent struct {
	Token     string    `json:"token"`
	BuyAmount float64   `json:"buyAmount"`
	BoughtAt  time.Time `json:"boughtAt"`
	SoldAt    time.Time `json:"soldAt"`
	HoldHours float64   `json:"holdHours"`
}

type ConvictionPayload struct {
	ConvictionScore float64         `json:"convictionScore"`
	CollapseRate    float64         `json:"collapseRate"`
	CollapseEvents  []CollapseEvent `json:"collapseEvents"`
	TokensAnalyzed  int             `json:"tokensAnalyzed"`
}

// ConvictionCollapseDetector finds round trips where a material buy was
// dumped within the collapse window, i.e. positions the wallet talked itself
// out of almost immediately.
type ConvictionCollapseDetector struct {
	dustAmount float64
	window     time.Duration
}

func NewConvictionCollapseDetector(sc config.Scoring) *ConvictionCollapseDetector {
	return &ConvictionCollapseDetector{
		dustAmount: sc.DustAmount,
		window:     time.Duration(sc.CollapseWindowHours) * time.Hour,
	}
}

func (c *ConvictionCollapseDetector) CardType() string { return TypeConvictionCollapse }
func (c *ConvictionCollapseDetector) QueryID() string  { return analytics.QueryTokenTransfers }

func (c *ConvictionCollapseDetector) RequiredFields() []string {
	return []string{"token_address", "direction", "amount", "block_time"}
}

func (c *ConvictionCollapseDetector) Transform(snap *analytics.Snapshot) (any, error) {
	byToken := map[string][]transferEvent{}
	for _, row := range snap.Rows {
		ev, ok := parseTransfer(row)
		if !ok {
			continue
		}
		byToken[ev.token] = append(byToken[ev.token], ev)
	}
	if len(byToken) == 0 {
		return nil, fmt.Errorf("%w: no parsable transfers", ErrDataUnavailable)
	}

	events := []CollapseEvent{}
	tokensWithMulti := 0
	for token, evs := range byToken {
		if len(evs) < 2 {
			continue
		}
		tokensWithMulti++
		sort.Slice(evs, func(i, j int) bool { return evs[i].at.Before(evs[j].at) })

		// Scan for a material buy followed by a material sell inside the
		// window; each sell closes at most one event.
		for i := 0; i < len(evs); i++ {
			if evs[i].side != "buy" || evs[i].amount <= c.dustAmount {
				continue
			}
			for j := i + 1; j < len(evs); j++ {
				if evs[j].side != "sell" || evs[j].amount <= c.dustAmount {
					continue
				}
				held := evs[j].at.Sub(evs[i].at)
				if held > c.window {
					break
				}
				events = append(events, CollapseEvent{
					Token:     token,
					BuyAmount: evs[i].amount,
					BoughtAt:  evs[i].at,
					SoldAt:    evs[j].at,
					HoldHours: round1(held.Hours()),
				})
				i = j // resume after the matched sell
				break
			}
		}
	}

	rate := 0.0
	if tokensWithMulti > 0 {
		rate = float64(len(events)) / float64(tokensWithMulti) * 100
	}
	score := clamp(100-2*rate, 0, 100)

	sort.Slice(events, func(i, j int) bool { return events[i].BoughtAt.Before(events[j].BoughtAt) })

	return &ConvictionPayload{
		ConvictionScore: round1(score),
		CollapseRate:    round1(rate),
		CollapseEvents:  events,
		TokensAnalyzed:  tokensWithMulti,
	}, nil
}

func parseTransfer(row analytics.Row) (transferEvent, bool) {
	token, ok := row.String("token_address")
	if !ok {
		return transferEvent{}, false
	}
	side, ok := row.String("direction")
	if !ok {
		return transferEvent{}, false
	}
	amount, ok := row.Float("amount")
	if !ok {
		return transferEvent{}, false
	}
	at, ok := row.Time("block_time")
	if !ok {
		return transferEvent{}, false
	}
	return transferEvent{token: token, side: side, amount: amount, at: at}, true
}
