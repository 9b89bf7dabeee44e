package cards

import (
	"fmt"
	"sort"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
)

// Archetype labels, in fixed declaration order. Ties between equal scores
// break by this order, which is why it must not be reshuffled.
var archetypeOrder = []string{"Degen", "Hodler", "Swing Trader", "Day Trader", "Whale"}

// archetypeWeights are the calibrated per-archetype weight vectors over the
// five normalized metrics (night-trade ratio, hold time, trade frequency,
// gas spend, token diversity). Treated as given constants.
var archetypeWeights = map[string]struct {
	night, hold, freq, gas, div float64
	invHold, invFreq, invNight  bool
}{
	"Degen":        {night: 0.30, hold: 0.20, freq: 0.25, gas: 0.15, div: 0.10, invHold: true},
	"Hodler":       {night: 0.20, hold: 0.40, freq: 0.25, gas: 0.10, div: 0.05, invFreq: true, invNight: true},
	"Swing Trader": {night: 0.15, hold: 0.20, freq: 0.30, gas: 0.10, div: 0.25, invNight: true},
	"Day Trader":   {night: 0.10, hold: 0.25, freq: 0.35, gas: 0.20, div: 0.10, invHold: true},
	"Whale":        {night: 0.10, hold: 0.25, freq: 0.10, gas: 0.40, div: 0.15, invFreq: true, invNight: true},
}

// Normalization scales for the raw metrics.
const (
	archetypeHoldScaleHours = 720 // one month of holding saturates the hold axis
	archetypeFreqScale      = 500 // trades in the aggregation window
	archetypeGasScale       = 1e9 // raw fee units
	archetypeDivScale       = 50  // distinct tokens
)

// ArchetypePayload is the archetype card payload.
type ArchetypePayload struct {
	Primary   string             `json:"primary"`
	Secondary string             `json:"secondary"`
	Scores    map[string]float64 `json:"scores"`
	Metrics   ArchetypeMetrics   `json:"metrics"`
}

type ArchetypeMetrics struct {
	NightTradeRatio float64 `json:"nightTradeRatio"`
	AvgHoldHours    float64 `json:"avgHoldHours"`
	TradeCount      float64 `json:"tradeCount"`
	TotalGasSpent   float64 `json:"totalGasSpent"`
	UniqueTokens    float64 `json:"uniqueTokens"`
}

// ArchetypeClassifier scores the five trading personalities from the
// wallet-stats snapshot and reports the top two.
type ArchetypeClassifier struct{}

func NewArchetypeClassifier() *ArchetypeClassifier { return &ArchetypeClassifier{} }

func (c *ArchetypeClassifier) CardType() string { return TypeArchetype }
func (c *ArchetypeClassifier) QueryID() string  { return analytics.QueryWalletStats }

func (c *ArchetypeClassifier) RequiredFields() []string {
	return []string{"night_trade_ratio", "avg_hold_hours", "trade_count", "total_gas_spent", "unique_tokens"}
}

func (c *ArchetypeClassifier) Transform(snap *analytics.Snapshot) (any, error) {
	if len(snap.Rows) == 0 {
		return nil, fmt.Errorf("%w: empty wallet stats", ErrDataUnavailable)
	}
	row := snap.Rows[0]

	m := ArchetypeMetrics{}
	m.NightTradeRatio, _ = row.Float("night_trade_ratio")
	m.AvgHoldHours, _ = row.Float("avg_hold_hours")
	m.TradeCount, _ = row.Float("trade_count")
	m.TotalGasSpent, _ = row.Float("total_gas_spent")
	m.UniqueTokens, _ = row.Float("unique_tokens")

	night := clamp(m.NightTradeRatio, 0, 1)
	hold := clip01(m.AvgHoldHours, archetypeHoldScaleHours)
	freq := clip01(m.TradeCount, archetypeFreqScale)
	gas := clip01(m.TotalGasSpent, archetypeGasScale)
	div := clip01(m.UniqueTokens, archetypeDivScale)

	scores := make(map[string]float64, len(archetypeOrder))
	for _, name := range archetypeOrder {
		w := archetypeWeights[name]
		n, h, f := night, hold, freq
		if w.invNight {
			n = 1 - n
		}
		if w.invHold {
			h = 1 - h
		}
		if w.invFreq {
			f = 1 - f
		}
		s := 100 * (w.night*n + w.hold*h + w.freq*f + w.gas*gas + w.div*div)
		scores[name] = round1(clamp(s, 0, 100))
	}

	ranked := append([]string(nil), archetypeOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	return &ArchetypePayload{
		Primary:   ranked[0],
		Secondary: ranked[1],
		Scores:    scores,
		Metrics:   m,
	}, nil
}
