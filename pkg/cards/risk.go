package cards

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
)

// Risk factor weights and normalization scales. Given constants; they sum to
// 100 so the clamped score reads as a percentage.
const (
	riskWeightNewTokens  = 25.0
	riskWeightPosition   = 20.0
	riskWeightDrawdown   = 15.0
	riskWeightVolatility = 15.0
	riskWeightRugPulls   = 15.0
	riskWeightGasRatio   = 10.0

	riskPositionScaleUSD = 10_000
	riskDrawdownScalePct = 100
	riskRugPullScale     = 5
	riskGasPerTradeScale = 5e6
)

// Risk appetite bands, low cutoff exclusive of the next band.
const (
	BandUltraConservative = "Ultra Conservative"
	BandConservative      = "Conservative"
	BandModerate          = "Moderate"
	BandAggressive        = "Aggressive"
	BandUltraAggressive   = "Ultra Aggressive"
)

type RiskPayload struct {
	Score   float64            `json:"score"`
	Band    string             `json:"band"`
	Factors map[string]float64 `json:"factors"`
}

// RiskAppetiteMeter sums six weighted risk factors into a [0,100] score.
type RiskAppetiteMeter struct{}

func NewRiskAppetiteMeter() *RiskAppetiteMeter { return &RiskAppetiteMeter{} }

func (c *RiskAppetiteMeter) CardType() string { return TypeRiskAppetite }
func (c *RiskAppetiteMeter) QueryID() string  { return analytics.QueryWalletStats }

func (c *RiskAppetiteMeter) RequiredFields() []string {
	return []string{"new_token_ratio", "avg_position_usd", "max_drawdown_pct", "volatility_preference", "rug_pull_count", "gas_per_trade"}
}

func (c *RiskAppetiteMeter) Transform(snap *analytics.Snapshot) (any, error) {
	if len(snap.Rows) == 0 {
		return nil, fmt.Errorf("%w: empty wallet stats", ErrDataUnavailable)
	}
	row := snap.Rows[0]

	newTokenRatio, _ := row.Float("new_token_ratio")
	avgPositionUSD, _ := row.Float("avg_position_usd")
	maxDrawdownPct, _ := row.Float("max_drawdown_pct")
	volatilityPref, _ := row.Float("volatility_preference")
	rugPullCount, _ := row.Float("rug_pull_count")
	gasPerTrade, _ := row.Float("gas_per_trade")

	factors := map[string]float64{
		"newTokens":  round1(riskWeightNewTokens * clamp(newTokenRatio, 0, 1)),
		"position":   round1(riskWeightPosition * clip01(avgPositionUSD, riskPositionScaleUSD)),
		"drawdown":   round1(riskWeightDrawdown * clip01(maxDrawdownPct, riskDrawdownScalePct)),
		"volatility": round1(riskWeightVolatility * clamp(volatilityPref, 0, 1)),
		"rugPulls":   round1(riskWeightRugPulls * clip01(rugPullCount, riskRugPullScale)),
		"gasRatio":   round1(riskWeightGasRatio * clip01(gasPerTrade, riskGasPerTradeScale)),
	}

	var total float64
	for _, f := range factors {
		total += f
	}
	score := clamp(total, 0, 100)

	return &RiskPayload{
		Score:   round1(score),
		Band:    riskBand(score),
		Factors: factors,
	}, nil
}

func riskBand(score float64) string {
	switch {
	case score < 20:
		return BandUltraConservative
	case score < 40:
		return BandConservative
	case score < 60:
		return BandModerate
	case score < 80:
		return BandAggressive
	default:
		return BandUltraAggressive
	}
}
