package narrative

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
)

// Flag identifiers are stable: downstream consumers key UI and alerting off
// them, so renaming one is a breaking change.
const (
	FlagHighRisk           = "HIGH_RISK"
	FlagConvictionCollapse = "CONVICTION_COLLAPSE"
	FlagGasBurner          = "GAS_BURNER"
	FlagOverConcentrated   = "OVER_CONCENTRATED"
	FlagFomoCycle          = "FOMO_CYCLE"
	FlagFearCycle          = "FEAR_CYCLE"
)

type flagCheck struct {
	id   string
	when func(p *pipeline.Profile) bool
}

var flagChecks = []flagCheck{
	{FlagHighRisk, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeRiskAppetite) && p.RiskScore >= 80
	}},
	{FlagConvictionCollapse, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeConvictionCollapse) && p.ConvictionScore < 30
	}},
	{FlagGasBurner, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeGasFeePersonality) && p.UrgencyScore >= 80
	}},
	{FlagOverConcentrated, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeDiversification) && p.DiversificationStrategy == cards.StrategyConcentrated && p.Top3Percentage > 90
	}},
	{FlagFomoCycle, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeFomoFearCycle) && p.FomoState == cards.CycleFomoDominant
	}},
	{FlagFearCycle, func(p *pipeline.Profile) bool {
		return p.HasCard(cards.TypeFomoFearCycle) && p.FomoState == cards.CycleFearDominant
	}},
}

// Flags returns the triggered flag identifiers in declaration order.
func Flags(p *pipeline.Profile) []string {
	var out []string
	for _, f := range flagChecks {
		if f.when(p) {
			out = append(out, f.id)
		}
	}
	return out
}

// Suggestions maps triggered thresholds to actionable advice strings.
func Suggestions(p *pipeline.Profile) []string {
	var out []string
	if p.HasCard(cards.TypeRiskAppetite) && p.RiskScore >= 80 {
		out = append(out, fmt.Sprintf("Risk score %.0f: cap position sizes before the market does it for you.", p.RiskScore))
	}
	if p.HasCard(cards.TypeConvictionCollapse) && p.ConvictionScore < 30 {
		out = append(out, "Write down why you bought before you buy — most of your positions die within two days.")
	}
	if p.HasCard(cards.TypeGasFeePersonality) && p.UrgencyScore >= 80 {
		out = append(out, "You consistently pay panic-tier fees; batching entries off-peak would keep more of your stack.")
	}
	if p.HasCard(cards.TypeDiversification) && p.DiversificationStrategy == cards.StrategyOverDiversified {
		out = append(out, fmt.Sprintf("%d tokens with no core position is indecision, not diversification.", p.TokenCount))
	}
	if p.HasCard(cards.TypePositionSizing) && p.SizingStyle == cards.SizingEmotional {
		out = append(out, "Pick a unit size and stick to it for twenty trades; your entries currently scale with your mood.")
	}
	return out
}
