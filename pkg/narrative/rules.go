package narrative

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
)

// Rule detects one cross-card contradiction. When reads at least two card
// fields; it must return false whenever any card it depends on is missing.
type Rule struct {
	Name string
	When func(p *pipeline.Profile) bool
	Text func(p *pipeline.Profile) string
}

// contradictionRules is the declarative rule table. Each entry is
// independently testable; order only affects output ordering.
var contradictionRules = []Rule{
	{
		Name: "conviction_vs_churn",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypeConvictionCollapse) && p.HasCard(cards.TypeArchetype) &&
				p.ConvictionScore >= 70 && p.TradesPerDay >= 5
		},
		Text: func(p *pipeline.Profile) string {
			return fmt.Sprintf("Holds positions with conviction (score %.0f) yet trades %.0f times a day — diamond hands on a revolving door.",
				p.ConvictionScore, p.TradesPerDay)
		},
	},
	{
		Name: "cautious_degen",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypeRiskAppetite) && p.HasCard(cards.TypeArchetype) &&
				p.RiskScore < 40 && p.Archetype == "Degen"
		},
		Text: func(p *pipeline.Profile) string {
			return fmt.Sprintf("Trades like a Degen but carries a %s risk profile — adrenaline habits, savings-account nerves.", p.RiskBand)
		},
	},
	{
		Name: "premium_fees_conservative_risk",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypeGasFeePersonality) && p.HasCard(cards.TypeRiskAppetite) &&
				p.GasStyle == cards.GasStylePremium && p.RiskScore < 40
		},
		Text: func(p *pipeline.Profile) string {
			return "Pays premium gas to front-run nobody: fees say urgency, the risk profile says hesitation."
		},
	},
	{
		Name: "concentrated_but_timid",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypeDiversification) && p.HasCard(cards.TypeRiskAppetite) &&
				p.DiversificationStrategy == cards.StrategyConcentrated && p.RiskScore < 20
		},
		Text: func(p *pipeline.Profile) string {
			return fmt.Sprintf("Ultra-conservative score with %.0f%% of exposure in three tokens — all eggs, one basket, white knuckles.", p.Top3Percentage)
		},
	},
	{
		Name: "fomo_with_conviction",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypeFomoFearCycle) && p.HasCard(cards.TypeConvictionCollapse) &&
				p.FomoState == cards.CycleFomoDominant && p.ConvictionScore >= 70
		},
		Text: func(p *pipeline.Profile) string {
			return "Chases entries at panic fees yet rarely folds a position — impulsive on the way in, stubborn on the way out."
		},
	},
	{
		Name: "systematic_sizing_emotional_cycle",
		When: func(p *pipeline.Profile) bool {
			return p.HasCard(cards.TypePositionSizing) && p.HasCard(cards.TypeFomoFearCycle) &&
				p.SizingStyle == cards.SizingSystematic && p.FomoState != cards.CycleBalanced && p.FomoState != ""
		},
		Text: func(p *pipeline.Profile) string {
			return fmt.Sprintf("Sizes entries like a quant but times them in a %s state — the spreadsheet is fine, the finger on the button is not.", p.FomoState)
		},
	},
}

// Contradictions evaluates the rule table against the profile.
func Contradictions(p *pipeline.Profile) []string {
	var out []string
	for _, r := range contradictionRules {
		if r.When(p) {
			out = append(out, r.Text(p))
		}
	}
	return out
}
