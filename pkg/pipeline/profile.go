package pipeline

import (
	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
)

// statsWindowDays is the aggregation window of the wallet-stats query, used
// to turn the trade count into a per-day frequency.
const statsWindowDays = 30

// Profile is the read-only aggregate the narrative layer consumes: top-line
// scores plus the raw card set. It is rebuilt per request and never stored.
type Profile struct {
	WalletAddress string `json:"walletAddress"`
	Chain         string `json:"chain"`

	Archetype          string  `json:"archetype,omitempty"`
	SecondaryArchetype string  `json:"secondaryArchetype,omitempty"`
	TradesPerDay       float64 `json:"tradesPerDay"`

	RiskScore float64 `json:"riskScore"`
	RiskBand  string  `json:"riskBand,omitempty"`

	ConvictionScore float64 `json:"convictionScore"`
	CollapseRate    float64 `json:"collapseRate"`

	SizingStyle       string  `json:"sizingStyle,omitempty"`
	SizingConsistency float64 `json:"sizingConsistency"`

	DiversificationStrategy string  `json:"diversificationStrategy,omitempty"`
	Top3Percentage          float64 `json:"top3Percentage"`
	TokenCount              int     `json:"tokenCount"`

	GasStyle     string  `json:"gasStyle,omitempty"`
	UrgencyScore float64 `json:"urgencyScore"`

	FomoState string  `json:"fomoState,omitempty"`
	FomoRate  float64 `json:"fomoRate"`
	FearRate  float64 `json:"fearRate"`

	Cards map[string]*cards.Result `json:"cards"`
}

// HasCard reports whether the named card computed successfully.
func (p *Profile) HasCard(cardType string) bool {
	return p.Cards[cardType].OK()
}

// BuildProfile folds a completed batch into the profile read-model. Cards
// that came back as Error-results simply leave their fields at zero values;
// the narrative layer checks HasCard before reading them.
func BuildProfile(id wallet.Identity, batch *Batch) *Profile {
	p := &Profile{
		WalletAddress: id.Address,
		Chain:         id.Chain,
		Cards:         make(map[string]*cards.Result, len(batch.Results)),
	}

	for _, res := range batch.Results {
		p.Cards[res.CardType] = res
		if !res.OK() {
			continue
		}
		switch res.CardType {
		case cards.TypeArchetype:
			var pl cards.ArchetypePayload
			if res.DecodePayload(&pl) == nil {
				p.Archetype = pl.Primary
				p.SecondaryArchetype = pl.Secondary
				p.TradesPerDay = pl.Metrics.TradeCount / statsWindowDays
			}
		case cards.TypeRiskAppetite:
			var pl cards.RiskPayload
			if res.DecodePayload(&pl) == nil {
				p.RiskScore = pl.Score
				p.RiskBand = pl.Band
			}
		case cards.TypeConvictionCollapse:
			var pl cards.ConvictionPayload
			if res.DecodePayload(&pl) == nil {
				p.ConvictionScore = pl.ConvictionScore
				p.CollapseRate = pl.CollapseRate
			}
		case cards.TypePositionSizing:
			var pl cards.SizingPayload
			if res.DecodePayload(&pl) == nil {
				p.SizingStyle = pl.Style
				p.SizingConsistency = pl.SizingConsistency
			}
		case cards.TypeDiversification:
			var pl cards.DiversificationPayload
			if res.DecodePayload(&pl) == nil {
				p.DiversificationStrategy = pl.Strategy
				p.Top3Percentage = pl.Top3Percentage
				p.TokenCount = pl.TokenCount
			}
		case cards.TypeGasFeePersonality:
			var pl cards.GasFeePayload
			if res.DecodePayload(&pl) == nil {
				p.GasStyle = pl.Style
				p.UrgencyScore = pl.UrgencyScore
			}
		case cards.TypeFomoFearCycle:
			var pl cards.FomoFearPayload
			if res.DecodePayload(&pl) == nil {
				p.FomoState = pl.State
				p.FomoRate = pl.FomoRate
				p.FearRate = pl.FearRate
			}
		}
	}

	return p
}
