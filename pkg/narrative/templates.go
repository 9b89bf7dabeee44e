package narrative

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
)

// fallbackTones renders the four narrative tones from score bands alone. It
// is the deterministic safety net behind the generation service: it never
// fails and always fills all four tones, even for a profile whose every
// card errored.
func fallbackTones(p *pipeline.Profile) Tones {
	archetype := p.Archetype
	if archetype == "" {
		archetype = "Mystery Trader"
	}
	band := p.RiskBand
	if band == "" {
		band = "Unreadable"
	}

	return Tones{
		Brutal: fmt.Sprintf(
			"You're a %s with a %s risk profile. Conviction score %.0f, urgency %.0f — the chain doesn't lie, and it says the plan changes every time the chart twitches.",
			archetype, band, p.ConvictionScore, p.UrgencyScore),
		Encouraging: fmt.Sprintf(
			"A %s profile is nothing to hide: your %s instincts show up in every trade, and a conviction score of %.0f is something to build on, one held position at a time.",
			band, archetype, p.ConvictionScore),
		Analytical: fmt.Sprintf(
			"Profile summary: archetype %s (secondary %s), risk %.0f/100 (%s), conviction %.0f, sizing consistency %.0f, top-3 concentration %.0f%%. The dominant behavioral driver is %s.",
			archetype, orDash(p.SecondaryArchetype), p.RiskScore, band,
			p.ConvictionScore, p.SizingConsistency, p.Top3Percentage, dominantDriver(p)),
		Chaotic: fmt.Sprintf(
			"ser. SER. the blockchain watched you be a %s for months. risk meter says %s, fomo meter says %s, and the gas fees say you'd pay extra to lose money FASTER. iconic behavior honestly.",
			archetype, band, orDash(p.FomoState)),
	}
}

func orDash(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func dominantDriver(p *pipeline.Profile) string {
	switch {
	case p.FomoRate > p.FearRate && p.FomoRate > 40:
		return "fee-insensitive entry chasing"
	case p.FearRate > 40:
		return "exit-driven de-risking"
	case p.ConvictionScore < 30:
		return "rapid conviction decay"
	case p.RiskScore >= 60:
		return "risk-seeking token selection"
	default:
		return "habit-driven steady accumulation"
	}
}
