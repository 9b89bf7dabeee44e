package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
	"go.uber.org/zap"
)

// Bundle is the full narrative output for one profile: contradictions and
// flags from the rule tables, plus the four-tone commentary. Recomputed per
// request, never stored.
type Bundle struct {
	Contradictions []string `json:"contradictions"`
	Flags          []string `json:"flags"`
	Suggestions    []string `json:"suggestions"`
	Narratives     Tones    `json:"narratives"`
	Generated      bool     `json:"generated"`
}

// Synthesizer turns a completed profile into a Bundle. generator may be nil
// to run fallback-only.
type Synthesizer struct {
	generator Generator
	logger    *zap.Logger
}

func NewSynthesizer(generator Generator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, logger: logger}
}

// Compose never fails: if the generation service is unreachable, slow, or
// returns anything but the exact four-tone contract, the deterministic
// templates take over.
func (s *Synthesizer) Compose(ctx context.Context, p *pipeline.Profile) *Bundle {
	bundle := &Bundle{
		Contradictions: Contradictions(p),
		Flags:          Flags(p),
		Suggestions:    Suggestions(p),
	}

	if s.generator != nil {
		tones, err := s.generator.Generate(ctx, buildPrompt(p, bundle))
		if err == nil {
			bundle.Narratives = tones
			bundle.Generated = true
			return bundle
		}
		s.logger.Warn("narrative generation unavailable, using templates",
			zap.String("wallet", p.WalletAddress),
			zap.Error(err))
	}

	bundle.Narratives = fallbackTones(p)
	return bundle
}

// buildPrompt serializes the profile's top-line scores into the structured
// prompt the generation service expects.
func buildPrompt(p *pipeline.Profile, b *Bundle) string {
	summary, _ := json.Marshal(map[string]any{
		"archetype":          p.Archetype,
		"secondaryArchetype": p.SecondaryArchetype,
		"riskScore":          p.RiskScore,
		"riskBand":           p.RiskBand,
		"convictionScore":    p.ConvictionScore,
		"sizingStyle":        p.SizingStyle,
		"diversification":    p.DiversificationStrategy,
		"gasStyle":           p.GasStyle,
		"fomoState":          p.FomoState,
		"tradesPerDay":       p.TradesPerDay,
		"flags":              b.Flags,
		"contradictions":     b.Contradictions,
	})

	var sb strings.Builder
	sb.WriteString("You are a blockchain trading psychologist. Given this wallet's behavioral profile, ")
	sb.WriteString("write four short commentaries about the trader behind it. ")
	sb.WriteString(`Respond with a JSON object containing exactly the keys "brutal", "encouraging", "analytical" and "chaotic", each a string. `)
	fmt.Fprintf(&sb, "Profile: %s", summary)
	return sb.String()
}
