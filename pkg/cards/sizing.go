package cards

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

const (
	SizingSystematic = "Systematic"
	SizingEmotional  = "Emotional"
)

type SizingPayload struct {
	SizingConsistency float64 `json:"sizingConsistency"`
	Style             string  `json:"style"`
	CoefficientOfVar  float64 `json:"coefficientOfVariation"`
	AvgPositionUSD    float64 `json:"avgPositionUsd"`
	PositionsAnalyzed int     `json:"positionsAnalyzed"`
}

// PositionSizingPsychology measures how evenly the wallet sizes its entries.
// A low coefficient of variation across estimated position values reads as a
// system; a high one reads as impulse.
type PositionSizingPsychology struct {
	dustUSD       float64
	systematicMin float64
}

func NewPositionSizingPsychology(sc config.Scoring) *PositionSizingPsychology {
	return &PositionSizingPsychology{
		dustUSD:       sc.DustUSD,
		systematicMin: sc.SizingSystematicMin,
	}
}

func (c *PositionSizingPsychology) CardType() string { return TypePositionSizing }
func (c *PositionSizingPsychology) QueryID() string  { return analytics.QueryTokenTransfers }

func (c *PositionSizingPsychology) RequiredFields() []string {
	return []string{"amount"}
}

func (c *PositionSizingPsychology) Transform(snap *analytics.Snapshot) (any, error) {
	var values []float64
	for _, row := range snap.Rows {
		amount, ok := row.Float("amount")
		if !ok {
			continue
		}
		usd := estimateUSD(amount)
		if usd < c.dustUSD {
			continue
		}
		values = append(values, usd)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no non-dust positions", ErrDataUnavailable)
	}

	m := mean(values)
	cov := 0.0
	if m > 0 {
		cov = stddev(values) / m
	}
	consistency := clamp(100-cov*100, 0, 100)

	style := SizingEmotional
	if consistency >= c.systematicMin {
		style = SizingSystematic
	}

	return &SizingPayload{
		SizingConsistency: round1(consistency),
		Style:             style,
		CoefficientOfVar:  round1(cov * 100),
		AvgPositionUSD:    round1(m),
		PositionsAnalyzed: len(values),
	}, nil
}

// estimateUSD guesses a dollar value from a raw token amount. Token decimals
// are unknown at this layer, so the amount is folded down by thousands until
// it lands in a plausible per-trade range. Crude, but consistent across a
// wallet's own transfers, which is all the dispersion math needs.
func estimateUSD(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	v := raw
	for v >= 100_000 {
		v /= 1000
	}
	return v
}
