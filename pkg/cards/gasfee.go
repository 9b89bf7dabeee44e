package cards

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

const (
	GasStylePremium   = "Premium"
	GasStyleOptimizer = "Cost Optimizer"
	GasStyleStandard  = "Standard"
)

type GasFeePayload struct {
	Style        string  `json:"style"`
	UrgencyScore float64 `json:"urgencyScore"`
	AvgFee       float64 `json:"avgFee"`
	FeeStdDev    float64 `json:"feeStdDev"`
	TxAnalyzed   int     `json:"txAnalyzed"`
}

// GasFeePersonality reads how much the wallet is willing to pay to get in
// now. Fee thresholds are raw chain units, deliberately not normalized.
type GasFeePersonality struct {
	highFee     float64
	lowFee      float64
	urgencyBase float64
}

func NewGasFeePersonality(sc config.Scoring) *GasFeePersonality {
	return &GasFeePersonality{
		highFee:     sc.HighFeeThreshold,
		lowFee:      sc.LowFeeThreshold,
		urgencyBase: sc.UrgencyFeeBase,
	}
}

func (c *GasFeePersonality) CardType() string { return TypeGasFeePersonality }
func (c *GasFeePersonality) QueryID() string  { return analytics.QueryTokenTransfers }

func (c *GasFeePersonality) RequiredFields() []string {
	return []string{"fee"}
}

func (c *GasFeePersonality) Transform(snap *analytics.Snapshot) (any, error) {
	var fees []float64
	for _, row := range snap.Rows {
		if fee, ok := row.Float("fee"); ok && fee >= 0 {
			fees = append(fees, fee)
		}
	}
	if len(fees) == 0 {
		return nil, fmt.Errorf("%w: no fee data", ErrDataUnavailable)
	}

	avg := mean(fees)

	style := GasStyleStandard
	switch {
	case avg > c.highFee:
		style = GasStylePremium
	case avg < c.lowFee:
		style = GasStyleOptimizer
	}

	urgency := clamp(avg/c.urgencyBase*100, 0, 100)

	return &GasFeePayload{
		Style:        style,
		UrgencyScore: round1(urgency),
		AvgFee:       round1(avg),
		FeeStdDev:    round1(stddev(fees)),
		TxAnalyzed:   len(fees),
	}, nil
}
