package cards

import (
	"fmt"
	"sort"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

const (
	StrategyConcentrated    = "Concentrated"
	StrategyOverDiversified = "Over-Diversified"
	StrategyBalanced        = "Balanced"
)

type DiversificationPayload struct {
	Strategy       string  `json:"strategy"`
	TokenCount     int     `json:"tokenCount"`
	Top1Percentage float64 `json:"top1Percentage"`
	Top3Percentage float64 `json:"top3Percentage"`
	Top5Percentage float64 `json:"top5Percentage"`
	TotalExposure  float64 `json:"totalExposureUsd"`
}

// DiversificationPsychology measures how concentrated the wallet's estimated
// USD exposure is across tokens.
type DiversificationPsychology struct {
	dustUSD        float64
	top3Pct        float64
	overTop5Pct    float64
	overMinTokens  int
}

func NewDiversificationPsychology(sc config.Scoring) *DiversificationPsychology {
	return &DiversificationPsychology{
		dustUSD:       sc.DustUSD,
		top3Pct:       sc.ConcentrationTop3Pct,
		overTop5Pct:   sc.OverDiversifiedTop5Pct,
		overMinTokens: sc.OverDiversifiedMinTokens,
	}
}

func (c *DiversificationPsychology) CardType() string { return TypeDiversification }
func (c *DiversificationPsychology) QueryID() string  { return analytics.QueryTokenTransfers }

func (c *DiversificationPsychology) RequiredFields() []string {
	return []string{"token_address", "amount"}
}

func (c *DiversificationPsychology) Transform(snap *analytics.Snapshot) (any, error) {
	exposure := map[string]float64{}
	for _, row := range snap.Rows {
		token, ok := row.String("token_address")
		if !ok {
			continue
		}
		amount, ok := row.Float("amount")
		if !ok {
			continue
		}
		if usd := estimateUSD(amount); usd >= c.dustUSD {
			exposure[token] += usd
		}
	}
	if len(exposure) == 0 {
		return nil, fmt.Errorf("%w: no non-dust exposure", ErrDataUnavailable)
	}

	values := make([]float64, 0, len(exposure))
	var total float64
	for _, v := range exposure {
		values = append(values, v)
		total += v
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	top1 := topShare(values, total, 1)
	top3 := topShare(values, total, 3)
	top5 := topShare(values, total, 5)
	count := len(values)

	// With three or fewer tokens top3 is trivially 100%, so the
	// concentration verdict only applies beyond that.
	strategy := StrategyBalanced
	switch {
	case count > 3 && top3 > c.top3Pct:
		strategy = StrategyConcentrated
	case count > c.overMinTokens && top5 < c.overTop5Pct:
		strategy = StrategyOverDiversified
	}

	return &DiversificationPayload{
		Strategy:       strategy,
		TokenCount:     count,
		Top1Percentage: round1(top1),
		Top3Percentage: round1(top3),
		Top5Percentage: round1(top5),
		TotalExposure:  round1(total),
	}, nil
}

func topShare(sortedDesc []float64, total float64, n int) float64 {
	if total <= 0 {
		return 0
	}
	if n > len(sortedDesc) {
		n = len(sortedDesc)
	}
	var sum float64
	for _, v := range sortedDesc[:n] {
		sum += v
	}
	return sum / total * 100
}
