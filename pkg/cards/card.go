package cards

import (
	"encoding/json"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/analytics"
)

// Card type identifiers. Also the registration keys, the cache key suffixes
// and the persistence discriminator, so they must stay stable.
const (
	TypeArchetype          = "archetype"
	TypeRiskAppetite       = "risk_appetite"
	TypeConvictionCollapse = "conviction_collapse"
	TypePositionSizing     = "position_sizing"
	TypeDiversification    = "diversification"
	TypeGasFeePersonality  = "gas_fee_personality"
	TypeFomoFearCycle      = "fomo_fear_cycle"
)

// Calculator computes one behavioral card from a raw snapshot.
//
// Transform must be pure: no I/O, no clock reads, no hidden state. Anything
// non-deterministic belongs in the service layer where it can be seen.
type Calculator interface {
	// CardType is the unique identifier of the card this calculator produces.
	CardType() string
	// QueryID names the upstream query whose snapshot Transform consumes.
	QueryID() string
	// RequiredFields lists the row fields Transform depends on; the service
	// checks them before calling Transform and degrades to a DataUnavailable
	// result when they are absent.
	RequiredFields() []string
	// Transform derives the card payload from the snapshot. Returning
	// ErrDataUnavailable (wrapped or not) signals a data problem, which is a
	// valid outcome rather than a pipeline failure.
	Transform(snap *analytics.Snapshot) (any, error)
}

// Result is one computed card. Exactly one of Payload and Error is set; both
// are successful returns of the pipeline. Identity key is
// (WalletAddress, CardType); CalculatedAt versions repeat computations but
// is never required to be monotonic (clock skew between replicas is
// tolerated).
type Result struct {
	CardType      string          `json:"cardType"`
	WalletAddress string          `json:"walletAddress"`
	Chain         string          `json:"chain"`
	CalculatedAt  time.Time       `json:"calculatedAt"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         *CardError      `json:"error,omitempty"`
}

// OK reports whether the result carries a payload.
func (r *Result) OK() bool {
	return r != nil && r.Error == nil && len(r.Payload) > 0
}

// DecodePayload unmarshals the payload into out.
func (r *Result) DecodePayload(out any) error {
	return json.Unmarshal(r.Payload, out)
}
