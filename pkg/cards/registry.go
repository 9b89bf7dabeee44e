package cards

import (
	"fmt"

	"github.com/JoodasCode/wallet-whisperer/pkg/config"
)

// Registry maps card type names to their calculators. It is populated once
// at construction and never mutated afterwards, so lookups need no locking.
type Registry struct {
	calculators map[string]Calculator
	order       []string
}

// NewRegistry builds the full production registry from the scoring config.
func NewRegistry(sc config.Scoring) *Registry {
	r := &Registry{calculators: map[string]Calculator{}}
	r.register(
		NewArchetypeClassifier(),
		NewRiskAppetiteMeter(),
		NewConvictionCollapseDetector(sc),
		NewPositionSizingPsychology(sc),
		NewDiversificationPsychology(sc),
		NewGasFeePersonality(sc),
		NewFomoFearCycle(sc),
	)
	return r
}

// NewRegistryWith builds a registry from an explicit calculator list, used
// by tests that need a narrow or fake card set.
func NewRegistryWith(calcs ...Calculator) *Registry {
	r := &Registry{calculators: map[string]Calculator{}}
	r.register(calcs...)
	return r
}

func (r *Registry) register(calcs ...Calculator) {
	for _, c := range calcs {
		if _, dup := r.calculators[c.CardType()]; dup {
			panic(fmt.Sprintf("duplicate card type %q", c.CardType()))
		}
		r.calculators[c.CardType()] = c
		r.order = append(r.order, c.CardType())
	}
}

// Get returns the calculator for the card type, or ErrUnknownCardType.
func (r *Registry) Get(cardType string) (Calculator, error) {
	c, ok := r.calculators[cardType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCardType, cardType)
	}
	return c, nil
}

// Has reports whether the card type is registered.
func (r *Registry) Has(cardType string) bool {
	_, ok := r.calculators[cardType]
	return ok
}

// Types returns every registered card type in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}
