package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// profileWith marks the given card types as computed and lets the caller
// mutate the top-line fields.
func profileWith(mutate func(p *pipeline.Profile), okCards ...string) *pipeline.Profile {
	p := &pipeline.Profile{
		WalletAddress: "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		Chain:         "ethereum",
		Cards:         map[string]*cards.Result{},
	}
	for _, ct := range okCards {
		p.Cards[ct] = &cards.Result{CardType: ct, Payload: json.RawMessage(`{}`)}
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestContradictionConvictionVsChurn(t *testing.T) {
	p := profileWith(func(p *pipeline.Profile) {
		p.ConvictionScore = 85
		p.TradesPerDay = 12
	}, cards.TypeConvictionCollapse, cards.TypeArchetype)

	out := Contradictions(p)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "revolving door")
}

func TestContradictionRequiresBothCards(t *testing.T) {
	// Same scores, but the archetype card is missing: the rule must not fire
	// on a half-computed profile.
	p := profileWith(func(p *pipeline.Profile) {
		p.ConvictionScore = 85
		p.TradesPerDay = 12
	}, cards.TypeConvictionCollapse)

	assert.Empty(t, Contradictions(p))
}

func TestContradictionCautiousDegen(t *testing.T) {
	p := profileWith(func(p *pipeline.Profile) {
		p.Archetype = "Degen"
		p.RiskScore = 25
		p.RiskBand = cards.BandConservative
	}, cards.TypeRiskAppetite, cards.TypeArchetype)

	out := Contradictions(p)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "Degen")
}

func TestFlagsAndSuggestions(t *testing.T) {
	p := profileWith(func(p *pipeline.Profile) {
		p.RiskScore = 92
		p.ConvictionScore = 10
		p.UrgencyScore = 85
		p.FomoState = cards.CycleFomoDominant
	}, cards.TypeRiskAppetite, cards.TypeConvictionCollapse, cards.TypeGasFeePersonality, cards.TypeFomoFearCycle)

	flags := Flags(p)
	assert.Equal(t, []string{FlagHighRisk, FlagConvictionCollapse, FlagGasBurner, FlagFomoCycle}, flags)

	suggestions := Suggestions(p)
	assert.Len(t, suggestions, 3)
}

func TestFlagsEmptyForQuietProfile(t *testing.T) {
	p := profileWith(func(p *pipeline.Profile) {
		p.RiskScore = 45
		p.ConvictionScore = 80
	}, cards.TypeRiskAppetite, cards.TypeConvictionCollapse)

	assert.Empty(t, Flags(p))
	assert.Empty(t, Suggestions(p))
}

func TestFallbackTonesAlwaysComplete(t *testing.T) {
	cases := []*pipeline.Profile{
		profileWith(func(p *pipeline.Profile) {
			p.Archetype = "Hodler"
			p.RiskBand = cards.BandModerate
			p.RiskScore = 50
		}, cards.TypeArchetype, cards.TypeRiskAppetite),
		// Every card errored: the fallback still has to say something.
		profileWith(nil),
	}
	for _, p := range cases {
		tones := fallbackTones(p)
		assert.NotEmpty(t, tones.Brutal)
		assert.NotEmpty(t, tones.Encouraging)
		assert.NotEmpty(t, tones.Analytical)
		assert.NotEmpty(t, tones.Chaotic)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (Tones, error) {
	return Tones{}, errors.New("service unreachable")
}

func TestComposeFallsBackWhenGeneratorFails(t *testing.T) {
	s := NewSynthesizer(failingGenerator{}, zaptest.NewLogger(t))
	p := profileWith(func(p *pipeline.Profile) {
		p.Archetype = "Degen"
		p.RiskBand = cards.BandUltraAggressive
		p.RiskScore = 95
	}, cards.TypeArchetype, cards.TypeRiskAppetite)

	b := s.Compose(context.Background(), p)

	assert.False(t, b.Generated)
	assert.NotEmpty(t, b.Narratives.Brutal)
	assert.NotEmpty(t, b.Narratives.Encouraging)
	assert.NotEmpty(t, b.Narratives.Analytical)
	assert.NotEmpty(t, b.Narratives.Chaotic)
	assert.Contains(t, b.Flags, FlagHighRisk)
}

func TestComposeWithoutGenerator(t *testing.T) {
	s := NewSynthesizer(nil, zaptest.NewLogger(t))
	b := s.Compose(context.Background(), profileWith(nil))

	assert.False(t, b.Generated)
	assert.NotEmpty(t, b.Narratives.Chaotic)
}

func TestHTTPGeneratorHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "brutal")
		_ = json.NewEncoder(w).Encode(Tones{
			Brutal:      "b",
			Encouraging: "e",
			Analytical:  "a",
			Chaotic:     "c",
		})
	}))
	defer srv.Close()

	g := NewHTTPGeneratorWith(srv.URL, srv.Client())
	tones, err := g.Generate(context.Background(), buildPrompt(profileWith(nil), &Bundle{}))
	require.NoError(t, err)
	assert.Equal(t, "b", tones.Brutal)
}

func TestHTTPGeneratorRejectsIncompleteTones(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"brutal": "only one tone"})
	}))
	defer srv.Close()

	g := NewHTTPGeneratorWith(srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestHTTPGeneratorRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	g := NewHTTPGeneratorWith(srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestHTTPGeneratorRejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewHTTPGeneratorWith(srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
}
