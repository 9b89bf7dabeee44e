package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/utils"
	"github.com/sony/gobreaker"
)

// Tones is the four-voice narrative bundle. All four fields are always
// populated; an empty tone is treated as a generation failure upstream of
// this type.
type Tones struct {
	Brutal      string `json:"brutal"`
	Encouraging string `json:"encouraging"`
	Analytical  string `json:"analytical"`
	Chaotic     string `json:"chaotic"`
}

// Generator produces the four narrative tones from a structured prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Tones, error)
}

// HTTPGenerator calls the external text-generation service. The contract is
// strict: a 2xx response whose body is a JSON object with exactly the four
// non-empty tone strings. Anything else is an error, which the synthesizer
// turns into a template fallback. A circuit breaker keeps a flapping
// generation service from adding latency to every request.
type HTTPGenerator struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPGenerator builds a generator from NARRATIVE_API_URL and
// NARRATIVE_TIMEOUT. An empty URL yields nil, meaning fallback-only.
func NewHTTPGenerator() *HTTPGenerator {
	url := utils.Env("NARRATIVE_API_URL", "")
	if url == "" {
		return nil
	}
	return NewHTTPGeneratorWith(url, &http.Client{
		Timeout: utils.EnvDuration("NARRATIVE_TIMEOUT", 10*time.Second),
	})
}

func NewHTTPGeneratorWith(url string, client *http.Client) *HTTPGenerator {
	return &HTTPGenerator{
		url:    url,
		client: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "narrative-generation",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (Tones, error) {
	out, err := g.breaker.Execute(func() (any, error) {
		return g.call(ctx, prompt)
	})
	if err != nil {
		return Tones{}, err
	}
	return out.(Tones), nil
}

func (g *HTTPGenerator) call(ctx context.Context, prompt string) (Tones, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return Tones{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Tones{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Tones{}, fmt.Errorf("narrative service call: %w", err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Tones{}, fmt.Errorf("narrative service returned %d", resp.StatusCode)
	}

	var tones Tones
	if err := json.NewDecoder(resp.Body).Decode(&tones); err != nil {
		return Tones{}, fmt.Errorf("narrative service body unparsable: %w", err)
	}
	if tones.Brutal == "" || tones.Encouraging == "" || tones.Analytical == "" || tones.Chaotic == "" {
		return Tones{}, fmt.Errorf("narrative service response missing tones")
	}
	return tones, nil
}
