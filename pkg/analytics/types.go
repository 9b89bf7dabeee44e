package analytics

import (
	"strconv"
	"time"

	"github.com/JoodasCode/wallet-whisperer/pkg/wallet"
)

// Query identifiers understood by the analytics upstream. Each card
// calculator declares which one it consumes.
const (
	QueryWalletStats    = "wallet_stats"
	QueryTokenTransfers = "token_transfers"
)

// Params are the request parameters of an upstream query. They take part in
// the cache key, so values must be stable strings.
type Params map[string]string

// WalletParams builds the canonical parameter set for a wallet-scoped query.
func WalletParams(id wallet.Identity) Params {
	return Params{
		"wallet_address": id.Address,
		"chain":          id.Chain,
	}
}

// Row is one loosely-typed result row. The upstream guarantees no fixed
// schema, so consumers go through the typed getters and treat absent or
// unconvertible fields as missing.
type Row map[string]any

// Float reads a numeric field. JSON numbers always decode as float64, but
// rows that went through the cache or test fixtures may carry ints or
// numeric strings.
func (r Row) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String reads a text field.
func (r Row) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time reads a timestamp field, accepting RFC3339 strings or unix seconds.
func (r Row) Time(key string) (time.Time, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// Has reports whether the field is present and non-nil.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Snapshot is the raw aggregated result of one upstream query for one
// wallet. It is ephemeral: cached with a short TTL and rebuilt on demand.
type Snapshot struct {
	QueryID   string    `json:"queryId"`
	Rows      []Row     `json:"rows"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// MissingFields returns which of the required fields the snapshot cannot
// provide. An empty snapshot is missing everything.
func (s *Snapshot) MissingFields(required []string) []string {
	if s == nil || len(s.Rows) == 0 {
		return append([]string(nil), required...)
	}
	first := s.Rows[0]
	var missing []string
	for _, f := range required {
		if !first.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
