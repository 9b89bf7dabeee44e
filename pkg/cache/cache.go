package cache

import (
	"context"
	"time"
)

// Store is the TTL key/value primitive behind both cache tiers (snapshot and
// card). Values are serialized payloads; interpreting them is the caller's
// problem. A missing key is (value="", ok=false, err=nil) — errors are
// reserved for transport failures.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
