package wallet

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Chain tags supported by the analytics upstream.
const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"
)

// Identity is a validated wallet reference. Construct it through
// ParseIdentity only; once built it is never mutated.
type Identity struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
}

// ParseIdentity validates and normalizes a raw address for the given chain.
// EVM addresses are lower-cased so that the same wallet always produces the
// same cache and persistence keys. Solana addresses are case-sensitive
// base58 and are kept verbatim.
func ParseIdentity(address, chain string) (Identity, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Identity{}, fmt.Errorf("empty wallet address")
	}

	switch chain {
	case "", ChainEthereum:
		addr := strings.ToLower(address)
		if !isHexAddress(addr) {
			return Identity{}, fmt.Errorf("invalid ethereum address %q", address)
		}
		return Identity{Address: addr, Chain: ChainEthereum}, nil
	case ChainSolana:
		raw, err := base58.Decode(address)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid solana address %q: %w", address, err)
		}
		if len(raw) != 32 {
			return Identity{}, fmt.Errorf("invalid solana address %q: expected 32 bytes, got %d", address, len(raw))
		}
		return Identity{Address: address, Chain: ChainSolana}, nil
	default:
		return Identity{}, fmt.Errorf("unsupported chain %q", chain)
	}
}

func (id Identity) String() string {
	return id.Chain + ":" + id.Address
}

func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
