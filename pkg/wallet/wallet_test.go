package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityEthereum(t *testing.T) {
	id, err := ParseIdentity("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", ChainEthereum)
	require.NoError(t, err)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", id.Address)
	assert.Equal(t, ChainEthereum, id.Chain)
}

func TestParseIdentityDefaultsToEthereum(t *testing.T) {
	id, err := ParseIdentity("0xab5801a7d398351b8be11c439e05c5b3259aec9b", "")
	require.NoError(t, err)
	assert.Equal(t, ChainEthereum, id.Chain)
}

func TestParseIdentitySolana(t *testing.T) {
	// System program address: 32 zero bytes.
	id, err := ParseIdentity("11111111111111111111111111111111", ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, "11111111111111111111111111111111", id.Address)
}

func TestParseIdentityRejects(t *testing.T) {
	cases := []struct {
		name    string
		address string
		chain   string
	}{
		{"empty", "", ChainEthereum},
		{"short hex", "0xab58", ChainEthereum},
		{"no prefix", "ab5801a7d398351b8be11c439e05c5b3259aec9b00", ChainEthereum},
		{"bad hex char", "0xzb5801a7d398351b8be11c439e05c5b3259aec9b", ChainEthereum},
		{"bad base58", "0OIl", ChainSolana},
		{"wrong length", "2vxsx", ChainSolana},
		{"unknown chain", "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "dogechain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseIdentity(tc.address, tc.chain)
			require.Error(t, err)
		})
	}
}
