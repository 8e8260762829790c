package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalArtistAddress(t *testing.T) {
	// unmapped addresses pass through normalized
	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, NormalizeAddress(addr), CanonicalArtistAddress(addr))

	// mapped addresses are replaced regardless of input casing
	migrated := "0x3768225622d53ffcc1e00eac53a2a870ecd825c8"
	assert.Equal(t, "0x50512F20a11a2eC8e2b816e6AA4e01155E3AAf95", CanonicalArtistAddress(migrated))

	// every table entry must fire no matter how the source wallet is cased
	for from, to := range migratedWallets {
		assert.Equal(t, to, CanonicalArtistAddress(from), "checksummed lookup for %s", from)
		assert.Equal(t, to, CanonicalArtistAddress(strings.ToLower(from)), "lowercase lookup for %s", from)
		assert.Equal(t, to, NormalizeAddress(to), "replacement %s must be checksummed", to)
	}
}

func TestIsBurnAddress(t *testing.T) {
	assert.True(t, IsBurnAddress(ZeroAddress))
	assert.True(t, IsBurnAddress("0x000000000000000000000000000000000000dead"))
	assert.False(t, IsBurnAddress("0x1234567890abcdef1234567890abcdef12345678"))
}

func TestIsMint(t *testing.T) {
	assert.True(t, IsMint(""))
	assert.True(t, IsMint(ZeroAddress))
	assert.False(t, IsMint(DeadAddress))
	assert.False(t, IsMint("0x1234567890abcdef1234567890abcdef12345678"))
}
