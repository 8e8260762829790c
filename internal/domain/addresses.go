package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// ZeroAddress is the mint/burn sentinel address
	ZeroAddress = "0x0000000000000000000000000000000000000000"
	// DeadAddress is the conventional burn destination used when a contract
	// forbids transfers to the zero address
	DeadAddress = "0x000000000000000000000000000000000000dEaD"
)

// migratedWallets maps known migrated artist wallets to their canonical
// replacement. The table is a static patch for historical wallet migrations;
// it is applied once at entity-creation time, never retroactively. Keys and
// values are re-checksummed at init so lookups match NormalizeAddress output
// even if a literal drifts from its EIP-55 form.
var migratedWallets = checksumWalletMap(map[string]string{
	"0x3768225622d53FfCc1E00eaC53a2A870ECd825C8": "0x50512F20a11a2eC8e2b816e6AA4e01155E3AAf95",
	"0x117dDE66c2De2979ba4619D8D494fd20fFe96c2e": "0xD514F2065fDE42a02C73C913735E8E5A2fCC085E",
})

func checksumWalletMap(wallets map[string]string) map[string]string {
	out := make(map[string]string, len(wallets))
	for from, to := range wallets {
		out[NormalizeAddress(from)] = NormalizeAddress(to)
	}
	return out
}

// CanonicalArtistAddress maps a known migrated wallet to its canonical
// replacement. It is a total function: unmapped addresses are returned
// unchanged (normalized).
func CanonicalArtistAddress(address string) string {
	normalized := NormalizeAddress(address)
	if canonical, ok := migratedWallets[normalized]; ok {
		return canonical
	}
	return normalized
}

// NormalizeAddress converts an address to its EIP-55 checksummed form
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).String()
}

// IsBurnAddress reports whether an address is one of the burn sentinels
func IsBurnAddress(address string) bool {
	return strings.EqualFold(address, ZeroAddress) || strings.EqualFold(address, DeadAddress)
}

// IsMint reports whether a transfer from the given address is a mint
func IsMint(from string) bool {
	return from == "" || strings.EqualFold(from, ZeroAddress)
}

// knownBurntEditions lists edition ids that were burnt out before burn
// detection existed on-chain. Artist counters for these editions were already
// adjusted, so the live burn scan must not decrement them a second time.
var knownBurntEditions = map[string]bool{
	"5500":  true,
	"6000":  true,
	"9100":  true,
	"21300": true,
}

// IsKnownBurntEdition reports whether an edition id is on the static list of
// pre-identified burnt editions
func IsKnownBurntEdition(editionID string) bool {
	return knownBurntEditions[editionID]
}
