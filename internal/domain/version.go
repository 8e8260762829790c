package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// ProtocolVersion identifies which generation of the marketplace protocol
// emitted an event. Versions 1-3 each have one canonical contract; version 4
// contracts are deployed per-creator.
type ProtocolVersion uint8

const (
	VersionOne   ProtocolVersion = 1
	VersionTwo   ProtocolVersion = 2
	VersionThree ProtocolVersion = 3
	VersionFour  ProtocolVersion = 4
)

// Valid checks if the version is one of the four known protocol generations
func (v ProtocolVersion) Valid() bool {
	return v >= VersionOne && v <= VersionFour
}

// String returns the string representation of the protocol version
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d", uint8(v))
}

// SaleType represents the primary sale mechanism configured on an edition
type SaleType string

const (
	SaleTypeBuyNow         SaleType = "buy_now"
	SaleTypeOffers         SaleType = "offers"
	SaleTypeSteppedSale    SaleType = "stepped_sale"
	SaleTypeReserveAuction SaleType = "reserve_auction"
)

// EditionID builds the canonical edition identifier for a protocol version.
// Versions 1-3 share a single global edition numbering space, so the edition
// number alone is the identifier. Version 4 editions live on independently
// deployed creator contracts and are namespaced by contract address to avoid
// collisions between deployments.
func EditionID(version ProtocolVersion, contractAddress, editionNumber string) string {
	if version == VersionFour {
		return fmt.Sprintf("%s-%s", strings.ToLower(contractAddress), editionNumber)
	}
	return editionNumber
}

// TokenID builds the canonical token identifier. The same namespacing rule as
// EditionID applies: version 4 token ids are qualified by contract address.
func TokenID(version ProtocolVersion, contractAddress, tokenNumber string) string {
	if version == VersionFour {
		return fmt.Sprintf("%s-%s", strings.ToLower(contractAddress), tokenNumber)
	}
	return tokenNumber
}

// OfferID builds the identifier for one offer record. Offers are append-only
// history, so the id is qualified by the transaction that created it.
func OfferID(targetID, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%s-%d", targetID, txHash, logIndex)
}

// EditionStep is the numbering interval between consecutive editions. Token
// numbers occupy the range above their edition number, so a token's edition
// is recovered by rounding down to the nearest step.
const EditionStep = 1000

// EditionNumberForToken derives the edition number that owns a token number.
// All four generations follow the same stepped numbering convention within
// their own numbering space.
func EditionNumberForToken(tokenNumber string) string {
	n, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return tokenNumber
	}
	step := big.NewInt(EditionStep)
	rem := new(big.Int).Mod(n, step)
	return new(big.Int).Sub(n, rem).String()
}
