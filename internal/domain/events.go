package domain

import (
	"math/big"
	"time"
)

// EventKind represents the type of marketplace event
type EventKind string

const (
	KindTransfer             EventKind = "transfer"
	KindEditionCreated       EventKind = "edition_created"
	KindEditionPriceChanged  EventKind = "edition_price_changed"
	KindEditionSalesDisabled EventKind = "edition_sales_disabled"
	KindPrimaryPurchase      EventKind = "primary_purchase"
	KindSecondaryPurchase    EventKind = "secondary_purchase"
	KindSteppedSalePurchase  EventKind = "stepped_sale_purchase"
	KindTokenListed          EventKind = "token_listed"
	KindTokenDelisted        EventKind = "token_delisted"

	KindBidPlaced    EventKind = "bid_placed"
	KindBidIncreased EventKind = "bid_increased"
	KindBidWithdrawn EventKind = "bid_withdrawn"
	KindBidRejected  EventKind = "bid_rejected"
	KindBidAccepted  EventKind = "bid_accepted"

	KindReserveAuctionListed   EventKind = "reserve_auction_listed"
	KindReserveBidPlaced       EventKind = "reserve_bid_placed"
	KindReserveBidWithdrawn    EventKind = "reserve_bid_withdrawn"
	KindReserveAuctionResulted EventKind = "reserve_auction_resulted"

	KindSettingsUpdated EventKind = "settings_updated"

	KindCreatorContractDeployed EventKind = "creator_contract_deployed"
	KindCreatorContractPaused   EventKind = "creator_contract_paused"
	KindCreatorContractBanned   EventKind = "creator_contract_banned"
	KindCollectiveCreated       EventKind = "collective_created"
)

// Event is a decoded marketplace event, normalized across the four protocol
// generations. Exactly one of the parameter groups is populated according to
// the event kind; the envelope fields are always present.
//
// Events arrive in canonical block/transaction/log order from the upstream
// source, one at a time.
type Event struct {
	Version         ProtocolVersion `json:"version"`
	Kind            EventKind       `json:"kind"`
	ContractAddress string          `json:"contract_address"`
	BlockNumber     uint64          `json:"block_number"`
	BlockTimestamp  time.Time       `json:"block_timestamp"`
	TxHash          string          `json:"tx_hash"`
	TxIndex         uint64          `json:"tx_index"`
	LogIndex        uint64          `json:"log_index"`
	// TxValueWei is the native value of the enclosing transaction as a
	// decimal string (up to 78 digits)
	TxValueWei string `json:"tx_value_wei"`

	Transfer   *TransferParams   `json:"transfer,omitempty"`
	Edition    *EditionParams    `json:"edition,omitempty"`
	Sale       *SaleParams       `json:"sale,omitempty"`
	Listing    *ListingParams    `json:"listing,omitempty"`
	Bid        *BidParams        `json:"bid,omitempty"`
	Auction    *AuctionParams    `json:"auction,omitempty"`
	Settings   *SettingsParams   `json:"settings,omitempty"`
	Creator    *CreatorParams    `json:"creator,omitempty"`
	Collective *CollectiveParams `json:"collective,omitempty"`
}

// TransferParams carries the parameters of a token transfer event
type TransferParams struct {
	From        string `json:"from"`
	To          string `json:"to"`
	TokenNumber string `json:"token_number"`
}

// EditionParams carries the parameters of edition lifecycle events
type EditionParams struct {
	EditionNumber string `json:"edition_number"`
	// PriceWei is set on price-change events
	PriceWei string `json:"price_wei,omitempty"`
	// TokenURI is set on creation events for versions that emit it
	TokenURI string `json:"token_uri,omitempty"`
}

// SaleParams carries the parameters of primary and secondary sale events
type SaleParams struct {
	EditionNumber string `json:"edition_number"`
	TokenNumber   string `json:"token_number"`
	Buyer         string `json:"buyer"`
	PriceWei      string `json:"price_wei"`
}

// ListingParams carries the parameters of secondary-market listing events
type ListingParams struct {
	TokenNumber string `json:"token_number"`
	Seller      string `json:"seller"`
	PriceWei    string `json:"price_wei,omitempty"`
}

// BidParams carries the parameters of offer/bid events. TokenNumber is set
// for token-targeted offers, EditionNumber for edition-targeted offers; the
// two are mutually exclusive.
type BidParams struct {
	EditionNumber string `json:"edition_number,omitempty"`
	TokenNumber   string `json:"token_number,omitempty"`
	Bidder        string `json:"bidder,omitempty"`
	AmountWei     string `json:"amount_wei,omitempty"`
	// Currency is set when the bid was denominated in a wrapped asset
	Currency string `json:"currency,omitempty"`
}

// AuctionParams carries the parameters of reserve auction events
type AuctionParams struct {
	EditionNumber   string `json:"edition_number"`
	Seller          string `json:"seller,omitempty"`
	Bidder          string `json:"bidder,omitempty"`
	AmountWei       string `json:"amount_wei,omitempty"`
	ReservePriceWei string `json:"reserve_price_wei,omitempty"`
}

// SettingsField identifies which platform setting an admin event updates
type SettingsField string

const (
	SettingsFieldModulo              SettingsField = "modulo"
	SettingsFieldPrimaryCommission   SettingsField = "primary_commission"
	SettingsFieldSecondaryCommission SettingsField = "secondary_commission"
	SettingsFieldPlatformAccount     SettingsField = "platform_account"
)

// SettingsParams carries the parameters of platform configuration events
type SettingsParams struct {
	Field SettingsField `json:"field"`
	Value string        `json:"value"`
}

// CreatorParams carries the parameters of self-sovereign contract events
type CreatorParams struct {
	Deployer     string `json:"deployer,omitempty"`
	Artist       string `json:"artist,omitempty"`
	FundsHandler string `json:"funds_handler,omitempty"`
	Paused       *bool  `json:"paused,omitempty"`
	Banned       *bool  `json:"banned,omitempty"`
}

// CollectiveParams carries the parameters of royalty-split handler events
type CollectiveParams struct {
	Handler    string   `json:"handler"`
	Creator    string   `json:"creator"`
	Recipients []string `json:"recipients"`
	Splits     []int64  `json:"splits"`
}

// TxValue parses the native transaction value; a missing or malformed value
// is treated as zero
func (e *Event) TxValue() *big.Int {
	if e.TxValueWei == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(e.TxValueWei, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// Valid checks the envelope and the kind-specific parameter group
func (e *Event) Valid() bool {
	if !e.Version.Valid() || e.ContractAddress == "" || e.TxHash == "" {
		return false
	}

	switch e.Kind {
	case KindTransfer:
		return e.Transfer != nil && e.Transfer.TokenNumber != "" && e.Transfer.To != ""
	case KindEditionCreated, KindEditionPriceChanged, KindEditionSalesDisabled:
		return e.Edition != nil && e.Edition.EditionNumber != ""
	case KindPrimaryPurchase, KindSecondaryPurchase, KindSteppedSalePurchase:
		return e.Sale != nil && e.Sale.Buyer != "" && e.Sale.TokenNumber != ""
	case KindTokenListed, KindTokenDelisted:
		return e.Listing != nil && e.Listing.TokenNumber != ""
	case KindBidPlaced, KindBidIncreased, KindBidWithdrawn, KindBidRejected:
		if e.Bid == nil {
			return false
		}
		// edition xor token target
		return (e.Bid.EditionNumber != "") != (e.Bid.TokenNumber != "")
	case KindBidAccepted:
		// acceptance on an edition target also names the delivered token
		return e.Bid != nil && (e.Bid.EditionNumber != "" || e.Bid.TokenNumber != "")
	case KindReserveAuctionListed, KindReserveBidPlaced, KindReserveBidWithdrawn, KindReserveAuctionResulted:
		return e.Auction != nil && e.Auction.EditionNumber != ""
	case KindSettingsUpdated:
		return e.Settings != nil && e.Settings.Field != "" && e.Settings.Value != ""
	case KindCreatorContractDeployed, KindCreatorContractPaused, KindCreatorContractBanned:
		return e.Version == VersionFour && e.Creator != nil
	case KindCollectiveCreated:
		return e.Version == VersionFour && e.Collective != nil && e.Collective.Handler != ""
	default:
		return false
	}
}
