package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprint/marketplace-indexer/internal/domain"
)

// Edition represents the editions table - a limited or open print run of one
// artwork created by an artist under a given protocol generation
type Edition struct {
	// ID is the canonical edition identifier (version-qualified, see domain.EditionID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Version is the protocol generation that created this edition
	Version domain.ProtocolVersion `gorm:"column:version;not null"`
	// EditionNumber is the raw on-chain edition number
	EditionNumber string `gorm:"column:edition_number;not null;type:text;index:idx_editions_contract_number,priority:2"`
	// ContractAddress is the marketplace or creator contract that owns this edition
	ContractAddress string `gorm:"column:contract_address;not null;type:text;index:idx_editions_contract_number,priority:1"`
	// ArtistAccount is the canonical artist address (after wallet-migration remapping)
	ArtistAccount string `gorm:"column:artist_account;not null;type:text;index"`
	// CommissionRate is the artist commission against the platform modulo
	CommissionRate int64 `gorm:"column:commission_rate;not null;default:0"`
	// PriceInWei is the current primary sale price (string to support 78 digits)
	PriceInWei string `gorm:"column:price_in_wei;not null;default:0;type:numeric(78,0)"`
	// PriceInEth is the decimal-normalized primary sale price
	PriceInEth decimal.Decimal `gorm:"column:price_in_eth;not null;default:0;type:numeric(38,18)"`
	// SaleType is the configured primary sale mechanism
	SaleType domain.SaleType `gorm:"column:sale_type;not null;type:text"`

	// OriginalSize is the edition size at creation time
	OriginalSize int64 `gorm:"column:original_size;not null;default:0"`
	// TotalAvailable is OriginalSize minus TotalBurnt
	TotalAvailable int64 `gorm:"column:total_available;not null;default:0"`
	// TotalSupply is the number of tokens minted so far
	TotalSupply int64 `gorm:"column:total_supply;not null;default:0"`
	// TotalSold is the number of primary sales completed
	TotalSold int64 `gorm:"column:total_sold;not null;default:0"`
	// TotalBurnt is the number of minted tokens later destroyed
	TotalBurnt int64 `gorm:"column:total_burnt;not null;default:0"`
	// RemainingSupply is the unminted count, capped by TotalAvailable
	RemainingSupply int64 `gorm:"column:remaining_supply;not null;default:0"`
	// Active is false once the edition is disabled or fully burnt
	Active bool `gorm:"column:active;not null;default:true"`
	// IsGenesis marks the artist's first edition
	IsGenesis bool `gorm:"column:is_genesis;not null;default:false"`

	// TokenIDs is the ordered list of minted token ids
	TokenIDs StringList `gorm:"column:token_ids;type:jsonb"`
	// AllOwners is every address that ever held a token of this edition
	AllOwners AddressSet `gorm:"column:all_owners;type:jsonb"`
	// CurrentOwners is the set of addresses currently holding tokens
	CurrentOwners AddressSet `gorm:"column:current_owners;type:jsonb"`
	// BidHistory is the ordered list of offer ids recorded against this edition
	BidHistory StringList `gorm:"column:bid_history;type:jsonb"`
	// ActiveBidID references the single active offer, if any
	ActiveBidID *string `gorm:"column:active_bid_id;type:text"`
	// CollectiveID references an optional royalty-split handler (V4 only)
	CollectiveID *string `gorm:"column:collective_id;type:text"`

	// TokenURI is the content-addressed metadata URI read from the contract
	TokenURI string `gorm:"column:token_uri;type:text"`
	// MetadataName, MetadataDescription, MetadataImage and MetadataTags are
	// populated once from the metadata fetcher; blank when unavailable
	MetadataName        string     `gorm:"column:metadata_name;type:text"`
	MetadataDescription string     `gorm:"column:metadata_description;type:text"`
	MetadataImage       string     `gorm:"column:metadata_image;type:text"`
	MetadataTags        StringList `gorm:"column:metadata_tags;type:jsonb"`
	// MetadataResolved marks that metadata resolution was attempted, so a
	// failed fetch is not retried on every event
	MetadataResolved bool `gorm:"column:metadata_resolved;not null;default:false"`
	// OnChainResolved marks that creation-time fields were populated from the
	// contract read, so repeated resolution never re-fetches them
	OnChainResolved bool `gorm:"column:onchain_resolved;not null;default:false"`

	// Reserve auction sub-state (nil/zero unless the edition is listed for
	// reserve auction)
	ReservePriceInWei    *string    `gorm:"column:reserve_price_in_wei;type:numeric(78,0)"`
	ReserveAuctionSeller *string    `gorm:"column:reserve_auction_seller;type:text"`
	ReserveAuctionBidWei *string    `gorm:"column:reserve_auction_bid_wei;type:numeric(78,0)"`
	ReserveAuctionEnds   *time.Time `gorm:"column:reserve_auction_ends;type:timestamptz"`
	// ReserveExtensionCount counts sudden-death countdown extensions
	ReserveExtensionCount int64 `gorm:"column:reserve_extension_count;not null;default:0"`
	// ReserveExtensionSeconds accumulates the total extension duration
	ReserveExtensionSeconds int64 `gorm:"column:reserve_extension_seconds;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Edition model
func (Edition) TableName() string {
	return "editions"
}
