package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprint/marketplace-indexer/internal/domain"
)

// Token represents the tokens table - one minted instance of an edition
type Token struct {
	// ID is the canonical token identifier (version-qualified, see domain.TokenID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Version is the protocol generation that minted this token
	Version domain.ProtocolVersion `gorm:"column:version;not null"`
	// EditionID references the owning edition; immutable after creation
	EditionID string `gorm:"column:edition_id;not null;type:text;index"`
	// ContractAddress is the contract the token lives on
	ContractAddress string `gorm:"column:contract_address;not null;type:text"`
	// TokenNumber is the raw on-chain token id
	TokenNumber string `gorm:"column:token_number;not null;type:text"`

	// CurrentOwner is nil once the token is burnt
	CurrentOwner *string `gorm:"column:current_owner;type:text;index"`
	// AllOwners is the full ownership history as a set (membership tests,
	// no duplicates)
	AllOwners AddressSet `gorm:"column:all_owners;type:jsonb"`
	// TransferCount is monotonically non-decreasing
	TransferCount int64 `gorm:"column:transfer_count;not null;default:0"`
	// Burned indicates the token was sent to a burn address
	Burned bool `gorm:"column:burned;not null;default:false"`

	// Sale metrics
	PrimaryValueInEth     decimal.Decimal `gorm:"column:primary_value_in_eth;not null;default:0;type:numeric(38,18)"`
	LastSalePriceInEth    decimal.Decimal `gorm:"column:last_sale_price_in_eth;not null;default:0;type:numeric(38,18)"`
	LargestSalePriceInEth decimal.Decimal `gorm:"column:largest_sale_price_in_eth;not null;default:0;type:numeric(38,18)"`
	TotalPurchaseCount    int64           `gorm:"column:total_purchase_count;not null;default:0"`
	TotalPurchaseValue    decimal.Decimal `gorm:"column:total_purchase_value;not null;default:0;type:numeric(38,18)"`

	// Secondary-market listing state; all nil when the token is not listed
	ListingPriceInWei *string    `gorm:"column:listing_price_in_wei;type:numeric(78,0)"`
	Lister            *string    `gorm:"column:lister;type:text"`
	ListedAt          *time.Time `gorm:"column:listed_at;type:timestamptz"`

	// OpenOfferID references the single active token offer, if any
	OpenOfferID *string `gorm:"column:open_offer_id;type:text"`
	// BidHistory is the ordered list of offer ids recorded against this token
	BidHistory StringList `gorm:"column:bid_history;type:jsonb"`

	// TokenURI is the per-token metadata pointer fetched from the contract
	TokenURI string `gorm:"column:token_uri;type:text"`
	// Descriptive metadata fields; blank when resolution failed
	MetadataName        string `gorm:"column:metadata_name;type:text"`
	MetadataDescription string `gorm:"column:metadata_description;type:text"`
	MetadataImage       string `gorm:"column:metadata_image;type:text"`
	// MetadataResolved marks that metadata resolution was attempted
	MetadataResolved bool `gorm:"column:metadata_resolved;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
