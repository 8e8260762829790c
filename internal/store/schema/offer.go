package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprint/marketplace-indexer/internal/domain"
)

// OfferTargetType identifies what an offer is bidding on
type OfferTargetType string

const (
	// OfferTargetEdition is an offer against a whole edition
	OfferTargetEdition OfferTargetType = "edition"
	// OfferTargetToken is an offer against one minted token
	OfferTargetToken OfferTargetType = "token"
)

// Offer represents the offers table - one bid action against an edition or
// token. Records are append-only: deactivated offers are retained with
// IsActive = false. At most one offer per target is active at any time.
type Offer struct {
	// ID is qualified by the creating transaction (see domain.OfferID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Version is the protocol generation the offer was placed under
	Version domain.ProtocolVersion `gorm:"column:version;not null"`
	// TargetType is edition or token; the two are mutually exclusive
	TargetType OfferTargetType `gorm:"column:target_type;not null;type:text;index:idx_offers_target,priority:1"`
	// TargetID is the canonical id of the edition or token
	TargetID string `gorm:"column:target_id;not null;type:text;index:idx_offers_target,priority:2"`

	// Bidder is the address that placed the offer
	Bidder string `gorm:"column:bidder;not null;type:text;index"`
	// WeiValue is the bid amount in wei
	WeiValue string `gorm:"column:wei_value;not null;default:0;type:numeric(78,0)"`
	// EthValue is the decimal-normalized bid amount
	EthValue decimal.Decimal `gorm:"column:eth_value;not null;default:0;type:numeric(38,18)"`
	// Timestamp is the block timestamp of the bid event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// IsActive is cleared on withdrawal, rejection, acceptance or supersession
	IsActive bool `gorm:"column:is_active;not null;default:false;index"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}
