package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/openprint/marketplace-indexer/internal/domain"
)

// ActivityType classifies an activity log row
type ActivityType string

const (
	ActivityEditionCreated  ActivityType = "edition_created"
	ActivityPriceChanged    ActivityType = "price_changed"
	ActivityPurchase        ActivityType = "purchase"
	ActivityTransfer        ActivityType = "transfer"
	ActivityBurn            ActivityType = "burn"
	ActivityTokenListed     ActivityType = "token_listed"
	ActivityTokenDelisted   ActivityType = "token_delisted"
	ActivityBidPlaced       ActivityType = "bid_placed"
	ActivityBidIncreased    ActivityType = "bid_increased"
	ActivityBidWithdrawn    ActivityType = "bid_withdrawn"
	ActivityBidRejected     ActivityType = "bid_rejected"
	ActivityBidAccepted     ActivityType = "bid_accepted"
	ActivityAuctionListed   ActivityType = "auction_listed"
	ActivityAuctionResulted ActivityType = "auction_resulted"
	ActivitySettingsUpdated ActivityType = "settings_updated"
	ActivityContractEvent   ActivityType = "contract_event"
)

// EntityKind identifies which entity an activity row belongs to
type EntityKind string

const (
	EntityKindEdition  EntityKind = "edition"
	EntityKindToken    EntityKind = "token"
	EntityKindContract EntityKind = "contract"
	EntityKindPlatform EntityKind = "platform"
)

// ActivityEvent represents the activity_events table - the append-only log of
// all causally significant state transitions. The unique index on
// (entity_kind, entity_id, tx_hash, log_index, activity_type) guarantees
// write-once semantics: re-processing the same log entry never creates a
// duplicate row.
type ActivityEvent struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	EntityKind EntityKind `gorm:"column:entity_kind;not null;type:text;uniqueIndex:idx_activity_dedup,priority:1"`
	EntityID   string     `gorm:"column:entity_id;not null;type:text;uniqueIndex:idx_activity_dedup,priority:2"`
	TxHash     string     `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_activity_dedup,priority:3"`
	LogIndex   uint64     `gorm:"column:log_index;not null;uniqueIndex:idx_activity_dedup,priority:4"`

	// ActivityType classifies the transition. It participates in the dedup
	// key so a compound transition (bid acceptance plus its purchase) can
	// write both of its rows against the same log entry.
	ActivityType ActivityType `gorm:"column:activity_type;not null;type:text;uniqueIndex:idx_activity_dedup,priority:5"`
	// Version is the protocol generation of the causing event
	Version domain.ProtocolVersion `gorm:"column:version;not null"`

	// Buyer and Seller are set for monetary transitions
	Buyer  *string `gorm:"column:buyer;type:text"`
	Seller *string `gorm:"column:seller;type:text"`
	// ValueInEth is the decimal-normalized monetary value of the transition
	ValueInEth decimal.Decimal `gorm:"column:value_in_eth;not null;default:0;type:numeric(38,18)"`
	// PlatformFeeInEth and CreatorShareInEth record the commission split
	// computed from the platform settings current at processing time
	PlatformFeeInEth  decimal.Decimal `gorm:"column:platform_fee_in_eth;not null;default:0;type:numeric(38,18)"`
	CreatorShareInEth decimal.Decimal `gorm:"column:creator_share_in_eth;not null;default:0;type:numeric(38,18)"`

	BlockNumber uint64    `gorm:"column:block_number;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// Raw holds the originating event envelope for debugging
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ActivityEvent model
func (ActivityEvent) TableName() string {
	return "activity_events"
}
