package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collector represents the collectors table - an address-keyed rollup of
// marketplace participation. Totals are monotonically non-decreasing.
type Collector struct {
	// Address is the collector's blockchain address (primary key)
	Address string `gorm:"column:address;primaryKey;type:text"`

	PrimaryPurchaseCount   int64           `gorm:"column:primary_purchase_count;not null;default:0"`
	PrimaryPurchaseValue   decimal.Decimal `gorm:"column:primary_purchase_value;not null;default:0;type:numeric(38,18)"`
	SecondaryPurchaseCount int64           `gorm:"column:secondary_purchase_count;not null;default:0"`
	SecondaryPurchaseValue decimal.Decimal `gorm:"column:secondary_purchase_value;not null;default:0;type:numeric(38,18)"`
	// TotalPurchaseCount always equals primary + secondary purchase counts
	TotalPurchaseCount int64           `gorm:"column:total_purchase_count;not null;default:0"`
	TotalPurchaseValue decimal.Decimal `gorm:"column:total_purchase_value;not null;default:0;type:numeric(38,18)"`

	SaleCount int64           `gorm:"column:sale_count;not null;default:0"`
	SaleValue decimal.Decimal `gorm:"column:sale_value;not null;default:0;type:numeric(38,18)"`

	// HeldTokenIDs is the set of token ids currently held
	HeldTokenIDs AddressSet `gorm:"column:held_token_ids;type:jsonb"`

	FirstSeenAt time.Time `gorm:"column:first_seen_at;not null;default:now();type:timestamptz"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collector model
func (Collector) TableName() string {
	return "collectors"
}
