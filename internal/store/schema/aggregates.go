package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayAggregate represents the day_aggregates table - per-day rollup counters.
// All counters are monotonically accumulated; extrema change only via strict
// increase.
type DayAggregate struct {
	// Date is the calendar bucket in "2006-01-02" form (UTC)
	Date string `gorm:"column:date;primaryKey;type:text"`

	SalesCount            int64           `gorm:"column:sales_count;not null;default:0"`
	TotalValueInEth       decimal.Decimal `gorm:"column:total_value_in_eth;not null;default:0;type:numeric(38,18)"`
	HighestSaleValueInEth decimal.Decimal `gorm:"column:highest_sale_value_in_eth;not null;default:0;type:numeric(38,18)"`
	SecondarySalesValue   decimal.Decimal `gorm:"column:secondary_sales_value;not null;default:0;type:numeric(38,18)"`

	TransferCount     int64 `gorm:"column:transfer_count;not null;default:0"`
	TokensMinted      int64 `gorm:"column:tokens_minted;not null;default:0"`
	EditionsCreated   int64 `gorm:"column:editions_created;not null;default:0"`
	BidsPlacedCount   int64 `gorm:"column:bids_placed_count;not null;default:0"`
	BidsAcceptedCount int64 `gorm:"column:bids_accepted_count;not null;default:0"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DayAggregate model
func (DayAggregate) TableName() string {
	return "day_aggregates"
}

// MonthAggregate represents the month_aggregates table - per-month rollups
// maintained alongside the day buckets
type MonthAggregate struct {
	// Month is the calendar bucket in "2006-01" form (UTC)
	Month string `gorm:"column:month;primaryKey;type:text"`

	SalesCount            int64           `gorm:"column:sales_count;not null;default:0"`
	TotalValueInEth       decimal.Decimal `gorm:"column:total_value_in_eth;not null;default:0;type:numeric(38,18)"`
	HighestSaleValueInEth decimal.Decimal `gorm:"column:highest_sale_value_in_eth;not null;default:0;type:numeric(38,18)"`

	TransferCount   int64 `gorm:"column:transfer_count;not null;default:0"`
	TokensMinted    int64 `gorm:"column:tokens_minted;not null;default:0"`
	EditionsCreated int64 `gorm:"column:editions_created;not null;default:0"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the MonthAggregate model
func (MonthAggregate) TableName() string {
	return "month_aggregates"
}

// ArtistAggregate represents the artist_aggregates table - per-artist rollup
// of editions, supply and sale totals
type ArtistAggregate struct {
	// Address is the canonical artist address (primary key)
	Address string `gorm:"column:address;primaryKey;type:text"`

	// EditionsCount is decremented exactly once when an edition burns out
	EditionsCount int64 `gorm:"column:editions_count;not null;default:0"`
	SupplyCount   int64 `gorm:"column:supply_count;not null;default:0"`

	SalesCount            int64           `gorm:"column:sales_count;not null;default:0"`
	TotalValueInEth       decimal.Decimal `gorm:"column:total_value_in_eth;not null;default:0;type:numeric(38,18)"`
	HighestSaleValueInEth decimal.Decimal `gorm:"column:highest_sale_value_in_eth;not null;default:0;type:numeric(38,18)"`

	// FirstEditionTimestamp marks the artist's first observed edition
	FirstEditionTimestamp *time.Time `gorm:"column:first_edition_timestamp;type:timestamptz"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ArtistAggregate model
func (ArtistAggregate) TableName() string {
	return "artist_aggregates"
}
