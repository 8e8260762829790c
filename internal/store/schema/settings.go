package schema

import (
	"time"
)

// PlatformSettingsKey is the primary key of the singleton settings row
const PlatformSettingsKey = "platform"

// PlatformSettings represents the platform_settings table - the process-wide
// commission configuration, holding the current value as of the last admin
// event. Commission computations read this snapshot at processing time; they
// are not time-travel-accurate for historical sales.
type PlatformSettings struct {
	// Key is always PlatformSettingsKey; a single row exists
	Key string `gorm:"column:key;primaryKey;type:text"`

	// Modulo is the denominator for all commission percentages
	Modulo int64 `gorm:"column:modulo;not null"`
	// PrimaryCommission is the platform share of primary sales, out of Modulo
	PrimaryCommission int64 `gorm:"column:primary_commission;not null"`
	// SecondaryCommission is the platform royalty on secondary sales
	SecondaryCommission int64 `gorm:"column:secondary_commission;not null"`
	// PlatformAccount receives the platform share
	PlatformAccount string `gorm:"column:platform_account;type:text"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the PlatformSettings model
func (PlatformSettings) TableName() string {
	return "platform_settings"
}
