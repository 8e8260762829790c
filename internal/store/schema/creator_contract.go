package schema

import (
	"time"
)

// CreatorContract represents the creator_contracts table - a self-sovereign
// V4 contract deployed per artist
type CreatorContract struct {
	// Address is the lowercased contract address (primary key)
	Address string `gorm:"column:address;primaryKey;type:text"`

	// Deployer sent the deployment transaction
	Deployer string `gorm:"column:deployer;not null;type:text"`
	// Artist is the canonical creator address
	Artist string `gorm:"column:artist;not null;type:text;index"`
	// FundsHandler receives sale proceeds for this contract
	FundsHandler string `gorm:"column:funds_handler;type:text"`

	// Paused is toggled by the contract owner; Banned by the platform
	Paused bool `gorm:"column:paused;not null;default:false"`
	Banned bool `gorm:"column:banned;not null;default:false"`

	// EditionsCount tracks editions created on this contract
	EditionsCount int64 `gorm:"column:editions_count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CreatorContract model
func (CreatorContract) TableName() string {
	return "creator_contracts"
}

// Collective represents the collectives table - an optional multi-recipient
// royalty-split handler attachable to a V4 edition. When fully configured
// with explicit shares, the splits sum to the platform modulo.
type Collective struct {
	// ID is the lowercased handler address (primary key)
	ID string `gorm:"column:id;primaryKey;type:text"`

	// Creator deployed the collective
	Creator string `gorm:"column:creator;not null;type:text"`
	// Recipients and Splits are parallel lists; Splits entries are shares
	// out of the platform modulo
	Recipients StringList `gorm:"column:recipients;type:jsonb"`
	Splits     Int64List  `gorm:"column:splits;type:jsonb"`
	// FullyConfigured is true when explicit shares are present and sum to
	// the modulo
	FullyConfigured bool `gorm:"column:fully_configured;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collective model
func (Collective) TableName() string {
	return "collectives"
}
