package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the projector tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Edition{},
		&schema.Token{},
		&schema.Collector{},
		&schema.Offer{},
		&schema.ActivityEvent{},
		&schema.DayAggregate{},
		&schema.MonthAggregate{},
		&schema.ArtistAggregate{},
		&schema.PlatformSettings{},
		&schema.CreatorContract{},
		&schema.Collective{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values get reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// first loads one record matching the query, mapping ErrRecordNotFound to nil
func first[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var record T
	err := db.WithContext(ctx).Where(query, args...).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetEdition retrieves an edition by its canonical id
func (s *pgStore) GetEdition(ctx context.Context, id string) (*schema.Edition, error) {
	edition, err := first[schema.Edition](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	return edition, nil
}

// SaveEdition creates or updates an edition
func (s *pgStore) SaveEdition(ctx context.Context, edition *schema.Edition) error {
	if err := s.db.WithContext(ctx).Save(edition).Error; err != nil {
		return fmt.Errorf("failed to save edition: %w", err)
	}
	return nil
}

// GetToken retrieves a token by its canonical id
func (s *pgStore) GetToken(ctx context.Context, id string) (*schema.Token, error) {
	token, err := first[schema.Token](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// SaveToken creates or updates a token
func (s *pgStore) SaveToken(ctx context.Context, token *schema.Token) error {
	if err := s.db.WithContext(ctx).Save(token).Error; err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetCollector retrieves a collector rollup by address
func (s *pgStore) GetCollector(ctx context.Context, address string) (*schema.Collector, error) {
	collector, err := first[schema.Collector](ctx, s.db, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get collector: %w", err)
	}
	return collector, nil
}

// SaveCollector creates or updates a collector rollup
func (s *pgStore) SaveCollector(ctx context.Context, collector *schema.Collector) error {
	if err := s.db.WithContext(ctx).Save(collector).Error; err != nil {
		return fmt.Errorf("failed to save collector: %w", err)
	}
	return nil
}

// GetOffer retrieves an offer record by id
func (s *pgStore) GetOffer(ctx context.Context, id string) (*schema.Offer, error) {
	offer, err := first[schema.Offer](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// SaveOffer creates or updates an offer record
func (s *pgStore) SaveOffer(ctx context.Context, offer *schema.Offer) error {
	if err := s.db.WithContext(ctx).Save(offer).Error; err != nil {
		return fmt.Errorf("failed to save offer: %w", err)
	}
	return nil
}

// GetActiveOffer retrieves the single active offer for a target, if any
func (s *pgStore) GetActiveOffer(ctx context.Context, targetType schema.OfferTargetType, targetID string) (*schema.Offer, error) {
	offer, err := first[schema.Offer](ctx, s.db, "target_type = ? AND target_id = ? AND is_active = ?", targetType, targetID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get active offer: %w", err)
	}
	return offer, nil
}

// GetDayAggregate retrieves the rollup bucket for a calendar day
func (s *pgStore) GetDayAggregate(ctx context.Context, date string) (*schema.DayAggregate, error) {
	day, err := first[schema.DayAggregate](ctx, s.db, "date = ?", date)
	if err != nil {
		return nil, fmt.Errorf("failed to get day aggregate: %w", err)
	}
	return day, nil
}

// SaveDayAggregate creates or updates a day bucket
func (s *pgStore) SaveDayAggregate(ctx context.Context, day *schema.DayAggregate) error {
	if err := s.db.WithContext(ctx).Save(day).Error; err != nil {
		return fmt.Errorf("failed to save day aggregate: %w", err)
	}
	return nil
}

// GetMonthAggregate retrieves the rollup bucket for a calendar month
func (s *pgStore) GetMonthAggregate(ctx context.Context, month string) (*schema.MonthAggregate, error) {
	agg, err := first[schema.MonthAggregate](ctx, s.db, "month = ?", month)
	if err != nil {
		return nil, fmt.Errorf("failed to get month aggregate: %w", err)
	}
	return agg, nil
}

// SaveMonthAggregate creates or updates a month bucket
func (s *pgStore) SaveMonthAggregate(ctx context.Context, month *schema.MonthAggregate) error {
	if err := s.db.WithContext(ctx).Save(month).Error; err != nil {
		return fmt.Errorf("failed to save month aggregate: %w", err)
	}
	return nil
}

// GetArtistAggregate retrieves the rollup bucket for an artist address
func (s *pgStore) GetArtistAggregate(ctx context.Context, address string) (*schema.ArtistAggregate, error) {
	artist, err := first[schema.ArtistAggregate](ctx, s.db, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get artist aggregate: %w", err)
	}
	return artist, nil
}

// SaveArtistAggregate creates or updates an artist bucket
func (s *pgStore) SaveArtistAggregate(ctx context.Context, artist *schema.ArtistAggregate) error {
	if err := s.db.WithContext(ctx).Save(artist).Error; err != nil {
		return fmt.Errorf("failed to save artist aggregate: %w", err)
	}
	return nil
}

// GetPlatformSettings retrieves the settings singleton, if initialized
func (s *pgStore) GetPlatformSettings(ctx context.Context) (*schema.PlatformSettings, error) {
	settings, err := first[schema.PlatformSettings](ctx, s.db, "key = ?", schema.PlatformSettingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform settings: %w", err)
	}
	return settings, nil
}

// SavePlatformSettings creates or updates the settings singleton
func (s *pgStore) SavePlatformSettings(ctx context.Context, settings *schema.PlatformSettings) error {
	settings.Key = schema.PlatformSettingsKey
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save platform settings: %w", err)
	}
	return nil
}

// GetCreatorContract retrieves a V4 creator contract by lowercased address
func (s *pgStore) GetCreatorContract(ctx context.Context, address string) (*schema.CreatorContract, error) {
	contract, err := first[schema.CreatorContract](ctx, s.db, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator contract: %w", err)
	}
	return contract, nil
}

// SaveCreatorContract creates or updates a creator contract
func (s *pgStore) SaveCreatorContract(ctx context.Context, contract *schema.CreatorContract) error {
	if err := s.db.WithContext(ctx).Save(contract).Error; err != nil {
		return fmt.Errorf("failed to save creator contract: %w", err)
	}
	return nil
}

// GetCollective retrieves a royalty-split collective by id
func (s *pgStore) GetCollective(ctx context.Context, id string) (*schema.Collective, error) {
	collective, err := first[schema.Collective](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collective: %w", err)
	}
	return collective, nil
}

// SaveCollective creates or updates a collective
func (s *pgStore) SaveCollective(ctx context.Context, collective *schema.Collective) error {
	if err := s.db.WithContext(ctx).Save(collective).Error; err != nil {
		return fmt.Errorf("failed to save collective: %w", err)
	}
	return nil
}

// AppendActivity writes one append-only activity row. ON CONFLICT DO NOTHING
// against the (entity_kind, entity_id, tx_hash, log_index, activity_type)
// unique index makes replayed writes no-ops; a returned ID of 0 signals the
// duplicate.
func (s *pgStore) AppendActivity(ctx context.Context, activity *schema.ActivityEvent) (bool, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "entity_kind"}, {Name: "entity_id"}, {Name: "tx_hash"}, {Name: "log_index"},
			{Name: "activity_type"},
		},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(activity).Error
	if err != nil {
		return false, fmt.Errorf("failed to append activity: %w", err)
	}

	return activity.ID != 0, nil
}

// GetBlockCursor retrieves the last processed block number for a contract
func (s *pgStore) GetBlockCursor(ctx context.Context, contract string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", contract)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a contract
func (s *pgStore) SetBlockCursor(ctx context.Context, contract string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", contract),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
