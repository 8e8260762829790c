package store

import (
	"context"

	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// Store defines the interface for entity persistence. Get methods return
// (nil, nil) when the entity is absent; Save methods upsert. The store
// exposes no multi-entity atomicity guarantees to the projection engine.
type Store interface {
	// GetEdition retrieves an edition by its canonical id
	GetEdition(ctx context.Context, id string) (*schema.Edition, error)
	// SaveEdition creates or updates an edition
	SaveEdition(ctx context.Context, edition *schema.Edition) error

	// GetToken retrieves a token by its canonical id
	GetToken(ctx context.Context, id string) (*schema.Token, error)
	// SaveToken creates or updates a token
	SaveToken(ctx context.Context, token *schema.Token) error

	// GetCollector retrieves a collector rollup by address
	GetCollector(ctx context.Context, address string) (*schema.Collector, error)
	// SaveCollector creates or updates a collector rollup
	SaveCollector(ctx context.Context, collector *schema.Collector) error

	// GetOffer retrieves an offer record by id
	GetOffer(ctx context.Context, id string) (*schema.Offer, error)
	// SaveOffer creates or updates an offer record
	SaveOffer(ctx context.Context, offer *schema.Offer) error
	// GetActiveOffer retrieves the single active offer for a target, if any
	GetActiveOffer(ctx context.Context, targetType schema.OfferTargetType, targetID string) (*schema.Offer, error)

	// GetDayAggregate retrieves the rollup bucket for a calendar day
	GetDayAggregate(ctx context.Context, date string) (*schema.DayAggregate, error)
	// SaveDayAggregate creates or updates a day bucket
	SaveDayAggregate(ctx context.Context, day *schema.DayAggregate) error

	// GetMonthAggregate retrieves the rollup bucket for a calendar month
	GetMonthAggregate(ctx context.Context, month string) (*schema.MonthAggregate, error)
	// SaveMonthAggregate creates or updates a month bucket
	SaveMonthAggregate(ctx context.Context, month *schema.MonthAggregate) error

	// GetArtistAggregate retrieves the rollup bucket for an artist address
	GetArtistAggregate(ctx context.Context, address string) (*schema.ArtistAggregate, error)
	// SaveArtistAggregate creates or updates an artist bucket
	SaveArtistAggregate(ctx context.Context, artist *schema.ArtistAggregate) error

	// GetPlatformSettings retrieves the settings singleton, if initialized
	GetPlatformSettings(ctx context.Context) (*schema.PlatformSettings, error)
	// SavePlatformSettings creates or updates the settings singleton
	SavePlatformSettings(ctx context.Context, settings *schema.PlatformSettings) error

	// GetCreatorContract retrieves a V4 creator contract by lowercased address
	GetCreatorContract(ctx context.Context, address string) (*schema.CreatorContract, error)
	// SaveCreatorContract creates or updates a creator contract
	SaveCreatorContract(ctx context.Context, contract *schema.CreatorContract) error

	// GetCollective retrieves a royalty-split collective by id
	GetCollective(ctx context.Context, id string) (*schema.Collective, error)
	// SaveCollective creates or updates a collective
	SaveCollective(ctx context.Context, collective *schema.Collective) error

	// AppendActivity writes one append-only activity row. It reports false
	// when a row for the same (entity_kind, entity_id, tx_hash, log_index,
	// activity_type) already exists, making replayed handlers safe.
	AppendActivity(ctx context.Context, activity *schema.ActivityEvent) (bool, error)

	// GetBlockCursor retrieves the last processed block number for a contract
	GetBlockCursor(ctx context.Context, contract string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a contract
	SetBlockCursor(ctx context.Context, contract string, blockNumber uint64) error
}
