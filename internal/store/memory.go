package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// memoryStore is an in-memory Store used by engine tests and local runs.
// Entities are deep-copied on the way in and out so callers observe the same
// load/mutate/save discipline the Postgres store enforces.
type memoryStore struct {
	editions    map[string]*schema.Edition
	tokens      map[string]*schema.Token
	collectors  map[string]*schema.Collector
	offers      map[string]*schema.Offer
	days        map[string]*schema.DayAggregate
	months      map[string]*schema.MonthAggregate
	artists     map[string]*schema.ArtistAggregate
	settings    *schema.PlatformSettings
	contracts   map[string]*schema.CreatorContract
	collectives map[string]*schema.Collective
	activities  map[string]*schema.ActivityEvent
	activitySeq uint64
	cursors     map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		editions:    make(map[string]*schema.Edition),
		tokens:      make(map[string]*schema.Token),
		collectors:  make(map[string]*schema.Collector),
		offers:      make(map[string]*schema.Offer),
		days:        make(map[string]*schema.DayAggregate),
		months:      make(map[string]*schema.MonthAggregate),
		artists:     make(map[string]*schema.ArtistAggregate),
		contracts:   make(map[string]*schema.CreatorContract),
		collectives: make(map[string]*schema.Collective),
		activities:  make(map[string]*schema.ActivityEvent),
		cursors:     make(map[string]string),
	}
}

// clone deep-copies an entity through its JSON representation
func clone[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to clone entity: %w", err)
	}
	dst := new(T)
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("failed to clone entity: %w", err)
	}
	return dst, nil
}

func getCloned[T any](m map[string]*T, key string) (*T, error) {
	record, ok := m[key]
	if !ok {
		return nil, nil
	}
	return clone(record)
}

func putCloned[T any](m map[string]*T, key string, record *T) error {
	copied, err := clone(record)
	if err != nil {
		return err
	}
	m[key] = copied
	return nil
}

func (s *memoryStore) GetEdition(_ context.Context, id string) (*schema.Edition, error) {
	return getCloned(s.editions, id)
}

func (s *memoryStore) SaveEdition(_ context.Context, edition *schema.Edition) error {
	return putCloned(s.editions, edition.ID, edition)
}

func (s *memoryStore) GetToken(_ context.Context, id string) (*schema.Token, error) {
	return getCloned(s.tokens, id)
}

func (s *memoryStore) SaveToken(_ context.Context, token *schema.Token) error {
	return putCloned(s.tokens, token.ID, token)
}

func (s *memoryStore) GetCollector(_ context.Context, address string) (*schema.Collector, error) {
	return getCloned(s.collectors, address)
}

func (s *memoryStore) SaveCollector(_ context.Context, collector *schema.Collector) error {
	return putCloned(s.collectors, collector.Address, collector)
}

func (s *memoryStore) GetOffer(_ context.Context, id string) (*schema.Offer, error) {
	return getCloned(s.offers, id)
}

func (s *memoryStore) SaveOffer(_ context.Context, offer *schema.Offer) error {
	return putCloned(s.offers, offer.ID, offer)
}

func (s *memoryStore) GetActiveOffer(_ context.Context, targetType schema.OfferTargetType, targetID string) (*schema.Offer, error) {
	for _, offer := range s.offers {
		if offer.TargetType == targetType && offer.TargetID == targetID && offer.IsActive {
			return clone(offer)
		}
	}
	return nil, nil
}

func (s *memoryStore) GetDayAggregate(_ context.Context, date string) (*schema.DayAggregate, error) {
	return getCloned(s.days, date)
}

func (s *memoryStore) SaveDayAggregate(_ context.Context, day *schema.DayAggregate) error {
	return putCloned(s.days, day.Date, day)
}

func (s *memoryStore) GetMonthAggregate(_ context.Context, month string) (*schema.MonthAggregate, error) {
	return getCloned(s.months, month)
}

func (s *memoryStore) SaveMonthAggregate(_ context.Context, month *schema.MonthAggregate) error {
	return putCloned(s.months, month.Month, month)
}

func (s *memoryStore) GetArtistAggregate(_ context.Context, address string) (*schema.ArtistAggregate, error) {
	return getCloned(s.artists, address)
}

func (s *memoryStore) SaveArtistAggregate(_ context.Context, artist *schema.ArtistAggregate) error {
	return putCloned(s.artists, artist.Address, artist)
}

func (s *memoryStore) GetPlatformSettings(_ context.Context) (*schema.PlatformSettings, error) {
	return clone(s.settings)
}

func (s *memoryStore) SavePlatformSettings(_ context.Context, settings *schema.PlatformSettings) error {
	settings.Key = schema.PlatformSettingsKey
	copied, err := clone(settings)
	if err != nil {
		return err
	}
	s.settings = copied
	return nil
}

func (s *memoryStore) GetCreatorContract(_ context.Context, address string) (*schema.CreatorContract, error) {
	return getCloned(s.contracts, address)
}

func (s *memoryStore) SaveCreatorContract(_ context.Context, contract *schema.CreatorContract) error {
	return putCloned(s.contracts, contract.Address, contract)
}

func (s *memoryStore) GetCollective(_ context.Context, id string) (*schema.Collective, error) {
	return getCloned(s.collectives, id)
}

func (s *memoryStore) SaveCollective(_ context.Context, collective *schema.Collective) error {
	return putCloned(s.collectives, collective.ID, collective)
}

func (s *memoryStore) AppendActivity(_ context.Context, activity *schema.ActivityEvent) (bool, error) {
	key := fmt.Sprintf("%s|%s|%s|%d|%s", activity.EntityKind, activity.EntityID, activity.TxHash, activity.LogIndex, activity.ActivityType)
	if _, exists := s.activities[key]; exists {
		return false, nil
	}

	s.activitySeq++
	activity.ID = s.activitySeq
	copied, err := clone(activity)
	if err != nil {
		return false, err
	}
	s.activities[key] = copied
	return true, nil
}

func (s *memoryStore) GetBlockCursor(_ context.Context, contract string) (uint64, error) {
	value, ok := s.cursors[contract]
	if !ok {
		return 0, nil
	}
	blockNumber, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}
	return blockNumber, nil
}

func (s *memoryStore) SetBlockCursor(_ context.Context, contract string, blockNumber uint64) error {
	s.cursors[contract] = strconv.FormatUint(blockNumber, 10)
	return nil
}
