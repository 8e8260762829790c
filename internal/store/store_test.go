package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

func TestMemoryStore_EditionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	missing, err := s.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	edition := &schema.Edition{
		ID:            "100000",
		Version:       domain.VersionTwo,
		EditionNumber: "100000",
		ArtistAccount: "0x1111111111111111111111111111111111111111",
		SaleType:      domain.SaleTypeBuyNow,
		OriginalSize:  10,
		TokenIDs:      schema.StringList{"100001"},
		Active:        true,
	}
	require.NoError(t, s.SaveEdition(ctx, edition))

	loaded, err := s.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, edition.ArtistAccount, loaded.ArtistAccount)
	assert.Equal(t, schema.StringList{"100001"}, loaded.TokenIDs)

	// mutating the loaded copy must not leak into the store without a save
	loaded.TotalSupply = 99
	again, err := s.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.TotalSupply)
}

func TestMemoryStore_AppendActivity_Dedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	activity := &schema.ActivityEvent{
		EntityKind:   schema.EntityKindEdition,
		EntityID:     "100000",
		TxHash:       "0xabc",
		LogIndex:     5,
		ActivityType: schema.ActivityPurchase,
		Version:      domain.VersionTwo,
		ValueInEth:   decimal.RequireFromString("0.8"),
		Timestamp:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	created, err := s.AppendActivity(ctx, activity)
	require.NoError(t, err)
	assert.True(t, created)

	// replaying the same (kind, id, tx, log index) is a no-op
	replay := *activity
	created, err = s.AppendActivity(ctx, &replay)
	require.NoError(t, err)
	assert.False(t, created)

	// a different entity in the same log entry gets its own row
	other := *activity
	other.EntityKind = schema.EntityKindToken
	other.EntityID = "100001"
	created, err = s.AppendActivity(ctx, &other)
	require.NoError(t, err)
	assert.True(t, created)

	// a compound transition writes both of its rows against one log entry
	compound := *activity
	compound.ActivityType = schema.ActivityBidAccepted
	created, err = s.AppendActivity(ctx, &compound)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryStore_GetActiveOffer(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inactive := &schema.Offer{
		ID:         "42-0xaaa-1",
		TargetType: schema.OfferTargetEdition,
		TargetID:   "42",
		Bidder:     "0x1111111111111111111111111111111111111111",
		IsActive:   false,
	}
	active := &schema.Offer{
		ID:         "42-0xbbb-2",
		TargetType: schema.OfferTargetEdition,
		TargetID:   "42",
		Bidder:     "0x2222222222222222222222222222222222222222",
		IsActive:   true,
	}
	require.NoError(t, s.SaveOffer(ctx, inactive))
	require.NoError(t, s.SaveOffer(ctx, active))

	got, err := s.GetActiveOffer(ctx, schema.OfferTargetEdition, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)

	// no active offer on a different target
	got, err = s.GetActiveOffer(ctx, schema.OfferTargetToken, "42")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_BlockCursor(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cursor, err := s.GetBlockCursor(ctx, "0xcontract")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)

	require.NoError(t, s.SetBlockCursor(ctx, "0xcontract", 12345678))

	cursor, err = s.GetBlockCursor(ctx, "0xcontract")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345678), cursor)
}

func TestAddressSet_Semantics(t *testing.T) {
	var owners schema.AddressSet

	assert.True(t, owners.Add("0xAbC1111111111111111111111111111111111111"))
	// duplicate membership is rejected case-insensitively
	assert.False(t, owners.Add("0xabc1111111111111111111111111111111111111"))
	assert.True(t, owners.Add("0xDeF2222222222222222222222222222222222222"))
	assert.Len(t, owners, 2)

	assert.True(t, owners.Remove("0xABC1111111111111111111111111111111111111"))
	assert.False(t, owners.Remove("0x9999999999999999999999999999999999999999"))
	assert.Len(t, owners, 1)
}
