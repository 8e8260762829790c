package projector

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/metadata"
	"github.com/openprint/marketplace-indexer/internal/providers/ethereum"
	"github.com/openprint/marketplace-indexer/internal/store"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	m.Run()
}

const (
	marketplaceContract = "0xFBeef911Dc5821886e1dda71586d90eD28174B7d"
	artistAddress       = "0x1111111111111111111111111111111111111111"
	aliceAddress        = "0x2222222222222222222222222222222222222222"
	bobAddress          = "0x3333333333333333333333333333333333333333"
	carolAddress        = "0x4444444444444444444444444444444444444444"
)

// fakeEditionReader serves canned edition details keyed by edition number,
// token URIs keyed by token number, and counts contract reads
type fakeEditionReader struct {
	details   map[string]*ethereum.EditionDetails
	tokenURIs map[string]string
	calls     int
	uriCalls  int
}

func (f *fakeEditionReader) EditionDetails(_ context.Context, _ string, editionNumber string) (*ethereum.EditionDetails, error) {
	f.calls++
	details, ok := f.details[editionNumber]
	if !ok {
		return nil, fmt.Errorf("%w: detailsOfEdition(%s)", domain.ErrRevertedRead, editionNumber)
	}
	return details, nil
}

func (f *fakeEditionReader) TokenURI(_ context.Context, _ string, tokenNumber string) (string, error) {
	f.uriCalls++
	uri, ok := f.tokenURIs[tokenNumber]
	if !ok {
		return "", fmt.Errorf("%w: tokenURI(%s)", domain.ErrRevertedRead, tokenNumber)
	}
	return uri, nil
}

func (f *fakeEditionReader) Close() {}

// fakeScanner returns a fixed wrapped settlement value
type fakeScanner struct {
	value *big.Int
}

func (f *fakeScanner) WrappedPaymentValue(_ context.Context, _ string, _ string, _ string) (*big.Int, error) {
	if f.value == nil {
		return big.NewInt(0), nil
	}
	return f.value, nil
}

// fakeMetadataResolver returns a canned metadata document
type fakeMetadataResolver struct {
	meta *metadata.TokenMetadata
}

func (f *fakeMetadataResolver) Resolve(_ context.Context, _ string, _ string) (*metadata.TokenMetadata, error) {
	if f.meta == nil {
		return nil, domain.ErrMetadataUnavailable
	}
	return f.meta, nil
}

type testEnv struct {
	engine  *Engine
	store   store.Store
	reader  *fakeEditionReader
	scanner *fakeScanner
}

func newTestEnv() *testEnv {
	reader := &fakeEditionReader{details: map[string]*ethereum.EditionDetails{
		"100000": {
			ArtistAccount:    artistAddress,
			PriceInWei:       big.NewInt(100000000000000000), // 0.1 ETH
			ArtistCommission: big.NewInt(85000),
			TotalAvailable:   10,
			TokenURI:         "ipfs://QmEditionMeta",
			Active:           true,
		},
		"101000": {
			ArtistAccount:    artistAddress,
			PriceInWei:       big.NewInt(200000000000000000),
			ArtistCommission: big.NewInt(85000),
			TotalAvailable:   1,
			TokenURI:         "ipfs://QmSingleMeta",
			Active:           true,
		},
	}}
	scanner := &fakeScanner{}
	s := store.NewMemoryStore()
	engine := New(s, reader, scanner, &fakeMetadataResolver{meta: &metadata.TokenMetadata{
		Name:        "dawn chorus",
		Description: "generative study",
		Image:       "ipfs://QmImage",
		Tags:        []string{"generative"},
	}}, adapter.NewJSON(), adapter.NewClock())

	return &testEnv{engine: engine, store: s, reader: reader, scanner: scanner}
}

func testEvent(kind domain.EventKind, logIndex uint64) *domain.Event {
	return &domain.Event{
		Version:         domain.VersionTwo,
		Kind:            kind,
		ContractAddress: marketplaceContract,
		BlockNumber:     18000000 + logIndex,
		BlockTimestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TxHash:          fmt.Sprintf("0xtx%04d", logIndex),
		LogIndex:        logIndex,
	}
}

func mintEvent(tokenNumber string, to string, logIndex uint64) *domain.Event {
	event := testEvent(domain.KindTransfer, logIndex)
	event.Transfer = &domain.TransferParams{From: domain.ZeroAddress, To: to, TokenNumber: tokenNumber}
	return event
}

// activityExists probes the write-once activity log: a suppressed duplicate
// means the row was already written by the handler under test
func activityExists(t *testing.T, s store.Store, event *domain.Event, kind schema.EntityKind, entityID string, activityType schema.ActivityType) bool {
	t.Helper()
	created, err := s.AppendActivity(context.Background(), &schema.ActivityEvent{
		EntityKind:   kind,
		EntityID:     entityID,
		TxHash:       event.TxHash,
		LogIndex:     event.LogIndex,
		ActivityType: activityType,
		Version:      event.Version,
		Timestamp:    event.BlockTimestamp,
	})
	require.NoError(t, err)
	return !created
}

func TestHandleTransfer_MintCreatesEntityGraph(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	event := mintEvent("100001", aliceAddress, 1)
	require.NoError(t, env.engine.Handle(ctx, event))

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, edition)
	assert.True(t, edition.OnChainResolved)
	assert.Equal(t, artistAddress, edition.ArtistAccount)
	assert.Equal(t, "0.1", edition.PriceInEth.String())
	assert.Equal(t, int64(10), edition.OriginalSize)
	assert.Equal(t, int64(1), edition.TotalSupply)
	assert.Equal(t, int64(9), edition.RemainingSupply)
	assert.Equal(t, "dawn chorus", edition.MetadataName)
	assert.True(t, edition.IsGenesis)
	assert.Equal(t, schema.StringList{"100001"}, edition.TokenIDs)

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	require.NotNil(t, token)
	require.NotNil(t, token.CurrentOwner)
	assert.Equal(t, aliceAddress, *token.CurrentOwner)
	assert.Equal(t, "100000", token.EditionID)

	collector, err := env.store.GetCollector(ctx, aliceAddress)
	require.NoError(t, err)
	require.NotNil(t, collector)
	assert.True(t, collector.HeldTokenIDs.Contains("100001"))

	artist, err := env.store.GetArtistAggregate(ctx, artistAddress)
	require.NoError(t, err)
	require.NotNil(t, artist)
	assert.Equal(t, int64(1), artist.EditionsCount)
	assert.Equal(t, int64(10), artist.SupplyCount)
	require.NotNil(t, artist.FirstEditionTimestamp)

	day, err := env.store.GetDayAggregate(ctx, "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, int64(1), day.TokensMinted)
	assert.Equal(t, int64(1), day.TransferCount)

	month, err := env.store.GetMonthAggregate(ctx, "2024-03")
	require.NoError(t, err)
	require.NotNil(t, month)
	assert.Equal(t, int64(1), month.TokensMinted)

	cursor, err := env.store.GetBlockCursor(ctx, marketplaceContract)
	require.NoError(t, err)
	assert.Equal(t, event.BlockNumber, cursor)

	assert.True(t, activityExists(t, env.store, event, schema.EntityKindToken, "100001", schema.ActivityTransfer))
}

func TestHandleTransfer_MintResolvesTokenMetadata(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.reader.tokenURIs = map[string]string{"100001": "ipfs://QmToken1"}

	require.NoError(t, env.engine.Handle(ctx, mintEvent("100001", aliceAddress, 1)))

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.True(t, token.MetadataResolved)
	assert.Equal(t, "ipfs://QmToken1", token.TokenURI)
	assert.Equal(t, "dawn chorus", token.MetadataName)
	assert.Equal(t, "ipfs://QmImage", token.MetadataImage)

	// a reverted tokenURI read still counts as the single attempt
	require.NoError(t, env.engine.Handle(ctx, mintEvent("100002", bobAddress, 2)))

	blank, err := env.store.GetToken(ctx, "100002")
	require.NoError(t, err)
	require.NotNil(t, blank)
	assert.True(t, blank.MetadataResolved)
	assert.Empty(t, blank.TokenURI)
	assert.Empty(t, blank.MetadataName)

	// replaying a mint re-resolves the saved token without another read
	urisAfterMints := env.reader.uriCalls
	require.NoError(t, env.engine.Handle(ctx, mintEvent("100001", aliceAddress, 1)))
	assert.Equal(t, urisAfterMints, env.reader.uriCalls)
}

func TestHandleTransfer_ReplayedMintIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	event := mintEvent("100001", aliceAddress, 1)
	require.NoError(t, env.engine.Handle(ctx, event))
	readsAfterFirst := env.reader.calls
	require.NoError(t, env.engine.Handle(ctx, event))

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Equal(t, int64(1), edition.TotalSupply)
	assert.Equal(t, schema.StringList{"100001"}, edition.TokenIDs)

	// the persisted edition satisfies re-resolution without another read
	assert.Equal(t, readsAfterFirst, env.reader.calls)
}

func TestHandleTransfer_FullBurnDeactivatesEdition(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	require.NoError(t, env.engine.Handle(ctx, mintEvent("101001", aliceAddress, 1)))

	burn := testEvent(domain.KindTransfer, 2)
	burn.Transfer = &domain.TransferParams{From: aliceAddress, To: domain.DeadAddress, TokenNumber: "101001"}
	require.NoError(t, env.engine.Handle(ctx, burn))

	token, err := env.store.GetToken(ctx, "101001")
	require.NoError(t, err)
	assert.True(t, token.Burned)
	assert.Nil(t, token.CurrentOwner)

	edition, err := env.store.GetEdition(ctx, "101000")
	require.NoError(t, err)
	assert.False(t, edition.Active)
	assert.Equal(t, int64(1), edition.TotalBurnt)
	assert.Equal(t, int64(0), edition.TotalAvailable)
	assert.Empty(t, edition.CurrentOwners)

	artist, err := env.store.GetArtistAggregate(ctx, artistAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(0), artist.EditionsCount)
	assert.Equal(t, int64(0), artist.SupplyCount)

	holder, err := env.store.GetCollector(ctx, aliceAddress)
	require.NoError(t, err)
	assert.False(t, holder.HeldTokenIDs.Contains("101001"))

	// replaying the burn must not decrement the artist a second time
	require.NoError(t, env.engine.Handle(ctx, burn))
	artist, err = env.store.GetArtistAggregate(ctx, artistAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(0), artist.EditionsCount)

	assert.True(t, activityExists(t, env.store, burn, schema.EntityKindToken, "101001", schema.ActivityBurn))
}

func TestHandleTransfer_BurnDoesNotRestoreUnmintedPool(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	require.NoError(t, env.engine.Handle(ctx, mintEvent("100001", aliceAddress, 1)))
	require.NoError(t, env.engine.Handle(ctx, mintEvent("100002", bobAddress, 2)))

	burn := testEvent(domain.KindTransfer, 3)
	burn.Transfer = &domain.TransferParams{From: aliceAddress, To: domain.DeadAddress, TokenNumber: "100001"}
	require.NoError(t, env.engine.Handle(ctx, burn))

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Equal(t, int64(2), edition.TotalSupply)
	assert.Equal(t, int64(1), edition.TotalBurnt)
	assert.Equal(t, int64(9), edition.TotalAvailable)
	assert.Equal(t, int64(8), edition.RemainingSupply)
	assert.True(t, edition.Active)
}

func TestHandleBidPlaced_SupersedesActiveOffer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	first := testEvent(domain.KindBidPlaced, 1)
	first.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "100000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, first))

	second := testEvent(domain.KindBidPlaced, 2)
	second.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: bobAddress, AmountWei: "150000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, second))

	active, err := env.store.GetActiveOffer(ctx, schema.OfferTargetEdition, "100000")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, bobAddress, active.Bidder)
	assert.Equal(t, "0.15", active.EthValue.String())

	superseded, err := env.store.GetOffer(ctx, domain.OfferID("100000", first.TxHash, first.LogIndex))
	require.NoError(t, err)
	require.NotNil(t, superseded)
	assert.False(t, superseded.IsActive)

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, edition.ActiveBidID)
	assert.Equal(t, active.ID, *edition.ActiveBidID)
	assert.Len(t, edition.BidHistory, 2)

	day, err := env.store.GetDayAggregate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), day.BidsPlacedCount)
}

func TestHandleBidIncreased_RaisesActiveOffer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	placed := testEvent(domain.KindBidPlaced, 1)
	placed.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "100000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, placed))

	// an increase without a named bidder carries the prior bidder forward
	increased := testEvent(domain.KindBidIncreased, 2)
	increased.Bid = &domain.BidParams{EditionNumber: "100000", AmountWei: "200000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, increased))

	active, err := env.store.GetActiveOffer(ctx, schema.OfferTargetEdition, "100000")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, aliceAddress, active.Bidder)
	assert.Equal(t, "0.2", active.EthValue.String())

	superseded, err := env.store.GetOffer(ctx, domain.OfferID("100000", placed.TxHash, placed.LogIndex))
	require.NoError(t, err)
	require.NotNil(t, superseded)
	assert.False(t, superseded.IsActive)

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, edition.ActiveBidID)
	assert.Equal(t, active.ID, *edition.ActiveBidID)
	assert.Len(t, edition.BidHistory, 2)
	assert.True(t, activityExists(t, env.store, increased, schema.EntityKindEdition, "100000", schema.ActivityBidIncreased))
}

func TestHandleBidIncreased_WithoutActiveOfferSkipsEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	increased := testEvent(domain.KindBidIncreased, 1)
	increased.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "200000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, increased))

	active, err := env.store.GetActiveOffer(ctx, schema.OfferTargetEdition, "100000")
	require.NoError(t, err)
	assert.Nil(t, active)

	cursor, err := env.store.GetBlockCursor(ctx, marketplaceContract)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestHandleBidClosed_WithdrawAndReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	placed := testEvent(domain.KindBidPlaced, 1)
	placed.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "100000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, placed))

	withdrawn := testEvent(domain.KindBidWithdrawn, 2)
	withdrawn.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress}
	require.NoError(t, env.engine.Handle(ctx, withdrawn))

	active, err := env.store.GetActiveOffer(ctx, schema.OfferTargetEdition, "100000")
	require.NoError(t, err)
	assert.Nil(t, active)

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Nil(t, edition.ActiveBidID)
	assert.Len(t, edition.BidHistory, 2)
	assert.True(t, activityExists(t, env.store, withdrawn, schema.EntityKindEdition, "100000", schema.ActivityBidWithdrawn))

	placed = testEvent(domain.KindBidPlaced, 3)
	placed.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: bobAddress, AmountWei: "150000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, placed))

	rejected := testEvent(domain.KindBidRejected, 4)
	rejected.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: bobAddress}
	require.NoError(t, env.engine.Handle(ctx, rejected))

	active, err = env.store.GetActiveOffer(ctx, schema.OfferTargetEdition, "100000")
	require.NoError(t, err)
	assert.Nil(t, active)

	edition, err = env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Nil(t, edition.ActiveBidID)
	assert.Len(t, edition.BidHistory, 4)
	assert.True(t, activityExists(t, env.store, rejected, schema.EntityKindEdition, "100000", schema.ActivityBidRejected))
}

func TestHandleBidPlaced_TokenTarget(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	require.NoError(t, env.engine.Handle(ctx, mintEvent("100001", aliceAddress, 1)))

	first := testEvent(domain.KindBidPlaced, 2)
	first.Bid = &domain.BidParams{TokenNumber: "100001", Bidder: bobAddress, AmountWei: "300000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, first))

	second := testEvent(domain.KindBidPlaced, 3)
	second.Bid = &domain.BidParams{TokenNumber: "100001", Bidder: carolAddress, AmountWei: "400000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, second))

	active, err := env.store.GetActiveOffer(ctx, schema.OfferTargetToken, "100001")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, carolAddress, active.Bidder)

	superseded, err := env.store.GetOffer(ctx, domain.OfferID("100001", first.TxHash, first.LogIndex))
	require.NoError(t, err)
	require.NotNil(t, superseded)
	assert.False(t, superseded.IsActive)

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	require.NotNil(t, token.OpenOfferID)
	assert.Equal(t, active.ID, *token.OpenOfferID)
	assert.Len(t, token.BidHistory, 2)

	withdrawn := testEvent(domain.KindBidWithdrawn, 4)
	withdrawn.Bid = &domain.BidParams{TokenNumber: "100001", Bidder: carolAddress}
	require.NoError(t, env.engine.Handle(ctx, withdrawn))

	token, err = env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	assert.Nil(t, token.OpenOfferID)

	// a bid on a never-minted token is skipped without a cursor update
	missing := testEvent(domain.KindBidPlaced, 5)
	missing.Bid = &domain.BidParams{TokenNumber: "100009", Bidder: bobAddress, AmountWei: "100000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, missing))

	orphan, err := env.store.GetActiveOffer(ctx, schema.OfferTargetToken, "100009")
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func TestHandleBidAccepted_CompoundPurchase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	placed := testEvent(domain.KindBidPlaced, 1)
	placed.Bid = &domain.BidParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "800000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, placed))

	accepted := testEvent(domain.KindBidAccepted, 2)
	accepted.Bid = &domain.BidParams{EditionNumber: "100000", TokenNumber: "100001", Bidder: aliceAddress}
	require.NoError(t, env.engine.Handle(ctx, accepted))

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Nil(t, edition.ActiveBidID)
	assert.Equal(t, int64(1), edition.TotalSold)
	assert.Len(t, edition.BidHistory, 2)

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "0.8", token.PrimaryValueInEth.String())
	assert.Equal(t, "0.8", token.LastSalePriceInEth.String())

	collector, err := env.store.GetCollector(ctx, aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), collector.PrimaryPurchaseCount)
	assert.Equal(t, "0.8", collector.PrimaryPurchaseValue.String())
	assert.True(t, collector.HeldTokenIDs.Contains("100001"))

	day, err := env.store.GetDayAggregate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), day.SalesCount)
	assert.Equal(t, int64(1), day.BidsAcceptedCount)
	assert.Equal(t, "0.8", day.TotalValueInEth.String())

	// one acceptance row on the edition and one purchase row on the token,
	// both against the same log entry
	assert.True(t, activityExists(t, env.store, accepted, schema.EntityKindEdition, "100000", schema.ActivityBidAccepted))
	assert.True(t, activityExists(t, env.store, accepted, schema.EntityKindToken, "100001", schema.ActivityPurchase))
}

func TestHandlePurchase_WrappedAssetSettlement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	require.NoError(t, env.engine.Handle(ctx, mintEvent("100001", bobAddress, 1)))

	// declared price and native value are both absent; the receipt scan
	// recovers the WETH settlement
	env.scanner.value = big.NewInt(467250000000000000)

	purchase := testEvent(domain.KindSecondaryPurchase, 2)
	purchase.Sale = &domain.SaleParams{TokenNumber: "100001", Buyer: aliceAddress}
	require.NoError(t, env.engine.Handle(ctx, purchase))

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	assert.Equal(t, "0.46725", token.LastSalePriceInEth.String())

	seller, err := env.store.GetCollector(ctx, bobAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seller.SaleCount)
	assert.Equal(t, "0.46725", seller.SaleValue.String())
	assert.False(t, seller.HeldTokenIDs.Contains("100001"))

	buyer, err := env.store.GetCollector(ctx, aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), buyer.SecondaryPurchaseCount)
	assert.True(t, buyer.HeldTokenIDs.Contains("100001"))

	day, err := env.store.GetDayAggregate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "0.46725", day.SecondarySalesValue.String())
}

func TestHandlePurchase_ZeroValueCountedWithoutValue(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	purchase := testEvent(domain.KindPrimaryPurchase, 1)
	purchase.Sale = &domain.SaleParams{EditionNumber: "100000", TokenNumber: "100001", Buyer: aliceAddress}
	require.NoError(t, env.engine.Handle(ctx, purchase))

	token, err := env.store.GetToken(ctx, "100001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), token.TotalPurchaseCount)
	assert.True(t, token.LastSalePriceInEth.IsZero())

	day, err := env.store.GetDayAggregate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), day.SalesCount)
	assert.True(t, day.TotalValueInEth.IsZero())
}

func TestHandle_MissingTokenSkipsEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	listed := testEvent(domain.KindTokenListed, 1)
	listed.Listing = &domain.ListingParams{TokenNumber: "100099", Seller: aliceAddress, PriceWei: "100000000000000000"}

	// the event is skipped, not failed: the subscriber must not redeliver
	require.NoError(t, env.engine.Handle(ctx, listed))

	cursor, err := env.store.GetBlockCursor(ctx, marketplaceContract)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestReserveAuction_SuddenDeathExtension(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	listed := testEvent(domain.KindReserveAuctionListed, 1)
	listed.Auction = &domain.AuctionParams{EditionNumber: "100000", Seller: artistAddress, ReservePriceWei: "500000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, listed))

	edition, err := env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleTypeReserveAuction, edition.SaleType)
	require.NotNil(t, edition.ReservePriceInWei)
	assert.Nil(t, edition.ReserveAuctionEnds)

	// below reserve: no countdown
	lowBid := testEvent(domain.KindReserveBidPlaced, 2)
	lowBid.Auction = &domain.AuctionParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "400000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, lowBid))

	edition, err = env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Nil(t, edition.ReserveAuctionEnds)

	// crossing the reserve starts the countdown
	crossing := testEvent(domain.KindReserveBidPlaced, 3)
	crossing.Auction = &domain.AuctionParams{EditionNumber: "100000", Bidder: aliceAddress, AmountWei: "500000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, crossing))

	edition, err = env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, edition.ReserveAuctionEnds)
	firstEnds := crossing.BlockTimestamp.Add(reserveCountdownDuration)
	assert.True(t, edition.ReserveAuctionEnds.Equal(firstEnds))

	// a bid inside the final window extends the countdown
	sudden := testEvent(domain.KindReserveBidPlaced, 4)
	sudden.BlockTimestamp = firstEnds.Add(-10 * time.Minute)
	sudden.Auction = &domain.AuctionParams{EditionNumber: "100000", Bidder: bobAddress, AmountWei: "600000000000000000"}
	require.NoError(t, env.engine.Handle(ctx, sudden))

	edition, err = env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	require.NotNil(t, edition.ReserveAuctionEnds)
	assert.True(t, edition.ReserveAuctionEnds.Equal(sudden.BlockTimestamp.Add(reserveSuddenDeathWindow)))
	assert.Equal(t, int64(1), edition.ReserveExtensionCount)
	assert.Equal(t, int64(300), edition.ReserveExtensionSeconds)

	resulted := testEvent(domain.KindReserveAuctionResulted, 5)
	resulted.BlockTimestamp = sudden.BlockTimestamp.Add(reserveSuddenDeathWindow)
	resulted.Auction = &domain.AuctionParams{EditionNumber: "100000"}
	require.NoError(t, env.engine.Handle(ctx, resulted))

	edition, err = env.store.GetEdition(ctx, "100000")
	require.NoError(t, err)
	assert.Equal(t, int64(1), edition.TotalSold)
	assert.Nil(t, edition.ReservePriceInWei)
	assert.Nil(t, edition.ReserveAuctionSeller)
	assert.Nil(t, edition.ReserveAuctionEnds)
	assert.Nil(t, edition.ActiveBidID)
	// extension counters are historical and survive settlement
	assert.Equal(t, int64(1), edition.ReserveExtensionCount)

	winner, err := env.store.GetCollector(ctx, bobAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), winner.PrimaryPurchaseCount)
	assert.Equal(t, "0.6", winner.PrimaryPurchaseValue.String())

	assert.True(t, activityExists(t, env.store, resulted, schema.EntityKindEdition, "100000", schema.ActivityAuctionResulted))
	assert.True(t, activityExists(t, env.store, resulted, schema.EntityKindEdition, "100000", schema.ActivityPurchase))
}

func TestHandleSettingsUpdated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	update := testEvent(domain.KindSettingsUpdated, 1)
	update.Settings = &domain.SettingsParams{Field: domain.SettingsFieldPrimaryCommission, Value: "20000"}
	require.NoError(t, env.engine.Handle(ctx, update))

	settings, err := env.store.GetPlatformSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, int64(20000), settings.PrimaryCommission)
	// untouched fields keep their seeded defaults
	assert.Equal(t, domain.DefaultModulo, settings.Modulo)

	assert.True(t, activityExists(t, env.store, update, schema.EntityKindPlatform, schema.PlatformSettingsKey, schema.ActivitySettingsUpdated))

	// unparseable values are ignored, not applied
	bad := testEvent(domain.KindSettingsUpdated, 2)
	bad.Settings = &domain.SettingsParams{Field: domain.SettingsFieldModulo, Value: "not-a-number"}
	require.NoError(t, env.engine.Handle(ctx, bad))

	settings, err = env.store.GetPlatformSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultModulo, settings.Modulo)
}

func TestCreatorContractLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	creatorContract := "0x4444444444444444444444444444444444444444"

	deployed := testEvent(domain.KindCreatorContractDeployed, 1)
	deployed.Version = domain.VersionFour
	deployed.ContractAddress = creatorContract
	deployed.Creator = &domain.CreatorParams{Deployer: artistAddress, Artist: artistAddress, FundsHandler: artistAddress}
	require.NoError(t, env.engine.Handle(ctx, deployed))

	contract, err := env.store.GetCreatorContract(ctx, creatorContract)
	require.NoError(t, err)
	require.NotNil(t, contract)
	assert.Equal(t, artistAddress, contract.Artist)
	assert.False(t, contract.Paused)

	created := testEvent(domain.KindEditionCreated, 2)
	created.Version = domain.VersionFour
	created.ContractAddress = creatorContract
	created.Edition = &domain.EditionParams{EditionNumber: "1000", TokenURI: "ipfs://QmCreatorMeta"}
	require.NoError(t, env.engine.Handle(ctx, created))

	contract, err = env.store.GetCreatorContract(ctx, creatorContract)
	require.NoError(t, err)
	assert.Equal(t, int64(1), contract.EditionsCount)

	// version 4 editions are namespaced by contract
	edition, err := env.store.GetEdition(ctx, domain.EditionID(domain.VersionFour, creatorContract, "1000"))
	require.NoError(t, err)
	require.NotNil(t, edition)

	paused := testEvent(domain.KindCreatorContractPaused, 3)
	paused.Version = domain.VersionFour
	paused.ContractAddress = creatorContract
	truth := true
	paused.Creator = &domain.CreatorParams{Paused: &truth}
	require.NoError(t, env.engine.Handle(ctx, paused))

	contract, err = env.store.GetCreatorContract(ctx, creatorContract)
	require.NoError(t, err)
	assert.True(t, contract.Paused)
	assert.False(t, contract.Banned)
}

func TestHandleCollectiveCreated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	handler := "0x5555555555555555555555555555555555555555"

	event := testEvent(domain.KindCollectiveCreated, 1)
	event.Version = domain.VersionFour
	event.Collective = &domain.CollectiveParams{
		Handler:    handler,
		Creator:    artistAddress,
		Recipients: []string{artistAddress, bobAddress},
		Splits:     []int64{60000, 40000},
	}
	require.NoError(t, env.engine.Handle(ctx, event))

	collective, err := env.store.GetCollective(ctx, handler)
	require.NoError(t, err)
	require.NotNil(t, collective)
	assert.True(t, collective.FullyConfigured)

	// splits that do not sum to the modulo leave the collective partial
	partial := testEvent(domain.KindCollectiveCreated, 2)
	partial.Version = domain.VersionFour
	partial.Collective = &domain.CollectiveParams{
		Handler:    "0x6666666666666666666666666666666666666666",
		Creator:    artistAddress,
		Recipients: []string{artistAddress},
		Splits:     []int64{50000},
	}
	require.NoError(t, env.engine.Handle(ctx, partial))

	collective, err = env.store.GetCollective(ctx, "0x6666666666666666666666666666666666666666")
	require.NoError(t, err)
	require.NotNil(t, collective)
	assert.False(t, collective.FullyConfigured)
}
