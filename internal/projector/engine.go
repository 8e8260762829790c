package projector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/metadata"
	"github.com/openprint/marketplace-indexer/internal/providers/ethereum"
	"github.com/openprint/marketplace-indexer/internal/store"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// Engine projects the ordered marketplace event stream into the entity
// graph. It is single threaded by contract: Handle processes one event to
// completion, including all on-chain reads, before the next event arrives.
type Engine struct {
	store    store.Store
	reader   ethereum.EditionReader
	scanner  ethereum.SettlementScanner
	metadata metadata.Resolver
	json     adapter.JSON
	clock    adapter.Clock
}

// New creates a projection engine. reader, scanner and metadataResolver may
// be nil, in which case entity resolution degrades to defaults.
func New(
	st store.Store,
	reader ethereum.EditionReader,
	scanner ethereum.SettlementScanner,
	metadataResolver metadata.Resolver,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
) *Engine {
	return &Engine{
		store:    st,
		reader:   reader,
		scanner:  scanner,
		metadata: metadataResolver,
		json:     jsonAdapter,
		clock:    clock,
	}
}

// Handle processes one event to completion. A returned error means the event
// could not be durably applied and should be redelivered; events that are
// semantically unprocessable (unknown kind, missing prerequisite entity) are
// logged and skipped instead.
func (e *Engine) Handle(ctx context.Context, event *domain.Event) error {
	if !event.Valid() {
		logger.Error(domain.ErrInvalidEvent,
			zap.String("kind", string(event.Kind)), zap.String("tx_hash", event.TxHash))
		return nil
	}

	start := e.clock.Now()

	var err error
	switch event.Kind {
	case domain.KindTransfer:
		err = e.handleTransfer(ctx, event)
	case domain.KindEditionCreated:
		err = e.handleEditionCreated(ctx, event)
	case domain.KindEditionPriceChanged:
		err = e.handleEditionPriceChanged(ctx, event)
	case domain.KindEditionSalesDisabled:
		err = e.handleEditionSalesDisabled(ctx, event)
	case domain.KindPrimaryPurchase:
		err = e.handlePurchase(ctx, event, true)
	case domain.KindSecondaryPurchase:
		err = e.handlePurchase(ctx, event, false)
	case domain.KindSteppedSalePurchase:
		err = e.handleSteppedSalePurchase(ctx, event)
	case domain.KindTokenListed:
		err = e.handleTokenListed(ctx, event)
	case domain.KindTokenDelisted:
		err = e.handleTokenDelisted(ctx, event)
	case domain.KindBidPlaced:
		err = e.handleBidPlaced(ctx, event)
	case domain.KindBidIncreased:
		err = e.handleBidIncreased(ctx, event)
	case domain.KindBidWithdrawn:
		err = e.handleBidClosed(ctx, event, schema.ActivityBidWithdrawn)
	case domain.KindBidRejected:
		err = e.handleBidClosed(ctx, event, schema.ActivityBidRejected)
	case domain.KindBidAccepted:
		err = e.handleBidAccepted(ctx, event)
	case domain.KindReserveAuctionListed:
		err = e.handleReserveAuctionListed(ctx, event)
	case domain.KindReserveBidPlaced:
		err = e.handleReserveBidPlaced(ctx, event)
	case domain.KindReserveBidWithdrawn:
		err = e.handleReserveBidWithdrawn(ctx, event)
	case domain.KindReserveAuctionResulted:
		err = e.handleReserveAuctionResulted(ctx, event)
	case domain.KindSettingsUpdated:
		err = e.handleSettingsUpdated(ctx, event)
	case domain.KindCreatorContractDeployed:
		err = e.handleCreatorContractDeployed(ctx, event)
	case domain.KindCreatorContractPaused:
		err = e.handleCreatorContractToggled(ctx, event)
	case domain.KindCreatorContractBanned:
		err = e.handleCreatorContractToggled(ctx, event)
	case domain.KindCollectiveCreated:
		err = e.handleCollectiveCreated(ctx, event)
	default:
		logger.Warn("unhandled event kind", zap.String("kind", string(event.Kind)))
		return nil
	}

	if err != nil {
		// A missing prerequisite entity is unreachable under correct upstream
		// ordering; skip the event rather than stalling the stream
		if errors.Is(err, domain.ErrMissingEntity) {
			logger.ErrorCtx(ctx, err,
				zap.String("kind", string(event.Kind)),
				zap.String("tx_hash", event.TxHash),
				zap.Uint64("log_index", event.LogIndex))
			return nil
		}
		return fmt.Errorf("failed to project %s event: %w", event.Kind, err)
	}

	logger.DebugCtx(ctx, "projected event",
		zap.String("kind", string(event.Kind)),
		zap.Uint64("block_number", event.BlockNumber),
		zap.Duration("took", e.clock.Since(start)))

	return e.store.SetBlockCursor(ctx, event.ContractAddress, event.BlockNumber)
}
