package projector

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// activityRecord carries the optional fields of one activity row
type activityRecord struct {
	buyer        string
	seller       string
	value        decimal.Decimal
	platformFee  decimal.Decimal
	creatorShare decimal.Decimal
}

// appendActivity writes one append-only activity row for an event. The store
// deduplicates by (entity kind, entity id, tx hash, log index, activity
// type), so replayed handlers never produce a second row.
func (e *Engine) appendActivity(ctx context.Context, event *domain.Event, kind schema.EntityKind, entityID string, activityType schema.ActivityType, rec activityRecord) error {
	row := &schema.ActivityEvent{
		EntityKind:        kind,
		EntityID:          entityID,
		TxHash:            event.TxHash,
		LogIndex:          event.LogIndex,
		ActivityType:      activityType,
		Version:           event.Version,
		ValueInEth:        rec.value,
		PlatformFeeInEth:  rec.platformFee,
		CreatorShareInEth: rec.creatorShare,
		BlockNumber:       event.BlockNumber,
		Timestamp:         event.BlockTimestamp,
	}
	if rec.buyer != "" {
		buyer := domain.NormalizeAddress(rec.buyer)
		row.Buyer = &buyer
	}
	if rec.seller != "" {
		seller := domain.NormalizeAddress(rec.seller)
		row.Seller = &seller
	}
	if raw, err := e.json.Marshal(event); err == nil {
		row.Raw = datatypes.JSON(raw)
	}

	created, err := e.store.AppendActivity(ctx, row)
	if err != nil {
		return err
	}
	if !created {
		logger.DebugCtx(ctx, "duplicate activity row suppressed",
			zap.String("entity_id", entityID),
			zap.String("tx_hash", event.TxHash),
			zap.Uint64("log_index", event.LogIndex))
	}
	return nil
}
