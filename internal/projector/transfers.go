package projector

import (
	"context"

	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// handleTransfer processes mint, transfer and burn events. Mints create the
// edition and token on first sighting; regular transfers move ownership and
// clear stale listings; every transfer triggers the burn scan over the
// edition's token list.
func (e *Engine) handleTransfer(ctx context.Context, event *domain.Event) error {
	from := event.Transfer.From
	to := domain.NormalizeAddress(event.Transfer.To)
	tokenNumber := event.Transfer.TokenNumber
	mint := domain.IsMint(from)
	burn := domain.IsBurnAddress(to)

	editionNumber := domain.EditionNumberForToken(tokenNumber)
	edition, _, err := e.resolveEdition(ctx, event, editionNumber)
	if err != nil {
		return err
	}

	var token *schema.Token
	if mint {
		token, _, err = e.resolveToken(ctx, event, edition, tokenNumber)
		if err != nil {
			return err
		}

		// Append-if-absent keeps supply correct under replay
		if !edition.TokenIDs.Contains(token.ID) {
			edition.TokenIDs = append(edition.TokenIDs, token.ID)
			edition.TotalSupply++
		}
	} else {
		token, err = e.requireToken(ctx, event.Version, event.ContractAddress, tokenNumber)
		if err != nil {
			return err
		}
	}

	if burn {
		token.CurrentOwner = nil
		token.Burned = true
	} else {
		owner := to
		token.CurrentOwner = &owner
		token.AllOwners.Add(owner)
		edition.AllOwners.Add(owner)
	}
	token.TransferCount++

	// A transfer invalidates any secondary-market listing on the token
	token.ListingPriceInWei = nil
	token.Lister = nil
	token.ListedAt = nil

	// A transfer with recoverable value is a secondary sale
	if !mint && !burn {
		_, value := e.salePrice(ctx, event, "", to, from)
		if value.IsPositive() {
			if err := e.applyPurchase(ctx, event, edition, token, to, from, value, false); err != nil {
				return err
			}
		} else if err := e.moveHeldToken(ctx, event, token.ID, from, to); err != nil {
			return err
		}
	} else if err := e.moveHeldToken(ctx, event, token.ID, from, to); err != nil {
		return err
	}

	// The burn scan reads tokens back from the store, so this token's new
	// state must be persisted first
	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := e.reconcileEditionSupply(ctx, event, edition); err != nil {
		return err
	}
	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	if err := e.recordTransfer(ctx, event.BlockTimestamp); err != nil {
		return err
	}
	if mint {
		if err := e.recordMint(ctx, event.BlockTimestamp); err != nil {
			return err
		}
	}

	activityType := schema.ActivityTransfer
	if burn {
		activityType = schema.ActivityBurn
	}
	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, activityType, activityRecord{
		buyer:  to,
		seller: from,
	})
}

// moveHeldToken updates the held-token sets of the two collectors involved in
// a non-sale ownership change
func (e *Engine) moveHeldToken(ctx context.Context, event *domain.Event, tokenID string, from string, to string) error {
	if from != "" && !domain.IsBurnAddress(from) {
		seller, err := e.loadCollector(ctx, from, event.BlockTimestamp)
		if err != nil {
			return err
		}
		seller.HeldTokenIDs.Remove(tokenID)
		if err := e.store.SaveCollector(ctx, seller); err != nil {
			return err
		}
	}

	if to != "" && !domain.IsBurnAddress(to) {
		buyer, err := e.loadCollector(ctx, to, event.BlockTimestamp)
		if err != nil {
			return err
		}
		buyer.HeldTokenIDs.Add(tokenID)
		if err := e.store.SaveCollector(ctx, buyer); err != nil {
			return err
		}
	}
	return nil
}

// reconcileEditionSupply rescans the edition's token list, reclassifying
// burnt tokens and recomputing the supply counters and current-owner set.
// Burn counters are never decremented outside this recomputation. When the
// whole edition burns out, the edition deactivates and the artist's rollup
// is decremented exactly once.
func (e *Engine) reconcileEditionSupply(ctx context.Context, event *domain.Event, edition *schema.Edition) error {
	burnt := int64(0)
	currentOwners := schema.AddressSet{}

	for _, tokenID := range edition.TokenIDs {
		token, err := e.store.GetToken(ctx, tokenID)
		if err != nil {
			return err
		}
		if token == nil {
			continue
		}
		if token.Burned || token.CurrentOwner == nil || domain.IsBurnAddress(*token.CurrentOwner) {
			burnt++
			continue
		}
		currentOwners.Add(*token.CurrentOwner)
	}

	edition.TotalBurnt = burnt
	edition.CurrentOwners = currentOwners
	edition.TotalAvailable = clampNonNegative(ctx, "total_available", edition.ID, edition.OriginalSize-burnt)

	// Remaining supply counts unminted copies. Burns shrink availability, not
	// the unminted pool, so a burn after a full mint leaves it at zero rather
	// than pushing the computation negative.
	remaining := edition.OriginalSize - edition.TotalSupply
	if edition.TotalAvailable < remaining {
		remaining = edition.TotalAvailable
	}
	edition.RemainingSupply = clampNonNegative(ctx, "remaining_supply", edition.ID, remaining)

	fullyBurnt := edition.OriginalSize > 0 && burnt >= edition.OriginalSize
	if fullyBurnt && edition.Active {
		edition.Active = false

		// Editions on the static burnt list had their artist counters
		// adjusted historically; decrementing again would double count
		if !domain.IsKnownBurntEdition(edition.ID) && edition.ArtistAccount != "" {
			artist, err := e.loadArtistAggregate(ctx, edition.ArtistAccount)
			if err != nil {
				return err
			}
			artist.EditionsCount = clampNonNegative(ctx, "editions_count", artist.Address, artist.EditionsCount-1)
			artist.SupplyCount = clampNonNegative(ctx, "supply_count", artist.Address, artist.SupplyCount-edition.OriginalSize)
			if err := e.store.SaveArtistAggregate(ctx, artist); err != nil {
				return err
			}
		}
	}
	return nil
}

// clampNonNegative clamps a counter at zero, logging the invariant violation
// instead of propagating it
func clampNonNegative(ctx context.Context, field string, entityID string, value int64) int64 {
	if value < 0 {
		logger.WarnCtx(ctx, "negative counter clamped to zero",
			zap.String("field", field),
			zap.String("entity_id", entityID),
			zap.Int64("value", value))
		return 0
	}
	return value
}
