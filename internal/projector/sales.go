package projector

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// applyPurchase is the compound sale transaction shared by purchase events,
// valued transfers and accepted bids: token sale metrics, edition sold
// counter, both collectors' rollups, the artist rollup and the calendar
// buckets. The caller persists the edition and token afterwards; collectors
// and aggregates are persisted here.
func (e *Engine) applyPurchase(ctx context.Context, event *domain.Event, edition *schema.Edition, token *schema.Token, buyerAddr string, sellerAddr string, value decimal.Decimal, primary bool) error {
	token.TotalPurchaseCount++
	if value.IsPositive() {
		token.TotalPurchaseValue = token.TotalPurchaseValue.Add(value)
		token.LastSalePriceInEth = value
		if value.GreaterThan(token.LargestSalePriceInEth) {
			token.LargestSalePriceInEth = value
		}
		if primary {
			token.PrimaryValueInEth = value
		}
	}

	if primary {
		edition.TotalSold++
	}

	buyer, err := e.loadCollector(ctx, buyerAddr, event.BlockTimestamp)
	if err != nil {
		return err
	}
	if primary {
		buyer.PrimaryPurchaseCount++
		buyer.PrimaryPurchaseValue = buyer.PrimaryPurchaseValue.Add(value)
	} else {
		buyer.SecondaryPurchaseCount++
		buyer.SecondaryPurchaseValue = buyer.SecondaryPurchaseValue.Add(value)
	}
	buyer.TotalPurchaseCount = buyer.PrimaryPurchaseCount + buyer.SecondaryPurchaseCount
	buyer.TotalPurchaseValue = buyer.TotalPurchaseValue.Add(value)
	buyer.HeldTokenIDs.Add(token.ID)
	if err := e.store.SaveCollector(ctx, buyer); err != nil {
		return err
	}

	if sellerAddr != "" && !domain.IsBurnAddress(sellerAddr) && !primary {
		seller, err := e.loadCollector(ctx, sellerAddr, event.BlockTimestamp)
		if err != nil {
			return err
		}
		seller.SaleCount++
		seller.SaleValue = seller.SaleValue.Add(value)
		seller.HeldTokenIDs.Remove(token.ID)
		if err := e.store.SaveCollector(ctx, seller); err != nil {
			return err
		}
	}

	if err := e.recordSale(ctx, event.BlockTimestamp, value, !primary); err != nil {
		return err
	}
	return e.recordArtistSale(ctx, edition.ArtistAccount, value)
}

// handlePurchase processes primary and secondary purchase events
func (e *Engine) handlePurchase(ctx context.Context, event *domain.Event, primary bool) error {
	editionNumber := event.Sale.EditionNumber
	if editionNumber == "" {
		editionNumber = domain.EditionNumberForToken(event.Sale.TokenNumber)
	}

	edition, _, err := e.resolveEdition(ctx, event, editionNumber)
	if err != nil {
		return err
	}
	token, _, err := e.resolveToken(ctx, event, edition, event.Sale.TokenNumber)
	if err != nil {
		return err
	}

	buyer := domain.NormalizeAddress(event.Sale.Buyer)
	seller := ""
	if !primary && token.CurrentOwner != nil {
		seller = *token.CurrentOwner
	}

	_, value := e.salePrice(ctx, event, event.Sale.PriceWei, buyer, seller)

	if err := e.applyPurchase(ctx, event, edition, token, buyer, seller, value, primary); err != nil {
		return err
	}

	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	platformFee, creatorShare, err := e.commissionFor(ctx, value, primary)
	if err != nil {
		return err
	}
	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, schema.ActivityPurchase, activityRecord{
		buyer:        buyer,
		seller:       seller,
		value:        value,
		platformFee:  platformFee,
		creatorShare: creatorShare,
	})
}

// handleSteppedSalePurchase processes a purchase from a stepped primary sale.
// The paid price becomes the edition's new price floor for the next step.
func (e *Engine) handleSteppedSalePurchase(ctx context.Context, event *domain.Event) error {
	editionNumber := event.Sale.EditionNumber
	if editionNumber == "" {
		editionNumber = domain.EditionNumberForToken(event.Sale.TokenNumber)
	}

	edition, _, err := e.resolveEdition(ctx, event, editionNumber)
	if err != nil {
		return err
	}
	edition.SaleType = domain.SaleTypeSteppedSale

	token, _, err := e.resolveToken(ctx, event, edition, event.Sale.TokenNumber)
	if err != nil {
		return err
	}

	buyer := domain.NormalizeAddress(event.Sale.Buyer)
	priceWei, value := e.salePrice(ctx, event, event.Sale.PriceWei, buyer, "")

	if value.IsPositive() {
		edition.PriceInWei = priceWei
		edition.PriceInEth = value
	}

	if err := e.applyPurchase(ctx, event, edition, token, buyer, "", value, true); err != nil {
		return err
	}

	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	platformFee, creatorShare, err := e.commissionFor(ctx, value, true)
	if err != nil {
		return err
	}
	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, schema.ActivityPurchase, activityRecord{
		buyer:        buyer,
		value:        value,
		platformFee:  platformFee,
		creatorShare: creatorShare,
	})
}

// handleTokenListed records a secondary-market listing on a token
func (e *Engine) handleTokenListed(ctx context.Context, event *domain.Event) error {
	token, err := e.requireToken(ctx, event.Version, event.ContractAddress, event.Listing.TokenNumber)
	if err != nil {
		return err
	}

	lister := domain.NormalizeAddress(event.Listing.Seller)
	listedAt := event.BlockTimestamp
	price := event.Listing.PriceWei
	token.ListingPriceInWei = &price
	token.Lister = &lister
	token.ListedAt = &listedAt

	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, schema.ActivityTokenListed, activityRecord{
		seller: lister,
		value:  WeiStringToEth(price),
	})
}

// handleTokenDelisted removes the ephemeral listing record from a token
func (e *Engine) handleTokenDelisted(ctx context.Context, event *domain.Event) error {
	token, err := e.requireToken(ctx, event.Version, event.ContractAddress, event.Listing.TokenNumber)
	if err != nil {
		return err
	}

	token.ListingPriceInWei = nil
	token.Lister = nil
	token.ListedAt = nil

	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, schema.ActivityTokenDelisted, activityRecord{})
}

// handleEditionCreated processes an edition-created event
func (e *Engine) handleEditionCreated(ctx context.Context, event *domain.Event) error {
	edition, created, err := e.resolveEdition(ctx, event, event.Edition.EditionNumber)
	if err != nil {
		return err
	}

	// Some generations emit the token URI in the event itself; prefer it
	// when the contract read left the field blank
	if edition.TokenURI == "" && event.Edition.TokenURI != "" {
		edition.TokenURI = event.Edition.TokenURI
		e.populateMetadata(ctx, edition)
		if err := e.store.SaveEdition(ctx, edition); err != nil {
			return err
		}
	}

	if created {
		if err := e.recordEditionCreated(ctx, event.BlockTimestamp); err != nil {
			return err
		}
		if event.Version == domain.VersionFour {
			if err := e.countCreatorContractEdition(ctx, event.ContractAddress); err != nil {
				return err
			}
		}
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityEditionCreated, activityRecord{
		value: edition.PriceInEth,
	})
}

// handleEditionPriceChanged processes a primary price change
func (e *Engine) handleEditionPriceChanged(ctx context.Context, event *domain.Event) error {
	edition, err := e.requireEdition(ctx, event.Version, event.ContractAddress, event.Edition.EditionNumber)
	if err != nil {
		return err
	}

	edition.PriceInWei = event.Edition.PriceWei
	edition.PriceInEth = WeiStringToEth(event.Edition.PriceWei)

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityPriceChanged, activityRecord{
		value: edition.PriceInEth,
	})
}

// handleEditionSalesDisabled deactivates an edition without deleting it
func (e *Engine) handleEditionSalesDisabled(ctx context.Context, event *domain.Event) error {
	edition, err := e.requireEdition(ctx, event.Version, event.ContractAddress, event.Edition.EditionNumber)
	if err != nil {
		return err
	}

	edition.Active = false

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityContractEvent, activityRecord{})
}
