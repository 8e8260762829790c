package projector

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

const (
	// reserveCountdownDuration is the end-of-auction countdown started when
	// a bid first crosses the reserve price
	reserveCountdownDuration = 24 * time.Hour
	// reserveSuddenDeathWindow is the final stretch of the countdown; a bid
	// landing inside it extends the countdown instead of restarting it
	reserveSuddenDeathWindow = 15 * time.Minute
)

// crossesReserve reports whether a bid amount meets the reserve price. An
// unknown reserve never counts as crossed.
func crossesReserve(amountWei string, reserveWei *string) bool {
	if reserveWei == nil {
		return false
	}
	amount, ok := new(big.Int).SetString(amountWei, 10)
	if !ok {
		return false
	}
	reserve, ok := new(big.Int).SetString(*reserveWei, 10)
	if !ok {
		return false
	}
	return amount.Cmp(reserve) >= 0
}

// handleReserveAuctionListed puts an edition up for reserve auction
func (e *Engine) handleReserveAuctionListed(ctx context.Context, event *domain.Event) error {
	edition, _, err := e.resolveEdition(ctx, event, event.Auction.EditionNumber)
	if err != nil {
		return err
	}

	seller := domain.NormalizeAddress(event.Auction.Seller)
	reserve := event.Auction.ReservePriceWei

	edition.SaleType = domain.SaleTypeReserveAuction
	edition.ReservePriceInWei = &reserve
	edition.ReserveAuctionSeller = &seller
	edition.ReserveAuctionBidWei = nil
	edition.ReserveAuctionEnds = nil

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityAuctionListed, activityRecord{
		seller: seller,
		value:  WeiStringToEth(reserve),
	})
}

// handleReserveBidPlaced processes a bid on a running reserve auction. The
// first bid to cross the reserve starts the end-of-auction countdown; a later
// crossing bid before expiry restarts it, unless it lands inside the final
// window, in which case the countdown extends ("sudden death") and the
// extension is recorded.
func (e *Engine) handleReserveBidPlaced(ctx context.Context, event *domain.Event) error {
	edition, err := e.requireEdition(ctx, event.Version, event.ContractAddress, event.Auction.EditionNumber)
	if err != nil {
		return err
	}

	amount := event.Auction.AmountWei
	ts := event.BlockTimestamp

	edition.ReserveAuctionBidWei = &amount
	if crossesReserve(amount, edition.ReservePriceInWei) {
		switch {
		case edition.ReserveAuctionEnds == nil:
			ends := ts.Add(reserveCountdownDuration)
			edition.ReserveAuctionEnds = &ends
		case ts.Before(*edition.ReserveAuctionEnds):
			old := *edition.ReserveAuctionEnds
			if old.Sub(ts) <= reserveSuddenDeathWindow {
				ends := ts.Add(reserveSuddenDeathWindow)
				edition.ReserveExtensionCount++
				edition.ReserveExtensionSeconds += int64(ends.Sub(old).Seconds())
				edition.ReserveAuctionEnds = &ends
			} else {
				ends := ts.Add(reserveCountdownDuration)
				edition.ReserveAuctionEnds = &ends
			}
		}
	}

	target := &bidTarget{targetType: schema.OfferTargetEdition, edition: edition}
	offer, err := e.placeOffer(ctx, event, target, event.Auction.Bidder, amount)
	if err != nil {
		return err
	}

	if err := e.recordBidPlaced(ctx, ts); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityBidPlaced, activityRecord{
		buyer: offer.Bidder,
		value: offer.EthValue,
	})
}

// handleReserveBidWithdrawn removes the standing auction bid. With no bid
// left the countdown stops; it starts afresh when the reserve is next
// crossed.
func (e *Engine) handleReserveBidWithdrawn(ctx context.Context, event *domain.Event) error {
	edition, err := e.requireEdition(ctx, event.Version, event.ContractAddress, event.Auction.EditionNumber)
	if err != nil {
		return err
	}

	prior, err := e.deactivateActiveOffer(ctx, schema.OfferTargetEdition, edition.ID)
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("%w: no standing auction bid on %s to withdraw", domain.ErrMissingEntity, edition.ID)
	}

	edition.ActiveBidID = nil
	edition.BidHistory = append(edition.BidHistory, prior.ID)
	edition.ReserveAuctionBidWei = nil
	edition.ReserveAuctionEnds = nil

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityBidWithdrawn, activityRecord{
		buyer: prior.Bidder,
		value: prior.EthValue,
	})
}

// handleReserveAuctionResulted settles a concluded auction: the standing bid
// becomes a primary sale and the auction sub-state clears. The extension
// counters are historical and survive settlement. The result event delivers
// no token id, so token-level sale metrics are recorded when the subsequent
// transfer mints the token.
func (e *Engine) handleReserveAuctionResulted(ctx context.Context, event *domain.Event) error {
	edition, err := e.requireEdition(ctx, event.Version, event.ContractAddress, event.Auction.EditionNumber)
	if err != nil {
		return err
	}

	prior, err := e.deactivateActiveOffer(ctx, schema.OfferTargetEdition, edition.ID)
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("%w: no standing auction bid on %s to result", domain.ErrMissingEntity, edition.ID)
	}

	buyer := prior.Bidder
	if buyer == "" {
		buyer = domain.NormalizeAddress(event.Auction.Bidder)
	}
	seller := ""
	if edition.ReserveAuctionSeller != nil {
		seller = *edition.ReserveAuctionSeller
	} else if event.Auction.Seller != "" {
		seller = domain.NormalizeAddress(event.Auction.Seller)
	}
	value := prior.EthValue

	edition.ActiveBidID = nil
	edition.BidHistory = append(edition.BidHistory, prior.ID)
	edition.TotalSold++
	edition.ReservePriceInWei = nil
	edition.ReserveAuctionSeller = nil
	edition.ReserveAuctionBidWei = nil
	edition.ReserveAuctionEnds = nil

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	collector, err := e.loadCollector(ctx, buyer, event.BlockTimestamp)
	if err != nil {
		return err
	}
	collector.PrimaryPurchaseCount++
	collector.PrimaryPurchaseValue = collector.PrimaryPurchaseValue.Add(value)
	collector.TotalPurchaseCount = collector.PrimaryPurchaseCount + collector.SecondaryPurchaseCount
	collector.TotalPurchaseValue = collector.TotalPurchaseValue.Add(value)
	if err := e.store.SaveCollector(ctx, collector); err != nil {
		return err
	}

	if err := e.recordSale(ctx, event.BlockTimestamp, value, false); err != nil {
		return err
	}
	if err := e.recordArtistSale(ctx, edition.ArtistAccount, value); err != nil {
		return err
	}
	if err := e.recordBidAccepted(ctx, event.BlockTimestamp); err != nil {
		return err
	}

	if err := e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityAuctionResulted, activityRecord{
		buyer:  buyer,
		seller: seller,
		value:  value,
	}); err != nil {
		return err
	}

	platformFee, creatorShare, err := e.commissionFor(ctx, value, true)
	if err != nil {
		return err
	}
	return e.appendActivity(ctx, event, schema.EntityKindEdition, edition.ID, schema.ActivityPurchase, activityRecord{
		buyer:        buyer,
		seller:       seller,
		value:        value,
		platformFee:  platformFee,
		creatorShare: creatorShare,
	})
}
