package projector

import (
	"context"
	"fmt"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// bidTarget is the edition or token an offer event acts on. Exactly one of
// edition/token is set.
type bidTarget struct {
	targetType schema.OfferTargetType
	edition    *schema.Edition
	token      *schema.Token
}

func (t *bidTarget) id() string {
	if t.targetType == schema.OfferTargetEdition {
		return t.edition.ID
	}
	return t.token.ID
}

func (t *bidTarget) entityKind() schema.EntityKind {
	if t.targetType == schema.OfferTargetEdition {
		return schema.EntityKindEdition
	}
	return schema.EntityKindToken
}

// appendHistory appends one bidding-history entry. History is ordered and
// never deduplicated; repeated ids mark repeated transitions on one offer.
func (t *bidTarget) appendHistory(offerID string) {
	if t.targetType == schema.OfferTargetEdition {
		t.edition.BidHistory = append(t.edition.BidHistory, offerID)
	} else {
		t.token.BidHistory = append(t.token.BidHistory, offerID)
	}
}

// setActive updates the active-offer pointer on the target
func (t *bidTarget) setActive(offerID *string) {
	if t.targetType == schema.OfferTargetEdition {
		t.edition.ActiveBidID = offerID
	} else {
		t.token.OpenOfferID = offerID
	}
}

// resolveBidTarget loads the target of a bid event. Edition targets are
// created on first sighting; token targets must already exist.
func (e *Engine) resolveBidTarget(ctx context.Context, event *domain.Event) (*bidTarget, error) {
	if event.Bid.EditionNumber != "" {
		edition, _, err := e.resolveEdition(ctx, event, event.Bid.EditionNumber)
		if err != nil {
			return nil, err
		}
		return &bidTarget{targetType: schema.OfferTargetEdition, edition: edition}, nil
	}

	token, err := e.requireToken(ctx, event.Version, event.ContractAddress, event.Bid.TokenNumber)
	if err != nil {
		return nil, err
	}
	return &bidTarget{targetType: schema.OfferTargetToken, token: token}, nil
}

// saveBidTarget persists whichever entity the target wraps
func (e *Engine) saveBidTarget(ctx context.Context, t *bidTarget) error {
	if t.targetType == schema.OfferTargetEdition {
		return e.store.SaveEdition(ctx, t.edition)
	}
	return e.store.SaveToken(ctx, t.token)
}

// deactivateActiveOffer clears the single active offer on a target, if any,
// and returns it. The prior offer is never left dangling as active.
func (e *Engine) deactivateActiveOffer(ctx context.Context, targetType schema.OfferTargetType, targetID string) (*schema.Offer, error) {
	prior, err := e.store.GetActiveOffer(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, nil
	}

	prior.IsActive = false
	if err := e.store.SaveOffer(ctx, prior); err != nil {
		return nil, err
	}
	return prior, nil
}

// newOffer builds an active offer record for a bid event
func newOffer(event *domain.Event, targetType schema.OfferTargetType, targetID string, bidder string, amountWei string) *schema.Offer {
	return &schema.Offer{
		ID:         domain.OfferID(targetID, event.TxHash, event.LogIndex),
		Version:    event.Version,
		TargetType: targetType,
		TargetID:   targetID,
		Bidder:     domain.NormalizeAddress(bidder),
		WeiValue:   amountWei,
		EthValue:   WeiStringToEth(amountWei),
		Timestamp:  event.BlockTimestamp,
		IsActive:   true,
	}
}

// placeOffer runs the shared placed/increased transition: deactivate any
// prior active offer, create the new offer record, update the active pointer
// and append to the bidding history
func (e *Engine) placeOffer(ctx context.Context, event *domain.Event, target *bidTarget, bidder string, amountWei string) (*schema.Offer, error) {
	if _, err := e.deactivateActiveOffer(ctx, target.targetType, target.id()); err != nil {
		return nil, err
	}

	offer := newOffer(event, target.targetType, target.id(), bidder, amountWei)
	if err := e.store.SaveOffer(ctx, offer); err != nil {
		return nil, err
	}

	target.setActive(&offer.ID)
	target.appendHistory(offer.ID)
	if err := e.saveBidTarget(ctx, target); err != nil {
		return nil, err
	}
	return offer, nil
}

// handleBidPlaced processes a new offer on an edition or token
func (e *Engine) handleBidPlaced(ctx context.Context, event *domain.Event) error {
	target, err := e.resolveBidTarget(ctx, event)
	if err != nil {
		return err
	}

	offer, err := e.placeOffer(ctx, event, target, event.Bid.Bidder, event.Bid.AmountWei)
	if err != nil {
		return err
	}

	if err := e.recordBidPlaced(ctx, event.BlockTimestamp); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, target.entityKind(), target.id(), schema.ActivityBidPlaced, activityRecord{
		buyer: offer.Bidder,
		value: offer.EthValue,
	})
}

// handleBidIncreased raises the active offer's amount. The protocol
// guarantees the same bidder; the engine does not enforce it.
func (e *Engine) handleBidIncreased(ctx context.Context, event *domain.Event) error {
	target, err := e.resolveBidTarget(ctx, event)
	if err != nil {
		return err
	}

	prior, err := e.store.GetActiveOffer(ctx, target.targetType, target.id())
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("%w: no active offer on %s to increase", domain.ErrMissingEntity, target.id())
	}

	bidder := event.Bid.Bidder
	if bidder == "" {
		bidder = prior.Bidder
	}

	offer, err := e.placeOffer(ctx, event, target, bidder, event.Bid.AmountWei)
	if err != nil {
		return err
	}

	return e.appendActivity(ctx, event, target.entityKind(), target.id(), schema.ActivityBidIncreased, activityRecord{
		buyer: offer.Bidder,
		value: offer.EthValue,
	})
}

// handleBidClosed processes withdrawal and rejection: the active offer
// deactivates and the target returns to having no active offer
func (e *Engine) handleBidClosed(ctx context.Context, event *domain.Event, activityType schema.ActivityType) error {
	target, err := e.resolveBidTarget(ctx, event)
	if err != nil {
		return err
	}

	prior, err := e.deactivateActiveOffer(ctx, target.targetType, target.id())
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("%w: no active offer on %s to close", domain.ErrMissingEntity, target.id())
	}

	target.setActive(nil)
	target.appendHistory(prior.ID)
	if err := e.saveBidTarget(ctx, target); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, target.entityKind(), target.id(), activityType, activityRecord{
		buyer: prior.Bidder,
		value: prior.EthValue,
	})
}

// handleBidAccepted closes the active offer and runs the compound purchase:
// ownership metrics, collector rollups and exactly one purchase activity row
// in addition to the acceptance row
func (e *Engine) handleBidAccepted(ctx context.Context, event *domain.Event) error {
	target, err := e.resolveBidTarget(ctx, event)
	if err != nil {
		return err
	}

	prior, err := e.deactivateActiveOffer(ctx, target.targetType, target.id())
	if err != nil {
		return err
	}
	if prior == nil {
		return fmt.Errorf("%w: no active offer on %s to accept", domain.ErrMissingEntity, target.id())
	}

	target.setActive(nil)
	target.appendHistory(prior.ID)

	// Acceptance on an edition is a primary sale delivering a named token;
	// acceptance on a token is a secondary sale by its current owner
	primary := target.targetType == schema.OfferTargetEdition

	var edition *schema.Edition
	var token *schema.Token
	if primary {
		edition = target.edition
		tokenNumber := event.Bid.TokenNumber
		if tokenNumber == "" {
			return fmt.Errorf("%w: accepted edition bid names no token", domain.ErrMissingEntity)
		}
		token, _, err = e.resolveToken(ctx, event, edition, tokenNumber)
		if err != nil {
			return err
		}
	} else {
		token = target.token
		edition, err = e.store.GetEdition(ctx, token.EditionID)
		if err != nil {
			return err
		}
		if edition == nil {
			return fmt.Errorf("%w: edition %s for token %s", domain.ErrMissingEntity, token.EditionID, token.ID)
		}
	}

	seller := ""
	if !primary && token.CurrentOwner != nil {
		seller = *token.CurrentOwner
	}

	value := prior.EthValue
	if err := e.applyPurchase(ctx, event, edition, token, prior.Bidder, seller, value, primary); err != nil {
		return err
	}

	if err := e.store.SaveToken(ctx, token); err != nil {
		return err
	}
	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return err
	}

	if err := e.recordBidAccepted(ctx, event.BlockTimestamp); err != nil {
		return err
	}

	if err := e.appendActivity(ctx, event, target.entityKind(), target.id(), schema.ActivityBidAccepted, activityRecord{
		buyer:  prior.Bidder,
		seller: seller,
		value:  value,
	}); err != nil {
		return err
	}

	platformFee, creatorShare, err := e.commissionFor(ctx, value, primary)
	if err != nil {
		return err
	}
	return e.appendActivity(ctx, event, schema.EntityKindToken, token.ID, schema.ActivityPurchase, activityRecord{
		buyer:        prior.Bidder,
		seller:       seller,
		value:        value,
		platformFee:  platformFee,
		creatorShare: creatorShare,
	})
}
