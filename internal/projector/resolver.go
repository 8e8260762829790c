package projector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// resolveEdition returns the edition for an event, creating it on first
// sighting. Creation populates immutable fields from the contract read when
// available; a reverted read degrades to defaults. The created edition is
// persisted immediately so repeated resolution never re-queries the chain.
func (e *Engine) resolveEdition(ctx context.Context, event *domain.Event, editionNumber string) (*schema.Edition, bool, error) {
	id := domain.EditionID(event.Version, event.ContractAddress, editionNumber)

	edition, err := e.store.GetEdition(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if edition != nil {
		return edition, false, nil
	}

	edition = &schema.Edition{
		ID:              id,
		Version:         event.Version,
		EditionNumber:   editionNumber,
		ContractAddress: domain.NormalizeAddress(event.ContractAddress),
		SaleType:        domain.SaleTypeBuyNow,
		Active:          true,
		TokenIDs:        schema.StringList{},
		AllOwners:       schema.AddressSet{},
		CurrentOwners:   schema.AddressSet{},
		BidHistory:      schema.StringList{},
		MetadataTags:    schema.StringList{},
		CreatedAt:       event.BlockTimestamp,
	}

	e.populateFromChain(ctx, event, edition)
	e.populateMetadata(ctx, edition)

	if err := e.registerArtistEdition(ctx, event, edition); err != nil {
		return nil, false, err
	}

	if err := e.store.SaveEdition(ctx, edition); err != nil {
		return nil, false, err
	}
	return edition, true, nil
}

// populateFromChain fills immutable-at-creation fields from the contract
// read. Failures leave defaults in place; OnChainResolved stays false so a
// later sighting may retry.
func (e *Engine) populateFromChain(ctx context.Context, event *domain.Event, edition *schema.Edition) {
	if e.reader == nil || edition.OnChainResolved {
		return
	}

	details, err := e.reader.EditionDetails(ctx, event.ContractAddress, edition.EditionNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRevertedRead) {
			logger.WarnCtx(ctx, "edition details read reverted, using defaults",
				zap.String("edition_id", edition.ID), zap.Error(err))
		} else {
			logger.ErrorCtx(ctx, err, zap.String("edition_id", edition.ID))
		}
		return
	}

	edition.ArtistAccount = domain.CanonicalArtistAddress(details.ArtistAccount)
	edition.CommissionRate = details.ArtistCommission.Int64()
	edition.PriceInWei = details.PriceInWei.String()
	edition.PriceInEth = WeiToEth(details.PriceInWei)
	edition.OriginalSize = int64(details.TotalAvailable)
	edition.TotalAvailable = int64(details.TotalAvailable)
	edition.RemainingSupply = int64(details.TotalAvailable)
	edition.TokenURI = details.TokenURI
	edition.Active = details.Active
	edition.OnChainResolved = true
}

// populateMetadata attempts metadata resolution exactly once per edition.
// Unavailable content leaves the descriptive fields blank.
func (e *Engine) populateMetadata(ctx context.Context, edition *schema.Edition) {
	if e.metadata == nil || edition.MetadataResolved || edition.TokenURI == "" {
		return
	}
	edition.MetadataResolved = true

	meta, err := e.metadata.Resolve(ctx, edition.TokenURI, edition.EditionNumber)
	if err != nil {
		logger.WarnCtx(ctx, "metadata resolution failed, leaving fields blank",
			zap.String("edition_id", edition.ID), zap.Error(err))
		return
	}

	edition.MetadataName = meta.Name
	edition.MetadataDescription = meta.Description
	edition.MetadataImage = meta.Image
	edition.MetadataTags = schema.StringList(meta.Tags)
}

// populateTokenMetadata attempts metadata resolution exactly once per token,
// fetching the tokenURI from the contract first. A reverted read or
// unavailable content leaves the descriptive fields blank.
func (e *Engine) populateTokenMetadata(ctx context.Context, token *schema.Token) {
	if e.reader == nil || e.metadata == nil || token.MetadataResolved {
		return
	}
	token.MetadataResolved = true

	uri, err := e.reader.TokenURI(ctx, token.ContractAddress, token.TokenNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRevertedRead) {
			logger.WarnCtx(ctx, "tokenURI read reverted, leaving metadata blank",
				zap.String("token_id", token.ID), zap.Error(err))
		} else {
			logger.ErrorCtx(ctx, err, zap.String("token_id", token.ID))
		}
		return
	}
	if uri == "" {
		return
	}
	token.TokenURI = uri

	meta, err := e.metadata.Resolve(ctx, uri, token.TokenNumber)
	if err != nil {
		logger.WarnCtx(ctx, "metadata resolution failed, leaving fields blank",
			zap.String("token_id", token.ID), zap.Error(err))
		return
	}

	token.MetadataName = meta.Name
	token.MetadataDescription = meta.Description
	token.MetadataImage = meta.Image
}

// registerArtistEdition records a newly created edition against its artist's
// rollup and detects the artist's genesis edition
func (e *Engine) registerArtistEdition(ctx context.Context, event *domain.Event, edition *schema.Edition) error {
	if edition.ArtistAccount == "" {
		return nil
	}

	artist, err := e.loadArtistAggregate(ctx, edition.ArtistAccount)
	if err != nil {
		return err
	}

	if artist.FirstEditionTimestamp == nil {
		ts := event.BlockTimestamp
		artist.FirstEditionTimestamp = &ts
		edition.IsGenesis = true
	}
	artist.EditionsCount++
	artist.SupplyCount += edition.OriginalSize

	return e.store.SaveArtistAggregate(ctx, artist)
}

// requireEdition loads an edition that a handler expects to already exist
func (e *Engine) requireEdition(ctx context.Context, version domain.ProtocolVersion, contractAddress, editionNumber string) (*schema.Edition, error) {
	id := domain.EditionID(version, contractAddress, editionNumber)
	edition, err := e.store.GetEdition(ctx, id)
	if err != nil {
		return nil, err
	}
	if edition == nil {
		return nil, fmt.Errorf("%w: edition %s", domain.ErrMissingEntity, id)
	}
	return edition, nil
}

// resolveToken returns the token for an event, creating it on first sighting
// with its immutable edition reference
func (e *Engine) resolveToken(ctx context.Context, event *domain.Event, edition *schema.Edition, tokenNumber string) (*schema.Token, bool, error) {
	id := domain.TokenID(event.Version, event.ContractAddress, tokenNumber)

	token, err := e.store.GetToken(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if token != nil {
		return token, false, nil
	}

	token = &schema.Token{
		ID:              id,
		Version:         event.Version,
		EditionID:       edition.ID,
		ContractAddress: domain.NormalizeAddress(event.ContractAddress),
		TokenNumber:     tokenNumber,
		AllOwners:       schema.AddressSet{},
		BidHistory:      schema.StringList{},
		CreatedAt:       event.BlockTimestamp,
	}

	e.populateTokenMetadata(ctx, token)

	if err := e.store.SaveToken(ctx, token); err != nil {
		return nil, false, err
	}
	return token, true, nil
}

// requireToken loads a token that a handler expects to already exist
func (e *Engine) requireToken(ctx context.Context, version domain.ProtocolVersion, contractAddress, tokenNumber string) (*schema.Token, error) {
	id := domain.TokenID(version, contractAddress, tokenNumber)
	token, err := e.store.GetToken(ctx, id)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: token %s", domain.ErrMissingEntity, id)
	}
	return token, nil
}

// loadCollector returns the rollup for an address, creating it lazily
func (e *Engine) loadCollector(ctx context.Context, address string, firstSeen time.Time) (*schema.Collector, error) {
	normalized := domain.NormalizeAddress(address)
	collector, err := e.store.GetCollector(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if collector != nil {
		return collector, nil
	}
	return &schema.Collector{
		Address:      normalized,
		HeldTokenIDs: schema.AddressSet{},
		FirstSeenAt:  firstSeen,
	}, nil
}

// loadArtistAggregate returns the rollup for an artist, creating it lazily
func (e *Engine) loadArtistAggregate(ctx context.Context, address string) (*schema.ArtistAggregate, error) {
	artist, err := e.store.GetArtistAggregate(ctx, address)
	if err != nil {
		return nil, err
	}
	if artist != nil {
		return artist, nil
	}
	return &schema.ArtistAggregate{Address: address}, nil
}
