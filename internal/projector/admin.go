package projector

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// handleSettingsUpdated applies one admin change to the settings singleton
func (e *Engine) handleSettingsUpdated(ctx context.Context, event *domain.Event) error {
	settings, err := e.platformSettings(ctx)
	if err != nil {
		return err
	}

	field := event.Settings.Field
	value := event.Settings.Value

	switch field {
	case domain.SettingsFieldModulo, domain.SettingsFieldPrimaryCommission, domain.SettingsFieldSecondaryCommission:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			logger.WarnCtx(ctx, "ignoring unparseable settings value",
				zap.String("field", string(field)), zap.String("value", value))
			return nil
		}
		switch field {
		case domain.SettingsFieldModulo:
			settings.Modulo = n
		case domain.SettingsFieldPrimaryCommission:
			settings.PrimaryCommission = n
		case domain.SettingsFieldSecondaryCommission:
			settings.SecondaryCommission = n
		}
	case domain.SettingsFieldPlatformAccount:
		settings.PlatformAccount = domain.NormalizeAddress(value)
	default:
		logger.WarnCtx(ctx, "unknown settings field", zap.String("field", string(field)))
		return nil
	}

	if err := e.store.SavePlatformSettings(ctx, settings); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindPlatform, schema.PlatformSettingsKey, schema.ActivitySettingsUpdated, activityRecord{})
}

// handleCreatorContractDeployed registers a freshly deployed V4 creator
// contract
func (e *Engine) handleCreatorContractDeployed(ctx context.Context, event *domain.Event) error {
	address := domain.NormalizeAddress(event.ContractAddress)

	contract, err := e.store.GetCreatorContract(ctx, address)
	if err != nil {
		return err
	}
	if contract == nil {
		contract = &schema.CreatorContract{
			Address:   address,
			CreatedAt: event.BlockTimestamp,
		}
	}

	contract.Deployer = domain.NormalizeAddress(event.Creator.Deployer)
	contract.Artist = domain.CanonicalArtistAddress(event.Creator.Artist)
	contract.FundsHandler = domain.NormalizeAddress(event.Creator.FundsHandler)

	if err := e.store.SaveCreatorContract(ctx, contract); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindContract, contract.Address, schema.ActivityContractEvent, activityRecord{})
}

// handleCreatorContractToggled applies pause and ban flag changes to a
// registered creator contract
func (e *Engine) handleCreatorContractToggled(ctx context.Context, event *domain.Event) error {
	address := domain.NormalizeAddress(event.ContractAddress)

	contract, err := e.store.GetCreatorContract(ctx, address)
	if err != nil {
		return err
	}
	if contract == nil {
		return fmt.Errorf("%w: creator contract %s", domain.ErrMissingEntity, address)
	}

	if event.Creator.Paused != nil {
		contract.Paused = *event.Creator.Paused
	}
	if event.Creator.Banned != nil {
		contract.Banned = *event.Creator.Banned
	}

	if err := e.store.SaveCreatorContract(ctx, contract); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindContract, contract.Address, schema.ActivityContractEvent, activityRecord{})
}

// countCreatorContractEdition increments the per-contract edition counter.
// Editions sighted on a contract with no deployment record are counted
// nowhere rather than failing the event.
func (e *Engine) countCreatorContractEdition(ctx context.Context, contractAddress string) error {
	address := domain.NormalizeAddress(contractAddress)

	contract, err := e.store.GetCreatorContract(ctx, address)
	if err != nil {
		return err
	}
	if contract == nil {
		logger.WarnCtx(ctx, "edition created on unregistered creator contract",
			zap.String("contract_address", address))
		return nil
	}

	contract.EditionsCount++
	return e.store.SaveCreatorContract(ctx, contract)
}

// handleCollectiveCreated registers a royalty-split handler. The collective
// is fully configured when explicit shares are present and sum to the
// platform modulo.
func (e *Engine) handleCollectiveCreated(ctx context.Context, event *domain.Event) error {
	settings, err := e.platformSettings(ctx)
	if err != nil {
		return err
	}

	splits := schema.Int64List(event.Collective.Splits)
	recipients := make(schema.StringList, 0, len(event.Collective.Recipients))
	for _, recipient := range event.Collective.Recipients {
		recipients = append(recipients, domain.NormalizeAddress(recipient))
	}

	collective := &schema.Collective{
		ID:              domain.NormalizeAddress(event.Collective.Handler),
		Creator:         domain.CanonicalArtistAddress(event.Collective.Creator),
		Recipients:      recipients,
		Splits:          splits,
		FullyConfigured: len(splits) > 0 && splits.Sum() == settings.Modulo,
		CreatedAt:       event.BlockTimestamp,
	}

	if err := e.store.SaveCollective(ctx, collective); err != nil {
		return err
	}

	return e.appendActivity(ctx, event, schema.EntityKindContract, collective.ID, schema.ActivityContractEvent, activityRecord{})
}
