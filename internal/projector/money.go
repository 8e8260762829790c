package projector

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// WeiToEth converts a wei amount to a decimal ETH value without rounding
// drift
func WeiToEth(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}

// WeiStringToEth converts a decimal wei string to ETH. Malformed values are
// treated as zero.
func WeiStringToEth(wei string) decimal.Decimal {
	if wei == "" {
		return decimal.Zero
	}
	n, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return decimal.Zero
	}
	return WeiToEth(n)
}

// CommissionSplit divides a sale price into the platform share and the
// creator share against a modulo-based commission rate
func CommissionSplit(price decimal.Decimal, commission int64, modulo int64) (platform decimal.Decimal, creator decimal.Decimal) {
	if modulo <= 0 {
		return decimal.Zero, price
	}
	platform = price.Mul(decimal.NewFromInt(commission)).Div(decimal.NewFromInt(modulo))
	creator = price.Sub(platform)
	return platform, creator
}

// salePrice determines the effective sale price for an event. Preference
// order: the event's own price parameter, the native transaction value, and
// finally a wrapped-asset settlement recovered from the receipt logs. A sale
// with no recoverable value is recorded at zero and excluded from value
// rollups by the callers.
func (e *Engine) salePrice(ctx context.Context, event *domain.Event, declaredWei string, buyer string, seller string) (string, decimal.Decimal) {
	if declaredWei != "" {
		if value := WeiStringToEth(declaredWei); value.IsPositive() {
			return declaredWei, value
		}
	}

	if txValue := event.TxValue(); txValue.Sign() > 0 {
		return txValue.String(), WeiToEth(txValue)
	}

	if e.scanner == nil || buyer == "" || seller == "" {
		return "0", decimal.Zero
	}

	wrapped, err := e.scanner.WrappedPaymentValue(ctx, event.TxHash, buyer, seller)
	if err != nil {
		logger.WarnCtx(ctx, "wrapped settlement scan failed",
			zap.Error(err), zap.String("tx_hash", event.TxHash))
		return "0", decimal.Zero
	}
	if wrapped.Sign() > 0 {
		return wrapped.String(), WeiToEth(wrapped)
	}

	return "0", decimal.Zero
}

// commissionFor computes the split for a sale against the settings snapshot
// current at processing time
func (e *Engine) commissionFor(ctx context.Context, price decimal.Decimal, primary bool) (platform decimal.Decimal, creator decimal.Decimal, err error) {
	settings, err := e.platformSettings(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	rate := settings.PrimaryCommission
	if !primary {
		rate = settings.SecondaryCommission
	}
	platform, creator = CommissionSplit(price, rate, settings.Modulo)
	return platform, creator, nil
}

// platformSettings loads the settings singleton, seeding it with defaults on
// first access
func (e *Engine) platformSettings(ctx context.Context) (*schema.PlatformSettings, error) {
	settings, err := e.store.GetPlatformSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = &schema.PlatformSettings{
		Key:                 schema.PlatformSettingsKey,
		Modulo:              domain.DefaultModulo,
		PrimaryCommission:   domain.DefaultPrimaryCommission,
		SecondaryCommission: domain.DefaultSecondaryCommission,
	}
	if err := e.store.SavePlatformSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
