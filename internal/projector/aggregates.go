package projector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprint/marketplace-indexer/internal/store/schema"
)

// loadDayAggregate returns the bucket for a calendar day, creating it lazily
func (e *Engine) loadDayAggregate(ctx context.Context, ts time.Time) (*schema.DayAggregate, error) {
	date := ts.UTC().Format("2006-01-02")
	day, err := e.store.GetDayAggregate(ctx, date)
	if err != nil {
		return nil, err
	}
	if day != nil {
		return day, nil
	}
	return &schema.DayAggregate{Date: date}, nil
}

// loadMonthAggregate returns the bucket for a calendar month, creating it
// lazily
func (e *Engine) loadMonthAggregate(ctx context.Context, ts time.Time) (*schema.MonthAggregate, error) {
	month := ts.UTC().Format("2006-01")
	bucket, err := e.store.GetMonthAggregate(ctx, month)
	if err != nil {
		return nil, err
	}
	if bucket != nil {
		return bucket, nil
	}
	return &schema.MonthAggregate{Month: month}, nil
}

// updateCalendarBuckets applies one monotonic delta to the day and month
// buckets for a timestamp
func (e *Engine) updateCalendarBuckets(ctx context.Context, ts time.Time, apply func(day *schema.DayAggregate, month *schema.MonthAggregate)) error {
	day, err := e.loadDayAggregate(ctx, ts)
	if err != nil {
		return err
	}
	month, err := e.loadMonthAggregate(ctx, ts)
	if err != nil {
		return err
	}

	apply(day, month)

	if err := e.store.SaveDayAggregate(ctx, day); err != nil {
		return err
	}
	return e.store.SaveMonthAggregate(ctx, month)
}

// recordTransfer counts one transfer in the calendar buckets
func (e *Engine) recordTransfer(ctx context.Context, ts time.Time) error {
	return e.updateCalendarBuckets(ctx, ts, func(day *schema.DayAggregate, month *schema.MonthAggregate) {
		day.TransferCount++
		month.TransferCount++
	})
}

// recordMint counts one minted token in the calendar buckets
func (e *Engine) recordMint(ctx context.Context, ts time.Time) error {
	return e.updateCalendarBuckets(ctx, ts, func(day *schema.DayAggregate, month *schema.MonthAggregate) {
		day.TokensMinted++
		month.TokensMinted++
	})
}

// recordEditionCreated counts one new edition in the calendar buckets
func (e *Engine) recordEditionCreated(ctx context.Context, ts time.Time) error {
	return e.updateCalendarBuckets(ctx, ts, func(day *schema.DayAggregate, month *schema.MonthAggregate) {
		day.EditionsCreated++
		month.EditionsCreated++
	})
}

// recordBidPlaced counts one placed bid in the day bucket
func (e *Engine) recordBidPlaced(ctx context.Context, ts time.Time) error {
	day, err := e.loadDayAggregate(ctx, ts)
	if err != nil {
		return err
	}
	day.BidsPlacedCount++
	return e.store.SaveDayAggregate(ctx, day)
}

// recordBidAccepted counts one accepted bid in the day bucket
func (e *Engine) recordBidAccepted(ctx context.Context, ts time.Time) error {
	day, err := e.loadDayAggregate(ctx, ts)
	if err != nil {
		return err
	}
	day.BidsAcceptedCount++
	return e.store.SaveDayAggregate(ctx, day)
}

// recordSale applies one sale to the calendar buckets. Extrema move only on
// strict increase; zero-value sales are counted but excluded from value
// totals.
func (e *Engine) recordSale(ctx context.Context, ts time.Time, value decimal.Decimal, secondary bool) error {
	return e.updateCalendarBuckets(ctx, ts, func(day *schema.DayAggregate, month *schema.MonthAggregate) {
		day.SalesCount++
		month.SalesCount++
		if value.IsPositive() {
			day.TotalValueInEth = day.TotalValueInEth.Add(value)
			month.TotalValueInEth = month.TotalValueInEth.Add(value)
			if value.GreaterThan(day.HighestSaleValueInEth) {
				day.HighestSaleValueInEth = value
			}
			if value.GreaterThan(month.HighestSaleValueInEth) {
				month.HighestSaleValueInEth = value
			}
			if secondary {
				day.SecondarySalesValue = day.SecondarySalesValue.Add(value)
			}
		}
	})
}

// recordArtistSale applies one sale to an artist's rollup
func (e *Engine) recordArtistSale(ctx context.Context, artistAddress string, value decimal.Decimal) error {
	if artistAddress == "" {
		return nil
	}

	artist, err := e.loadArtistAggregate(ctx, artistAddress)
	if err != nil {
		return err
	}

	artist.SalesCount++
	if value.IsPositive() {
		artist.TotalValueInEth = artist.TotalValueInEth.Add(value)
		if value.GreaterThan(artist.HighestSaleValueInEth) {
			artist.HighestSaleValueInEth = value
		}
	}
	return e.store.SaveArtistAggregate(ctx, artist)
}
