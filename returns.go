package folio

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// HistoricalSource serves daily closing prices. CloseOn returns the close
// for the given day, or the most recent close before it when the market was
// shut that day. Prices are never interpolated.
type HistoricalSource interface {
	CloseOn(ctx context.Context, code string, on Date) (decimal.Decimal, error)
}

// FlowWeighting decides how much of a cash flow enters the denominator of
// the Modified Dietz return, as a factor in [0, 1].
type FlowWeighting interface {
	Weight(flow, start, end Date) decimal.Decimal
}

// FlatWeighting weighs every flow at one half, regardless of when it
// happened inside the window.
type FlatWeighting struct{}

func (FlatWeighting) Weight(flow, start, end Date) decimal.Decimal {
	return decimal.NewFromFloat(0.5)
}

// DayWeighting weighs a flow by the fraction of the window remaining after
// it, the textbook Modified Dietz treatment.
type DayWeighting struct{}

func (DayWeighting) Weight(flow, start, end Date) decimal.Decimal {
	total := start.DaysUntil(end)
	if total <= 0 {
		return decimal.NewFromFloat(0.5)
	}
	remaining := flow.DaysUntil(end)
	if remaining < 0 {
		remaining = 0
	}
	return dec(remaining).Div(dec(total))
}

// PeriodStats is the performance of a portfolio over one rolling window.
// All values are CNY. Return is a percentage and nil when the window has a
// zero denominator, which no formula can turn into a meaningful figure.
type PeriodStats struct {
	Period     Period           `json:"period"`
	Start      Date             `json:"start"`
	End        Date             `json:"end"`
	StartValue decimal.Decimal  `json:"startValue"`
	EndValue   decimal.Decimal  `json:"endValue"`
	CashFlow   decimal.Decimal  `json:"cashFlow"`
	Return     *decimal.Decimal `json:"returnPercent"`
}

// ReturnCalculator computes Modified Dietz returns over rolling windows.
// History prices the reconstructed positions, Rates normalizes foreign
// closes to CNY, Weighting defaults to FlatWeighting and Now to time.Now.
type ReturnCalculator struct {
	History   HistoricalSource
	Rates     Rater
	Weighting FlowWeighting
	Now       func() time.Time
}

func (c *ReturnCalculator) weighting() FlowWeighting {
	if c.Weighting == nil {
		return FlatWeighting{}
	}
	return c.Weighting
}

func (c *ReturnCalculator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// PeriodStats computes the portfolio's return over the window ending today.
// The start state is the close of the day before the window opens, and
// external flows count from the start day up to but not including the end
// day. It degrades instead of failing: an asset without price data
// contributes zero to the valuation, and a window that cannot produce a
// number yields a nil return.
func (c *ReturnCalculator) PeriodStats(ctx context.Context, p *Portfolio, txs []Transaction, period Period) PeriodStats {
	end := DateOf(c.now())
	first := end
	if len(txs) > 0 {
		first = txs[0].Day()
	}
	start := period.WindowStart(end, first)

	seed := replaySeed(p, txs)
	startValue := c.valueAt(ctx, seed, txs, start.Add(-1))
	endValue := c.valueAt(ctx, seed, txs, end)

	flow := decimal.Zero
	weighted := decimal.Zero
	w := c.weighting()
	for _, tx := range txs {
		day := tx.Day()
		if day.Before(start) || !day.Before(end) {
			continue
		}
		var f decimal.Decimal
		switch tx.Type {
		case Deposit:
			f = tx.Amount
		case Withdraw:
			f = tx.Amount.Neg()
		default:
			continue
		}
		flow = flow.Add(f)
		weighted = weighted.Add(f.Mul(w.Weight(day, start, end)))
	}

	stats := PeriodStats{
		Period:     period,
		Start:      start,
		End:        end,
		StartValue: startValue,
		EndValue:   endValue,
		CashFlow:   flow,
	}

	if startValue.IsZero() && endValue.IsZero() && flow.IsZero() {
		zero := decimal.Zero
		stats.Return = &zero
		return stats
	}
	denominator := startValue.Add(weighted)
	if isZero(denominator) {
		return stats
	}
	gain := endValue.Sub(startValue).Sub(flow)
	ret := gain.Div(denominator).Mul(dec(100))
	stats.Return = &ret
	return stats
}

// AllStats computes every rolling window in one pass over the log.
func (c *ReturnCalculator) AllStats(ctx context.Context, p *Portfolio, txs []Transaction) map[Period]PeriodStats {
	out := make(map[Period]PeriodStats, 5)
	for _, period := range []Period{Daily, Weekly, Monthly, Yearly, Total} {
		out[period] = c.PeriodStats(ctx, p, txs, period)
	}
	return out
}

// valueAt reconstructs the portfolio as of the end of day on and marks it
// to market at that day's closes: cash plus the CNY value of every open
// position. Unpriceable assets contribute zero.
func (c *ReturnCalculator) valueAt(ctx context.Context, seed *Portfolio, txs []Transaction, on Date) decimal.Decimal {
	var prefix []Transaction
	for _, tx := range txs {
		if !tx.Day().After(on) {
			prefix = append(prefix, tx)
		}
	}

	state, _, skipped := replay(seed, prefix)
	for _, s := range skipped {
		log.Warn().Str("tx", s.Tx.ID).Str("reason", s.Reason).
			Str("date", on.String()).Msg("transaction skipped during valuation replay")
	}

	value := state.Cash
	positions, _ := Reconstruct(prefix)
	for _, pos := range positions {
		close, err := c.History.CloseOn(ctx, pos.AssetCode, on)
		if err != nil {
			log.Warn().Err(err).Str("asset", pos.AssetCode).Str("date", on.String()).
				Msg("no close price, asset valued at zero")
			continue
		}
		rate := c.Rates.RateToCNY(MarketOf(pos.AssetCode).Currency())
		value = value.Add(close.Mul(pos.Quantity).Mul(rate))
	}
	return value
}
