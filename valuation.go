package folio

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Quote is a realtime snapshot of one asset, in its trading currency.
type Quote struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Current       decimal.Decimal `json:"current"`
	PrevClose     decimal.Decimal `json:"prevClose"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Volume        decimal.Decimal `json:"volume"`
	ChangeAmount  decimal.Decimal `json:"changeAmount"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// QuoteSource serves realtime quotes for a batch of asset codes. Codes the
// source cannot resolve are simply absent from the result.
type QuoteSource interface {
	Quotes(codes []string) (map[string]Quote, error)
}

// AttachQuotes marks positions to market. A position with a quote gets its
// market value, daily and total PnL filled in and its name refreshed from
// the exchange. A position without one keeps zero market value and nil PnL
// fields; valuation degrades, it never fails.
func AttachQuotes(positions []Position, quotes map[string]Quote) []Position {
	out := make([]Position, len(positions))
	for i, pos := range positions {
		q, ok := quotes[pos.AssetCode]
		if !ok {
			pos.MarketValue = decimal.Zero
			pos.CurrentPrice = nil
			pos.TotalPnl = nil
			pos.TotalPnlPercent = nil
			pos.DailyChange = nil
			pos.DailyChangePercent = nil
			log.Warn().Str("asset", pos.AssetCode).Msg("no quote, position valued at zero")
			out[i] = pos
			continue
		}

		if q.Name != "" {
			pos.AssetName = q.Name
		}
		price := q.Current
		mv := price.Mul(pos.Quantity)
		pnl := mv.Sub(pos.TotalCost)
		pct := decimal.Zero
		if !pos.TotalCost.IsZero() {
			pct = pnl.Div(pos.TotalCost).Mul(dec(100))
		}
		daily := q.ChangeAmount.Mul(pos.Quantity)
		dailyPct := q.ChangePercent

		pos.CurrentPrice = &price
		pos.MarketValue = mv
		pos.TotalPnl = &pnl
		pos.TotalPnlPercent = &pct
		pos.DailyChange = &daily
		pos.DailyChangePercent = &dailyPct
		out[i] = pos
	}
	return out
}
