package tencent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/wenqin/folio"
)

// klineWindow is how many days back CloseOn looks for the most recent
// close. Two weeks cover any run of holidays and weekends.
const klineWindow = 14

// klinePath returns the endpoint path serving forward-adjusted daily
// candles for the asset's market.
func klinePath(code string) (string, error) {
	switch folio.MarketOf(code) {
	case folio.MarketCN:
		return "/fqkline/get", nil
	case folio.MarketHK:
		return "/hkfqkline/get", nil
	case folio.MarketUS:
		return "/usfqkline/get", nil
	default:
		return "", fmt.Errorf("no kline endpoint for %q: %w", code, folio.ErrDataUnavailable)
	}
}

// Candle is one daily bar.
type Candle struct {
	Date   folio.Date
	Open   decimal.Decimal
	Close  decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// Kline fetches the daily candles for code between start and end,
// inclusive, oldest first.
func (c *Client) Kline(ctx context.Context, code string, start, end folio.Date) ([]Candle, error) {
	path, err := klinePath(code)
	if err != nil {
		return nil, err
	}
	wire := requestCode(code)
	addr := fmt.Sprintf("%s%s?param=%s,day,%s,%s,400,qfq", c.klineURL, path, wire, start, end)

	body, err := c.get(ctx, c.klineHTTP, addr)
	if err != nil {
		return nil, fmt.Errorf("fetching kline for %q: %w", code, err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding kline for %q: %w", code, err)
	}

	// Adjusted candles live under qfqday; thinly traded assets only have
	// the raw day series.
	points, err := jsonpath.Get(fmt.Sprintf("$.data[%q].qfqday", wire), doc)
	if err != nil || points == nil {
		points, err = jsonpath.Get(fmt.Sprintf("$.data[%q].day", wire), doc)
	}
	if err != nil || points == nil {
		return nil, fmt.Errorf("no kline series for %q: %w", code, folio.ErrDataUnavailable)
	}
	rows, ok := points.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected kline shape for %q: %w", code, folio.ErrDataUnavailable)
	}

	candles := make([]Candle, 0, len(rows))
	for _, raw := range rows {
		// A bar is [date, open, close, high, low, volume, ...].
		row, ok := raw.([]any)
		if !ok || len(row) < 6 {
			continue
		}
		day, err := folio.ParseDate(fmt.Sprint(row[0]))
		if err != nil {
			continue
		}
		candles = append(candles, Candle{
			Date:   day,
			Open:   parseField(fmt.Sprint(row[1])),
			Close:  parseField(fmt.Sprint(row[2])),
			High:   parseField(fmt.Sprint(row[3])),
			Low:    parseField(fmt.Sprint(row[4])),
			Volume: parseField(fmt.Sprint(row[5])),
		})
	}
	return candles, nil
}

// CloseOn returns the closing price for code on the given day, or the most
// recent close before it when the market was shut. Prices are never
// interpolated. Results are memoized per client, since one stats
// computation prices many windows over the same days.
func (c *Client) CloseOn(ctx context.Context, code string, on folio.Date) (decimal.Decimal, error) {
	key := code + "|" + on.String()
	c.memoMu.Lock()
	if v, ok := c.memo[key]; ok {
		c.memoMu.Unlock()
		return v, nil
	}
	c.memoMu.Unlock()

	candles, err := c.Kline(ctx, code, on.Add(-klineWindow), on)
	if err != nil {
		return decimal.Zero, err
	}

	var found bool
	var close decimal.Decimal
	for _, candle := range candles {
		if candle.Date.After(on) {
			break
		}
		close = candle.Close
		found = true
	}
	if !found {
		return decimal.Zero, fmt.Errorf("no close for %q on or before %s: %w", code, on, folio.ErrDataUnavailable)
	}

	c.memoMu.Lock()
	c.memo[key] = close
	c.memoMu.Unlock()
	return close, nil
}

var _ folio.HistoricalSource = (*Client)(nil)
