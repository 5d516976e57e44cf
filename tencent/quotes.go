package tencent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/wenqin/folio"
)

// Realtime quote payloads are `~`-separated records. These are the field
// positions the endpoint has used for years.
const (
	fieldName          = 1
	fieldCurrent       = 3
	fieldPrevClose     = 4
	fieldOpen          = 5
	fieldVolume        = 6
	fieldChangeAmount  = 31
	fieldChangePercent = 32
	fieldHigh          = 33
	fieldLow           = 34
)

// usIndexSymbols are US symbols quoted without the .OQ exchange suffix.
var usIndexSymbols = map[string]bool{"DJI": true, "IXIC": true, "INX": true}

// requestCode maps an asset code to the code the quote endpoint expects.
// US equities carry an .OQ suffix, indexes and already-suffixed codes do
// not.
func requestCode(code string) string {
	if folio.MarketOf(code) != folio.MarketUS {
		return code
	}
	symbol := folio.Symbol(code)
	if usIndexSymbols[symbol] || strings.Contains(symbol, ".") {
		return code
	}
	return code + ".OQ"
}

// Quotes fetches realtime quotes for the given asset codes in one batched
// request. Codes the endpoint does not answer for are absent from the
// result.
func (c *Client) Quotes(codes []string) (map[string]folio.Quote, error) {
	if len(codes) == 0 {
		return map[string]folio.Quote{}, nil
	}

	wire := make([]string, len(codes))
	byWire := make(map[string]string, len(codes))
	for i, code := range codes {
		wire[i] = requestCode(code)
		byWire[wire[i]] = code
	}

	body, err := c.get(context.Background(), c.quoteHTTP, c.quoteURL+strings.Join(wire, ","))
	if err != nil {
		return nil, fmt.Errorf("fetching quotes: %w", err)
	}

	// The payload is GBK-encoded text.
	decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("decoding quote payload: %w", err)
	}

	quotes := make(map[string]folio.Quote)
	for _, line := range strings.Split(string(decoded), ";") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "v_") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := line[2:eq]
		value := strings.Trim(line[eq+1:], `"`)
		fields := strings.Split(value, "~")
		if len(fields) <= fieldLow {
			log.Warn().Str("code", key).Int("fields", len(fields)).Msg("short quote record, skipping")
			continue
		}
		code, ok := byWire[key]
		if !ok {
			continue
		}
		quotes[code] = folio.Quote{
			Code:          code,
			Name:          fields[fieldName],
			Current:       parseField(fields[fieldCurrent]),
			PrevClose:     parseField(fields[fieldPrevClose]),
			Open:          parseField(fields[fieldOpen]),
			Volume:        parseField(fields[fieldVolume]),
			ChangeAmount:  parseField(fields[fieldChangeAmount]),
			ChangePercent: parseField(fields[fieldChangePercent]),
			High:          parseField(fields[fieldHigh]),
			Low:           parseField(fields[fieldLow]),
		}
	}
	return quotes, nil
}

func parseField(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ folio.QuoteSource = (*Client)(nil)
