package folio

import "github.com/shopspring/decimal"

// Position is a holding reconstructed from the transaction log. Quantity and
// CostPrice are in the asset's trading currency; valuation fields are filled
// in later by AttachQuotes and stay nil until then.
type Position struct {
	AssetCode string          `json:"assetCode"`
	AssetName string          `json:"assetName"`
	Quantity  decimal.Decimal `json:"quantity"`
	TotalCost decimal.Decimal `json:"totalCost"`
	CostPrice decimal.Decimal `json:"costPrice"`

	CurrentPrice       *decimal.Decimal `json:"currentPrice,omitempty"`
	MarketValue        decimal.Decimal  `json:"marketValue"`
	TotalPnl           *decimal.Decimal `json:"totalPnl,omitempty"`
	TotalPnlPercent    *decimal.Decimal `json:"totalPnlPercent,omitempty"`
	DailyChange        *decimal.Decimal `json:"dailyChange,omitempty"`
	DailyChangePercent *decimal.Decimal `json:"dailyChangePercent,omitempty"`
}

// Skipped tags a transaction the reconstruction could not fold cleanly,
// with the reason it was set aside. The fold continues past it.
type Skipped struct {
	Tx     Transaction `json:"tx"`
	Reason string      `json:"reason"`
}

// Reconstruct folds the trade entries of the log, in order, into open
// positions. Costs use the weighted average method: buys add quantity*price
// to the cost basis, sells remove it at the sell price. Sells beyond the
// held quantity clamp the position at zero and are reported as skipped, as
// are trades on codes without a recognized market prefix. Positions whose
// quantity reaches zero are dropped from the result.
func Reconstruct(txs []Transaction) ([]Position, []Skipped) {
	byCode := make(map[string]*Position)
	var order []string
	var skipped []Skipped

	for _, tx := range txs {
		if !tx.Type.IsTrade() {
			continue
		}
		if MarketOf(tx.AssetCode) == MarketUnknown {
			skipped = append(skipped, Skipped{Tx: tx, Reason: "unrecognized market prefix"})
			continue
		}
		pos, ok := byCode[tx.AssetCode]
		if !ok {
			pos = &Position{AssetCode: tx.AssetCode}
			byCode[tx.AssetCode] = pos
			order = append(order, tx.AssetCode)
		}
		if tx.AssetName != "" {
			pos.AssetName = tx.AssetName
		}

		switch tx.Type {
		case Buy:
			pos.Quantity = pos.Quantity.Add(tx.Quantity)
			pos.TotalCost = pos.TotalCost.Add(tx.Quantity.Mul(tx.Price))
		case Sell:
			if tx.Quantity.GreaterThan(pos.Quantity) {
				skipped = append(skipped, Skipped{Tx: tx, Reason: "sell exceeds held quantity"})
			}
			pos.Quantity = decimal.Max(decimal.Zero, pos.Quantity.Sub(tx.Quantity))
			pos.TotalCost = pos.TotalCost.Sub(tx.Quantity.Mul(tx.Price))
		}
	}

	positions := make([]Position, 0, len(order))
	for _, code := range order {
		pos := byCode[code]
		if !pos.Quantity.IsPositive() {
			continue
		}
		// The average can go negative when sells realized more than the
		// buys cost. That is a real book value, keep it.
		pos.CostPrice = pos.TotalCost.Div(pos.Quantity)
		positions = append(positions, *pos)
	}
	return positions, skipped
}
