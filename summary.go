package folio

import (
	"github.com/shopspring/decimal"
)

// Summary aggregates a valued portfolio into the headline CNY figures.
type Summary struct {
	Cash             decimal.Decimal `json:"cash"`
	TotalMarketValue decimal.Decimal `json:"totalMarketValue"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	NetAssets        decimal.Decimal `json:"netAssets"`
	DailyPnl         decimal.Decimal `json:"dailyPnl"`
	TotalPnl         decimal.Decimal `json:"totalPnl"`
	NetDeposited     decimal.Decimal `json:"netDeposited"`
	TotalCommission  decimal.Decimal `json:"totalCommission"`
	TotalDividends   decimal.Decimal `json:"totalDividends"`
	LeverageUsed     decimal.Decimal `json:"leverageUsed"`
	LeverageTotal    decimal.Decimal `json:"leverageTotal"`
}

// Summarize rolls valued positions and the transaction log up into one
// Summary. Position figures are in trading currency and get normalized
// here; transaction amounts were normalized when booked.
func Summarize(p *Portfolio, positions []Position, txs []Transaction, rates Rater) Summary {
	s := Summary{
		Cash:          p.Cash,
		LeverageUsed:  p.Leverage.Used,
		LeverageTotal: p.Leverage.Total,
		NetDeposited:  NetDeposited(p, txs),
	}

	for _, pos := range positions {
		rate := rates.RateToCNY(MarketOf(pos.AssetCode).Currency())
		s.TotalMarketValue = s.TotalMarketValue.Add(pos.MarketValue.Mul(rate))
		if pos.DailyChange != nil {
			s.DailyPnl = s.DailyPnl.Add(pos.DailyChange.Mul(rate))
		}
	}

	for _, tx := range txs {
		switch tx.Type {
		case Buy, Sell:
			s.TotalCommission = s.TotalCommission.Add(tx.Commission)
		case Dividend:
			s.TotalDividends = s.TotalDividends.Add(tx.Amount)
		}
	}

	s.TotalAssets = p.Cash.Add(s.TotalMarketValue)
	s.NetAssets = s.TotalAssets.Sub(p.Leverage.Used)
	s.TotalPnl = s.NetAssets.Sub(s.NetDeposited)
	return s
}

// NetDeposited is the external capital currently committed: the initial
// cash plus deposits, minus withdrawals.
func NetDeposited(p *Portfolio, txs []Transaction) decimal.Decimal {
	net := p.InitialCash
	for _, tx := range txs {
		switch tx.Type {
		case Deposit:
			net = net.Add(tx.Amount)
		case Withdraw:
			net = net.Sub(tx.Amount)
		}
	}
	return net
}

// LeverageInterest accrues interest on the drawn leverage balance between
// from and to, inclusive, using the daily balance method: each day's
// closing drawn amount earns CostRate/365.
func LeverageInterest(p *Portfolio, txs []Transaction, from, to Date) decimal.Decimal {
	if to.Before(from) || p.Leverage.CostRate.IsZero() {
		return decimal.Zero
	}
	daily := p.Leverage.CostRate.Div(dec(365))

	seed := replaySeed(p, txs)
	state := seed.Clone()
	interest := decimal.Zero
	i := 0
	for day := from; !day.After(to); day = day.Add(1) {
		for i < len(txs) && !txs[i].Day().After(day) {
			// Precondition failures are reconciliation's concern, the
			// accrual just follows whatever the replay accepts.
			_ = fold(state, txs[i])
			i++
		}
		interest = interest.Add(state.Leverage.Used.Mul(daily))
	}
	return interest
}
