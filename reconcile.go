package folio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// fold re-applies a stored transaction to a working state using its recorded
// CNY amounts. Unlike Apply it never re-derives costs from price and rate:
// what was booked is what replays, so a clean history reproduces the stored
// balance exactly.
func fold(p *Portfolio, tx Transaction) error {
	switch tx.Type {
	case Buy:
		draw := tx.Leverage()
		needCash := tx.Amount.Sub(draw)
		if !geq(p.Leverage.Available, draw) {
			return fmt.Errorf("draw %s with %s available: %w", draw, p.Leverage.Available, ErrInsufficientLeverage)
		}
		if !geq(p.Cash, needCash) {
			return fmt.Errorf("outlay %s with cash %s: %w", needCash, p.Cash, ErrInsufficientFunds)
		}
		p.Leverage.Used = p.Leverage.Used.Add(draw)
		p.Leverage.Available = p.Leverage.Available.Sub(draw)
		p.Cash = decimal.Max(decimal.Zero, p.Cash.Sub(needCash))

	case Sell:
		net := tx.Amount.Sub(tx.Commission)
		repay := decimal.Min(decimal.Max(net, decimal.Zero), p.Leverage.Used)
		p.Leverage.Used = p.Leverage.Used.Sub(repay)
		p.Leverage.Available = p.Leverage.Available.Add(repay)
		p.Cash = p.Cash.Add(net.Sub(repay))

	case Deposit, Dividend:
		p.Cash = p.Cash.Add(tx.Amount)

	case Withdraw, LeverageCost:
		if !geq(p.Cash, tx.Amount) {
			return fmt.Errorf("%s of %s with cash %s: %w", tx.Type, tx.Amount, p.Cash, ErrInsufficientFunds)
		}
		p.Cash = p.Cash.Sub(tx.Amount)

	case LeverageAdd:
		p.Leverage.Total = p.Leverage.Total.Add(tx.Amount)
		p.Leverage.Available = p.Leverage.Available.Add(tx.Amount)

	case LeverageRemove:
		if !geq(p.Leverage.Available, tx.Amount) {
			return fmt.Errorf("leverage remove of %s with %s available: %w",
				tx.Amount, p.Leverage.Available, ErrInsufficientLeverage)
		}
		p.Leverage.Total = p.Leverage.Total.Sub(tx.Amount)
		p.Leverage.Available = p.Leverage.Available.Sub(tx.Amount)

	default:
		return &ValidationError{Field: "type", Reason: "unknown transaction type " + string(tx.Type)}
	}
	return nil
}

// Step traces one replayed transaction: the cash balance before and after
// folding it. Failed steps appear in the skipped list instead.
type Step struct {
	TxID   string          `json:"txId"`
	Type   TransactionType `json:"type"`
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// replaySeed returns the state every replay starts from: the initial cash
// deposit and the leverage line as it was before the first logged leverage
// operation, nothing drawn. Logged LEVERAGE_ADD and LEVERAGE_REMOVE entries
// rebuild the line during the replay, so the recomputed total is comparable
// to the stored one.
func replaySeed(p *Portfolio, txs []Transaction) *Portfolio {
	netLine := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case LeverageAdd:
			netLine = netLine.Add(tx.Amount)
		case LeverageRemove:
			netLine = netLine.Sub(tx.Amount)
		}
	}
	seed := p.Clone()
	seed.Cash = p.InitialCash
	seed.Leverage.Used = decimal.Zero
	seed.Leverage.Total = p.Leverage.Total.Sub(netLine)
	seed.Leverage.Available = seed.Leverage.Total
	return seed
}

// replay folds txs into the seed in order. Transactions whose precondition
// fails against the recomputed state are set aside and the replay continues,
// so one bad entry cannot hide the rest of the history.
func replay(seed *Portfolio, txs []Transaction) (*Portfolio, []Step, []Skipped) {
	state := seed.Clone()
	steps := make([]Step, 0, len(txs))
	var skipped []Skipped

	for _, tx := range txs {
		before := state.Cash
		if err := fold(state, tx); err != nil {
			skipped = append(skipped, Skipped{Tx: tx, Reason: err.Error()})
			continue
		}
		steps = append(steps, Step{TxID: tx.ID, Type: tx.Type, Before: before, After: state.Cash})
	}
	return state, steps, skipped
}

// ReconcileResult is the outcome of replaying a portfolio's full history
// against its stored balance.
type ReconcileResult struct {
	PortfolioID  string          `json:"portfolioId"`
	StoredCash   decimal.Decimal `json:"storedCash"`
	ComputedCash decimal.Decimal `json:"computedCash"`
	// Diff is stored minus computed. Within Epsilon the book is clean.
	Diff     decimal.Decimal `json:"diff"`
	Leverage Leverage        `json:"leverage"`
	Steps    []Step          `json:"steps"`
	Skipped  []Skipped       `json:"skipped,omitempty"`
	// InvariantBreaches lists consistency violations found in the replayed
	// state, such as a leverage line that no longer balances.
	InvariantBreaches []string `json:"invariantBreaches,omitempty"`
}

// Clean reports whether the stored balance matches the replay and no
// invariant broke along the way.
func (r *ReconcileResult) Clean() bool {
	return r.Diff.Abs().LessThanOrEqual(Epsilon) && len(r.Skipped) == 0 && len(r.InvariantBreaches) == 0
}

// ReconcileCash replays the portfolio's entire transaction log from its
// initial state and compares the result with the stored cash balance.
// It never fails: inconsistencies come back in the result.
func ReconcileCash(p *Portfolio, txs []Transaction) *ReconcileResult {
	state, steps, skipped := replay(replaySeed(p, txs), txs)

	res := &ReconcileResult{
		PortfolioID:  p.ID,
		StoredCash:   p.Cash,
		ComputedCash: state.Cash,
		Diff:         p.Cash.Sub(state.Cash),
		Leverage:     state.Leverage,
		Steps:        steps,
		Skipped:      skipped,
	}

	if err := state.Leverage.CheckInvariant(); err != nil {
		res.InvariantBreaches = append(res.InvariantBreaches, err.Error())
	}
	if drift := state.Leverage.Total.Sub(p.Leverage.Total); drift.Abs().GreaterThan(Epsilon) {
		res.InvariantBreaches = append(res.InvariantBreaches,
			fmt.Sprintf("replayed leverage total %s differs from stored total %s", state.Leverage.Total, p.Leverage.Total))
	}
	if usedDrift := state.Leverage.Used.Sub(p.Leverage.Used); usedDrift.Abs().GreaterThan(Epsilon) {
		res.InvariantBreaches = append(res.InvariantBreaches,
			fmt.Sprintf("replayed leverage used %s differs from stored used %s", state.Leverage.Used, p.Leverage.Used))
	}
	return res
}
