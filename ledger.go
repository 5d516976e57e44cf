package folio

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Rater converts one unit of a currency into CNY. Implementations never
// fail; they fall back to cached or hardcoded rates instead.
type Rater interface {
	RateToCNY(currency string) decimal.Decimal
}

// Apply folds tx into the portfolio state. It normalizes the transaction's
// monetary fields to CNY at the current rate, funds trades cash-first with
// the shortfall drawn from leverage, and records the actual draw on the
// transaction. On error neither p nor tx is modified.
func Apply(p *Portfolio, tx *Transaction, rates Rater) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	w := p.Clone()
	t := *tx

	var err error
	switch t.Type {
	case Buy:
		err = applyBuy(w, &t, rates)
	case Sell:
		applySell(w, &t, rates)
	case Deposit, Dividend:
		w.Cash = w.Cash.Add(t.Amount)
	case Withdraw, LeverageCost:
		if !geq(w.Cash, t.Amount) {
			err = fmt.Errorf("%s of %s exceeds cash %s: %w", t.Type, t.Amount, w.Cash, ErrInsufficientFunds)
		} else {
			w.Cash = w.Cash.Sub(t.Amount)
		}
	case LeverageAdd:
		w.Leverage.Total = w.Leverage.Total.Add(t.Amount)
		w.Leverage.Available = w.Leverage.Available.Add(t.Amount)
	case LeverageRemove:
		if !geq(w.Leverage.Available, t.Amount) {
			err = fmt.Errorf("removing %s from leverage line with %s available: %w",
				t.Amount, w.Leverage.Available, ErrInsufficientLeverage)
		} else {
			w.Leverage.Total = w.Leverage.Total.Sub(t.Amount)
			w.Leverage.Available = w.Leverage.Available.Sub(t.Amount)
		}
	}
	if err != nil {
		return err
	}

	*p = *w
	*tx = t
	return nil
}

// applyBuy funds quantity*price plus commission, normalized to CNY.
// Commission is paid first, then the principal: cash first, leverage for
// the shortfall, unless the caller requested an explicit leverage draw.
func applyBuy(p *Portfolio, tx *Transaction, rates Rater) error {
	rate := rates.RateToCNY(MarketOf(tx.AssetCode).Currency())
	cost := tx.Quantity.Mul(tx.Price).Mul(rate)
	commission := tx.Commission.Mul(rate)

	requested := tx.LeverageUsed // explicit draw, nil means cash-first
	drawn := decimal.Zero

	// commission first
	if geq(p.Cash, commission) {
		p.Cash = decimal.Max(decimal.Zero, p.Cash.Sub(commission))
	} else {
		short := commission.Sub(p.Cash)
		if !geq(p.Leverage.Available, short) {
			return fmt.Errorf("commission %s not covered by cash %s and leverage %s: %w",
				commission, p.Cash, p.Leverage.Available, ErrInsufficientFunds)
		}
		p.Cash = decimal.Zero
		p.Leverage.Used = p.Leverage.Used.Add(short)
		p.Leverage.Available = p.Leverage.Available.Sub(short)
		drawn = drawn.Add(short)
	}

	// principal
	if requested != nil {
		l := *requested
		if !geq(p.Leverage.Available, l) {
			return fmt.Errorf("requested draw %s exceeds available leverage %s: %w",
				l, p.Leverage.Available, ErrInsufficientLeverage)
		}
		needCash := cost.Sub(l)
		if needCash.LessThan(Epsilon.Neg()) {
			return &ValidationError{Field: "leverageUsed", Reason: "exceeds total cost"}
		}
		if !geq(p.Cash, needCash) {
			return fmt.Errorf("cash %s cannot cover %s after draw %s: %w",
				p.Cash, needCash, l, ErrInsufficientFunds)
		}
		p.Leverage.Used = p.Leverage.Used.Add(l)
		p.Leverage.Available = p.Leverage.Available.Sub(l)
		p.Cash = decimal.Max(decimal.Zero, p.Cash.Sub(needCash))
		drawn = drawn.Add(l)
	} else if geq(p.Cash, cost) {
		p.Cash = decimal.Max(decimal.Zero, p.Cash.Sub(cost))
	} else {
		short := cost.Sub(p.Cash)
		if !geq(p.Leverage.Available, short) {
			return fmt.Errorf("cost %s not covered by cash %s and leverage %s: %w",
				cost, p.Cash, p.Leverage.Available, ErrInsufficientFunds)
		}
		p.Cash = decimal.Zero
		p.Leverage.Used = p.Leverage.Used.Add(short)
		p.Leverage.Available = p.Leverage.Available.Sub(short)
		drawn = drawn.Add(short)
	}

	tx.Amount = cost.Add(commission)
	tx.Commission = commission
	tx.SetLeverage(drawn)
	return nil
}

// applySell books gross proceeds, pays the commission, repays drawn
// leverage first and credits the rest to cash. A sell has no cash
// precondition.
func applySell(p *Portfolio, tx *Transaction, rates Rater) {
	rate := rates.RateToCNY(MarketOf(tx.AssetCode).Currency())
	gross := tx.Quantity.Mul(tx.Price).Mul(rate)
	commission := tx.Commission.Mul(rate)
	net := gross.Sub(commission)

	repay := decimal.Min(decimal.Max(net, decimal.Zero), p.Leverage.Used)
	p.Leverage.Used = p.Leverage.Used.Sub(repay)
	p.Leverage.Available = p.Leverage.Available.Add(repay)
	p.Cash = p.Cash.Add(net.Sub(repay))

	tx.Amount = gross
	tx.Commission = commission
	tx.LeverageUsed = nil
}

// Reverse undoes a previously applied transaction using only its stored
// fields, so that applying then reversing restores the exact prior state.
// On error p is not modified.
func Reverse(p *Portfolio, tx Transaction) error {
	w := p.Clone()

	switch tx.Type {
	case Buy:
		// Refund the outlay the way it was funded: leverage first, the
		// remainder to cash. The cap matters when later sells already paid
		// part of the draw back.
		repay := decimal.Max(decimal.Min(tx.Amount, w.Leverage.Used), decimal.Zero)
		w.Leverage.Used = w.Leverage.Used.Sub(repay)
		w.Leverage.Available = w.Leverage.Available.Add(repay)
		w.Cash = w.Cash.Add(tx.Amount.Sub(repay))

	case Sell:
		net := tx.Amount.Sub(tx.Commission)
		if geq(w.Cash, net) {
			w.Cash = decimal.Max(decimal.Zero, w.Cash.Sub(net))
		} else {
			short := net.Sub(w.Cash)
			if !geq(w.Leverage.Available, short) {
				return fmt.Errorf("reversing sell of %s: cash %s and leverage %s cannot return proceeds: %w",
					net, w.Cash, w.Leverage.Available, ErrInsufficientFunds)
			}
			w.Cash = decimal.Zero
			w.Leverage.Used = w.Leverage.Used.Add(short)
			w.Leverage.Available = w.Leverage.Available.Sub(short)
		}

	case Deposit:
		if !geq(w.Cash, tx.Amount) {
			return fmt.Errorf("reversing deposit of %s with cash %s: %w", tx.Amount, w.Cash, ErrInsufficientFunds)
		}
		w.Cash = w.Cash.Sub(tx.Amount)

	case Withdraw, LeverageCost:
		w.Cash = w.Cash.Add(tx.Amount)

	case Dividend:
		// A spent dividend cannot block its own deletion. The balance may
		// dip below zero until the user records the matching correction.
		w.Cash = w.Cash.Sub(tx.Amount)
		if w.Cash.IsNegative() {
			log.Warn().Str("portfolio", p.ID).Str("tx", tx.ID).
				Str("cash", w.Cash.String()).Msg("dividend reversal drove cash negative")
		}

	case LeverageAdd:
		if !geq(w.Leverage.Total, tx.Amount) {
			return fmt.Errorf("reversing leverage add of %s with total %s: %w",
				tx.Amount, w.Leverage.Total, ErrInsufficientLeverage)
		}
		w.Leverage.Total = w.Leverage.Total.Sub(tx.Amount)
		w.Leverage.Available = w.Leverage.Available.Sub(tx.Amount)

	case LeverageRemove:
		w.Leverage.Total = w.Leverage.Total.Add(tx.Amount)
		w.Leverage.Available = w.Leverage.Available.Add(tx.Amount)

	default:
		return &ValidationError{Field: "type", Reason: "unknown transaction type " + string(tx.Type)}
	}

	*p = *w
	return nil
}
