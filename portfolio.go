package folio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Leverage is a portfolio's broker credit line. Total is the granted line,
// Used the drawn part, Available what remains drawable. Used + Available
// must equal Total within Epsilon at every observable point.
type Leverage struct {
	Total     decimal.Decimal `json:"totalAmount"`
	Used      decimal.Decimal `json:"usedAmount"`
	Available decimal.Decimal `json:"availableAmount"`
	// CostRate is the annual interest rate on the drawn part, e.g. 0.05.
	CostRate decimal.Decimal `json:"costAnnualRate"`
}

// CheckInvariant returns an error when Used + Available drifts from Total.
func (l Leverage) CheckInvariant() error {
	drift := l.Used.Add(l.Available).Sub(l.Total)
	if drift.Abs().GreaterThan(Epsilon) {
		return fmt.Errorf("leverage invariant broken: used %s + available %s != total %s",
			l.Used, l.Available, l.Total)
	}
	return nil
}

// Portfolio is the mutable account state every ledger operation folds into.
// All monetary fields are CNY.
type Portfolio struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	InitialCash decimal.Decimal `json:"initialCash"`
	Cash        decimal.Decimal `json:"cashBalance"`
	Leverage    Leverage        `json:"leverage"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewPortfolio returns a portfolio funded with initialCash and an optional
// leverage line, fully available.
func NewPortfolio(name string, initialCash, leverageTotal, costRate decimal.Decimal, now time.Time) *Portfolio {
	return &Portfolio{
		ID:          uuid.NewString(),
		Name:        name,
		InitialCash: initialCash,
		Cash:        initialCash,
		Leverage: Leverage{
			Total:     leverageTotal,
			Available: leverageTotal,
			CostRate:  costRate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns an independent copy. Apply and Reverse work on a clone and
// publish it only after every precondition passed, so a failing operation
// leaves no partial mutation behind.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	return &c
}
