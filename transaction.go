package folio

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the ledger operations.
type TransactionType string

const (
	Buy            TransactionType = "BUY"
	Sell           TransactionType = "SELL"
	Deposit        TransactionType = "DEPOSIT"
	Withdraw       TransactionType = "WITHDRAW"
	LeverageAdd    TransactionType = "LEVERAGE_ADD"
	LeverageRemove TransactionType = "LEVERAGE_REMOVE"
	LeverageCost   TransactionType = "LEVERAGE_COST"
	Dividend       TransactionType = "DIVIDEND"
)

// Valid reports whether t is one of the known operations.
func (t TransactionType) Valid() bool {
	switch t {
	case Buy, Sell, Deposit, Withdraw, LeverageAdd, LeverageRemove, LeverageCost, Dividend:
		return true
	}
	return false
}

// IsTrade reports whether the operation moves an asset position.
func (t TransactionType) IsTrade() bool { return t == Buy || t == Sell }

// Transaction is one immutable entry of a portfolio's ledger. Amount and
// Commission are CNY at booking time; Price stays in the asset's trading
// currency. For a BUY, Amount is the full cash outlay (cost plus commission)
// and LeverageUsed records how much of it was drawn from leverage. For a
// SELL, Amount is the gross proceeds before commission.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	Type        TransactionType `json:"type"`
	AssetCode   string          `json:"assetCode,omitempty"`
	AssetName   string          `json:"assetName,omitempty"`
	Quantity    decimal.Decimal `json:"quantity,omitempty"`
	Price       decimal.Decimal `json:"price,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Commission  decimal.Decimal `json:"commission,omitempty"`

	// LeverageUsed is nil when the operation touched no leverage.
	LeverageUsed *decimal.Decimal `json:"leverageUsed,omitempty"`

	Date      time.Time `json:"transactionDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTransaction returns a transaction with a fresh id and creation time.
func NewTransaction(portfolioID string, typ TransactionType, now time.Time) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Type:        typ,
		Date:        now,
		CreatedAt:   now,
	}
}

// Leverage returns the recorded leverage draw, zero when none.
func (tx Transaction) Leverage() decimal.Decimal {
	if tx.LeverageUsed == nil {
		return decimal.Zero
	}
	return *tx.LeverageUsed
}

// SetLeverage records the leverage draw, dropping values within Epsilon of
// zero so fully cash-funded trades carry no leverage field.
func (tx *Transaction) SetLeverage(used decimal.Decimal) {
	if used.LessThanOrEqual(Epsilon) {
		tx.LeverageUsed = nil
		return
	}
	tx.LeverageUsed = &used
}

// Day returns the calendar day the transaction belongs to.
func (tx Transaction) Day() Date { return DateOf(tx.Date) }

// Validate checks the record's shape before it reaches the ledger.
func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown transaction type " + string(tx.Type)}
	}
	if tx.Type.IsTrade() {
		if tx.AssetCode == "" {
			return &ValidationError{Field: "assetCode", Reason: "required for " + string(tx.Type)}
		}
		if !tx.Quantity.IsPositive() {
			return &ValidationError{Field: "quantity", Reason: "must be positive"}
		}
		if !tx.Price.IsPositive() {
			return &ValidationError{Field: "price", Reason: "must be positive"}
		}
	} else if !tx.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if tx.Commission.IsNegative() {
		return &ValidationError{Field: "commission", Reason: "must not be negative"}
	}
	if tx.LeverageUsed != nil && tx.LeverageUsed.IsNegative() {
		return &ValidationError{Field: "leverageUsed", Reason: "must not be negative"}
	}
	if tx.Date.IsZero() {
		return &ValidationError{Field: "transactionDate", Reason: "required"}
	}
	return nil
}
