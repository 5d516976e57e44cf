package folio

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money pairs an exact decimal amount with a currency code. The engine
// computes in bare decimals; Money exists for display, where currency
// symbols and fraction digits matter.
type Money struct {
	value decimal.Decimal // major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: dec(value), cur: currency}
}

// CNY returns value as Chinese yuan.
func CNY(value decimal.Decimal) Money { return Money{value: value, cur: money.CNY} }

// currency resolves the full currency metadata, never nil.
func (m Money) currency() money.Currency {
	return *money.New(0, m.cur).Currency()
}

// String renders the amount with the currency's symbol and fraction digits.
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString is String with an explicit leading sign, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string        { return m.cur }
func (m Money) Amount() decimal.Decimal { return m.value }
func (m Money) IsZero() bool            { return m.value.IsZero() }
func (m Money) IsNegative() bool        { return m.value.IsNegative() }
func (m Money) Add(n Money) Money       { return Money{value: m.value.Add(n.value), cur: m.cur} }
func (m Money) Sub(n Money) Money       { return Money{value: m.value.Sub(n.value), cur: m.cur} }
func (m Money) Neg() Money              { return Money{value: m.value.Neg(), cur: m.cur} }
