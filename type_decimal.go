package folio

import "github.com/shopspring/decimal"

// Epsilon is the tolerance for every monetary comparison in the engine.
// Stored amounts come from user input and FX multiplication, so equality
// checks and preconditions allow a 1e-6 slack.
var Epsilon = decimal.New(1, -6)

// dec is a convenient factory for decimal.Decimal.
func dec[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// geq reports a >= b within Epsilon.
func geq(a, b decimal.Decimal) bool {
	return a.Sub(b).GreaterThanOrEqual(Epsilon.Neg())
}

// isZero reports |a| <= Epsilon.
func isZero(a decimal.Decimal) bool {
	return a.Abs().LessThanOrEqual(Epsilon)
}
