package folio

import "strings"

// Market identifies the exchange an asset trades on, derived from the
// two-letter prefix of its code: "sh"/"sz" for mainland China, "hk" for
// Hong Kong, "us" for the United States.
type Market int

const (
	MarketUnknown Market = iota
	MarketCN
	MarketHK
	MarketUS
)

func (m Market) String() string {
	switch m {
	case MarketCN:
		return "CN"
	case MarketHK:
		return "HK"
	case MarketUS:
		return "US"
	default:
		return "unknown"
	}
}

// Currency returns the market's local trading currency as an ISO code.
func (m Market) Currency() string {
	switch m {
	case MarketHK:
		return "HKD"
	case MarketUS:
		return "USD"
	default:
		return "CNY"
	}
}

// MarketOf derives the market from an asset code like "sh600519",
// "hk00700" or "usAAPL". Codes without a recognized prefix map to
// MarketUnknown; they are never valued, only carried.
func MarketOf(code string) Market {
	c := strings.ToLower(code)
	switch {
	case strings.HasPrefix(c, "sh"), strings.HasPrefix(c, "sz"):
		return MarketCN
	case strings.HasPrefix(c, "hk"):
		return MarketHK
	case strings.HasPrefix(c, "us"):
		return MarketUS
	default:
		return MarketUnknown
	}
}

// Symbol strips the market prefix from an asset code, returning the bare
// exchange symbol ("sh600519" -> "600519").
func Symbol(code string) string {
	if MarketOf(code) == MarketUnknown {
		return code
	}
	return code[2:]
}
