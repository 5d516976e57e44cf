package folio

import (
	"fmt"
	"strings"
)

// Period selects the rolling window a return is computed over. Windows end at
// the start of the current day and extend back one day, week, month or year.
// Total extends back to the portfolio's first transaction.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Yearly
	Total
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	case Total:
		return "total"
	default:
		return "periodic"
	}
}

// WindowStart returns the start of the rolling window ending at end. The
// window is half-open on the right: the start state is valued at the close
// of the day before, and flows on the start day through the day before end
// belong to it. For Total the start is not derivable from the end date;
// callers pass the date of the earliest transaction as first, so the first
// day's flows count against an empty start state.
func (p Period) WindowStart(end, first Date) Date {
	switch p {
	case Daily:
		return end.Add(-1)
	case Weekly:
		return end.Add(-7)
	case Monthly:
		return end.AddMonth(-1)
	case Yearly:
		return end.AddYear(-1)
	case Total:
		return first
	default:
		panic("unknown period")
	}
}

func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	case "total", "all":
		return Total, nil
	default:
		return Daily, fmt.Errorf("unknown period %q", p)
	}
}
