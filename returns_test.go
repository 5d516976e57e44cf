package folio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeHistory serves closes by code and date and errors on anything else.
type fakeHistory map[string]map[string]float64

func (h fakeHistory) CloseOn(_ context.Context, code string, on Date) (decimal.Decimal, error) {
	if c, ok := h[code][on.String()]; ok {
		return dec(c), nil
	}
	return decimal.Decimal{}, fmt.Errorf("no close for %s on %s: %w", code, on, ErrDataUnavailable)
}

func opOn(day int, typ TransactionType, amount float64) Transaction {
	return Transaction{
		ID:     fmt.Sprintf("op-%d", day),
		Type:   typ,
		Amount: dec(amount),
		Date:   time.Date(2025, time.June, day, 10, 0, 0, 0, time.UTC),
	}
}

func bookedBuy(day int, code string, qty, price float64) Transaction {
	return Transaction{
		ID:        fmt.Sprintf("buy-%d", day),
		Type:      Buy,
		AssetCode: code,
		Quantity:  dec(qty),
		Price:     dec(price),
		Amount:    dec(qty * price),
		Date:      time.Date(2025, time.June, day, 10, 0, 0, 0, time.UTC),
	}
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
}

func TestPeriodStats_Daily(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{bookedBuy(2, "sh600519", 100, 1000)}
	calc := &ReturnCalculator{
		History: fakeHistory{"sh600519": {"2025-06-08": 1100, "2025-06-10": 1150}},
		Rates:   testRates,
		Now:     fixedNow,
	}

	stats := calc.PeriodStats(context.Background(), p, txs, Daily)

	if stats.Start != NewDate(2025, 6, 9) || stats.End != NewDate(2025, 6, 10) {
		t.Fatalf("window = %s..%s, want 2025-06-09..2025-06-10", stats.Start, stats.End)
	}
	if !stats.StartValue.Equal(dec(110000)) {
		t.Errorf("start value = %s, want 110000", stats.StartValue)
	}
	if !stats.EndValue.Equal(dec(115000)) {
		t.Errorf("end value = %s, want 115000", stats.EndValue)
	}
	if !stats.CashFlow.IsZero() {
		t.Errorf("cash flow = %s, want 0", stats.CashFlow)
	}
	if stats.Return == nil || !stats.Return.Round(2).Equal(dec(4.55)) {
		t.Errorf("return = %v, want about 4.55", stats.Return)
	}
}

func TestPeriodStats_FlowWeighting(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{
		bookedBuy(2, "sh600519", 100, 1000),
		opOn(5, Deposit, 50000),
	}
	history := fakeHistory{"sh600519": {
		"2025-06-02": 1000,
		"2025-06-10": 1150,
	}}

	flat := &ReturnCalculator{History: history, Rates: testRates, Now: fixedNow}
	stats := flat.PeriodStats(context.Background(), p, txs, Weekly)
	if !stats.CashFlow.Equal(dec(50000)) {
		t.Fatalf("cash flow = %s, want 50000", stats.CashFlow)
	}
	// (165000 - 100000 - 50000) / (100000 + 0.5*50000)
	if stats.Return == nil || !stats.Return.Equal(dec(12)) {
		t.Errorf("flat return = %v, want 12", stats.Return)
	}

	dietz := &ReturnCalculator{History: history, Rates: testRates, Weighting: DayWeighting{}, Now: fixedNow}
	stats = dietz.PeriodStats(context.Background(), p, txs, Weekly)
	// weight 5/7: the deposit sat in the window for five of its seven days
	if stats.Return == nil || !stats.Return.Round(2).Equal(dec(11.05)) {
		t.Errorf("day-weighted return = %v, want about 11.05", stats.Return)
	}
}

func TestPeriodStats_FlowsOnWindowEdges(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{
		opOn(3, Deposit, 1000),  // window start day, counts
		opOn(10, Deposit, 1000), // window end day, does not
	}
	calc := &ReturnCalculator{History: fakeHistory{}, Rates: testRates, Now: fixedNow}

	stats := calc.PeriodStats(context.Background(), p, txs, Weekly)
	if stats.Start != NewDate(2025, 6, 3) || stats.End != NewDate(2025, 6, 10) {
		t.Fatalf("window = %s..%s, want 2025-06-03..2025-06-10", stats.Start, stats.End)
	}
	if !stats.CashFlow.Equal(dec(1000)) {
		t.Errorf("cash flow = %s, want 1000", stats.CashFlow)
	}
	// the start state is the eve of the window, before either deposit
	if !stats.StartValue.Equal(dec(100000)) {
		t.Errorf("start value = %s, want 100000", stats.StartValue)
	}
	if !stats.EndValue.Equal(dec(102000)) {
		t.Errorf("end value = %s, want 102000", stats.EndValue)
	}
	// (102000 - 100000 - 1000) / (100000 + 0.5*1000)
	if stats.Return == nil || !stats.Return.Round(2).Equal(dec(1)) {
		t.Errorf("return = %v, want about 1.00", stats.Return)
	}
}

func TestPeriodStats_EmptyPortfolioIsZero(t *testing.T) {
	p := testPortfolio(0, 0)
	calc := &ReturnCalculator{History: fakeHistory{}, Rates: testRates, Now: fixedNow}

	stats := calc.PeriodStats(context.Background(), p, nil, Monthly)
	if stats.Return == nil || !stats.Return.IsZero() {
		t.Errorf("return = %v, want 0 for an empty portfolio", stats.Return)
	}
}

func TestPeriodStats_NilReturnOnZeroDenominator(t *testing.T) {
	p := testPortfolio(0, 0)
	txs := []Transaction{opOn(5, Dividend, 500)}
	calc := &ReturnCalculator{History: fakeHistory{}, Rates: testRates, Now: fixedNow}

	stats := calc.PeriodStats(context.Background(), p, txs, Weekly)
	if stats.Return != nil {
		t.Errorf("return = %s, want nil when the denominator is zero", stats.Return)
	}
	if !stats.EndValue.Equal(dec(500)) {
		t.Errorf("end value = %s, want 500", stats.EndValue)
	}
}

func TestPeriodStats_MissingPriceValuesAssetAtZero(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{bookedBuy(2, "sh600519", 100, 1000)}
	calc := &ReturnCalculator{History: fakeHistory{}, Rates: testRates, Now: fixedNow}

	stats := calc.PeriodStats(context.Background(), p, txs, Daily)
	if !stats.StartValue.IsZero() || !stats.EndValue.IsZero() {
		t.Errorf("values = %s/%s, want 0/0 with no price data", stats.StartValue, stats.EndValue)
	}
}

func TestPeriodStats_TotalStartsAtInitialCash(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{bookedBuy(2, "sh600519", 100, 1000)}
	calc := &ReturnCalculator{
		History: fakeHistory{"sh600519": {"2025-06-10": 1150}},
		Rates:   testRates,
		Now:     fixedNow,
	}

	stats := calc.PeriodStats(context.Background(), p, txs, Total)
	if stats.Start != NewDate(2025, 6, 2) {
		t.Errorf("total window start = %s, want 2025-06-02, the first transaction day", stats.Start)
	}
	if !stats.StartValue.Equal(dec(100000)) {
		t.Errorf("start value = %s, want the initial cash", stats.StartValue)
	}
	if stats.Return == nil || !stats.Return.Equal(dec(15)) {
		t.Errorf("return = %v, want 15", stats.Return)
	}
}

func TestAllStats_CoversEveryWindow(t *testing.T) {
	p := testPortfolio(100000, 0)
	calc := &ReturnCalculator{History: fakeHistory{}, Rates: testRates, Now: fixedNow}

	all := calc.AllStats(context.Background(), p, nil)
	for _, period := range []Period{Daily, Weekly, Monthly, Yearly, Total} {
		if _, ok := all[period]; !ok {
			t.Errorf("missing window %s", period)
		}
	}
}
