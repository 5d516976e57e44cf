package folio

import (
	"testing"
)

// applied books a transaction against p and returns it, failing the test on
// error, so histories for replay tests stay consistent by construction.
func applied(t *testing.T, p *Portfolio, tx Transaction) Transaction {
	t.Helper()
	if err := Apply(p, &tx, testRates); err != nil {
		t.Fatalf("Apply(%s) error = %v", tx.Type, err)
	}
	return tx
}

func TestReconcileCash_CleanHistory(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{
		applied(t, p, cashOp(Deposit, 50000)),
		applied(t, p, trade(Buy, "sh600519", 50, 1500, 25)),
		applied(t, p, trade(Sell, "sh600519", 20, 1600, 10)),
		applied(t, p, cashOp(Withdraw, 10000)),
	}

	res := ReconcileCash(p, txs)
	if !res.Clean() {
		t.Fatalf("not clean: diff=%s skipped=%v breaches=%v", res.Diff, res.Skipped, res.InvariantBreaches)
	}
	if !res.ComputedCash.Equal(p.Cash) {
		t.Errorf("computed = %s, stored = %s", res.ComputedCash, p.Cash)
	}
	if len(res.Steps) != len(txs) {
		t.Errorf("got %d steps, want %d", len(res.Steps), len(txs))
	}
}

func TestReconcileCash_CleanWithLeverage(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{
		applied(t, p, cashOp(LeverageAdd, 100000)),
		applied(t, p, trade(Buy, "sh600519", 100, 1500, 50)),
		applied(t, p, trade(Sell, "sh600519", 100, 1550, 50)),
		applied(t, p, cashOp(LeverageRemove, 30000)),
	}

	res := ReconcileCash(p, txs)
	if !res.Clean() {
		t.Fatalf("not clean: diff=%s skipped=%v breaches=%v", res.Diff, res.Skipped, res.InvariantBreaches)
	}
	if !res.Leverage.Total.Equal(p.Leverage.Total) {
		t.Errorf("replayed total = %s, stored = %s", res.Leverage.Total, p.Leverage.Total)
	}
}

func TestReconcileCash_DetectsDrift(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{applied(t, p, cashOp(Deposit, 50000))}

	p.Cash = p.Cash.Add(dec(100))

	res := ReconcileCash(p, txs)
	if res.Clean() {
		t.Fatal("tampered balance reported clean")
	}
	if !res.Diff.Equal(dec(100)) {
		t.Errorf("diff = %s, want 100", res.Diff)
	}
}

func TestReconcileCash_SkipsImpossibleEntryAndContinues(t *testing.T) {
	p := testPortfolio(100000, 0)
	txs := []Transaction{
		applied(t, p, cashOp(Deposit, 1000)),
		cashOp(Withdraw, 500000), // never booked, planted to break the replay
		applied(t, p, cashOp(Deposit, 2000)),
	}

	res := ReconcileCash(p, txs)
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %v, want the impossible withdrawal only", res.Skipped)
	}
	if len(res.Steps) != 2 {
		t.Errorf("got %d steps, want the two deposits", len(res.Steps))
	}
	if !res.ComputedCash.Equal(dec(103000)) {
		t.Errorf("computed = %s, want 103000", res.ComputedCash)
	}
}

func TestReconcileCash_ReportsLeverageDrift(t *testing.T) {
	p := testPortfolio(100000, 50000)
	txs := []Transaction{applied(t, p, trade(Buy, "sh600519", 100, 1500, 0))}

	p.Leverage.Used = p.Leverage.Used.Add(dec(500))

	res := ReconcileCash(p, txs)
	if res.Clean() {
		t.Fatal("tampered leverage reported clean")
	}
	if len(res.InvariantBreaches) == 0 {
		t.Error("no invariant breach reported for drifted leverage used")
	}
}
