package folio

import (
	"testing"
	"time"
)

func tradeOn(day int, typ TransactionType, code string, qty, price float64) Transaction {
	return Transaction{
		ID:        "tx",
		Type:      typ,
		AssetCode: code,
		Quantity:  dec(qty),
		Price:     dec(price),
		Date:      time.Date(2025, time.June, day, 10, 0, 0, 0, time.UTC),
	}
}

func TestReconstruct(t *testing.T) {
	txs := []Transaction{
		tradeOn(1, Buy, "sh600519", 100, 1500),
		tradeOn(2, Buy, "sh600519", 100, 1600),
		tradeOn(3, Sell, "sh600519", 50, 1700),
		tradeOn(4, Buy, "hk00700", 200, 350),
		cashOp(Deposit, 1000),
	}

	positions, skipped := Reconstruct(txs)
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	mt := positions[0]
	if mt.AssetCode != "sh600519" {
		t.Fatalf("first position = %s, want sh600519 (log order)", mt.AssetCode)
	}
	if !mt.Quantity.Equal(dec(150)) {
		t.Errorf("quantity = %s, want 150", mt.Quantity)
	}
	// 150000 + 160000 - 85000
	if !mt.TotalCost.Equal(dec(225000)) {
		t.Errorf("total cost = %s, want 225000", mt.TotalCost)
	}
	if !mt.CostPrice.Equal(dec(1500)) {
		t.Errorf("cost price = %s, want 1500", mt.CostPrice)
	}
}

func TestReconstruct_SellAllDropsPosition(t *testing.T) {
	txs := []Transaction{
		tradeOn(1, Buy, "sh600519", 100, 1500),
		tradeOn(2, Sell, "sh600519", 100, 1600),
	}
	positions, skipped := Reconstruct(txs)
	if len(positions) != 0 {
		t.Errorf("positions = %v, want none", positions)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
}

func TestReconstruct_OversellClampsAndReports(t *testing.T) {
	txs := []Transaction{
		tradeOn(1, Buy, "sh600519", 100, 1500),
		tradeOn(2, Sell, "sh600519", 150, 1600),
		tradeOn(3, Buy, "sh600519", 50, 1400),
	}
	positions, skipped := Reconstruct(txs)
	if len(skipped) != 1 || skipped[0].Reason != "sell exceeds held quantity" {
		t.Fatalf("skipped = %v, want one oversell", skipped)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	if !positions[0].Quantity.Equal(dec(50)) {
		t.Errorf("quantity = %s, want 50 (clamped at zero before the rebuy)", positions[0].Quantity)
	}
}

func TestReconstruct_UnknownPrefixReported(t *testing.T) {
	txs := []Transaction{
		tradeOn(1, Buy, "sh600519", 100, 1500),
		tradeOn(2, Buy, "xx123456", 10, 10),
	}
	positions, skipped := Reconstruct(txs)
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	if len(skipped) != 1 || skipped[0].Reason != "unrecognized market prefix" {
		t.Fatalf("skipped = %v, want one unrecognized prefix", skipped)
	}
}

func TestReconstruct_NegativeCostPriceKept(t *testing.T) {
	// Selling dearer than the remaining book can push the basis negative.
	txs := []Transaction{
		tradeOn(1, Buy, "sh600519", 100, 100),
		tradeOn(2, Sell, "sh600519", 50, 250),
	}
	positions, _ := Reconstruct(txs)
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	if !positions[0].TotalCost.Equal(dec(-2500)) {
		t.Errorf("total cost = %s, want -2500", positions[0].TotalCost)
	}
	if !positions[0].CostPrice.Equal(dec(-50)) {
		t.Errorf("cost price = %s, want -50", positions[0].CostPrice)
	}
}
