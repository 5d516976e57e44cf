// Package folio implements a ledger and valuation engine for stock
// portfolios across the mainland China, Hong Kong and US markets, with all
// balances normalized to CNY.
//
// The transaction log is the source of truth. Each portfolio holds an
// immutable, chronological record of its operations (buys, sells, deposits,
// withdrawals, dividends and leverage line changes); the cash balance,
// positions, summaries and period returns are all derived from it. Amounts
// are converted to CNY once, when a transaction is booked, so replaying the
// log later reproduces the stored balances exactly regardless of current
// exchange rates.
//
// The engine is split along a few seams:
//   - Ledger: Apply and Reverse mutate a portfolio under the funding rules,
//     cash first with automatic leverage draws and repayments.
//   - Positions and valuation: Reconstruct folds trades into weighted
//     average positions, AttachQuotes marks them to market.
//   - Returns: ReturnCalculator computes Modified Dietz returns over
//     rolling windows, priced with a HistoricalSource.
//   - Reconciliation: ReconcileCash replays the full history and reports
//     drift, skipped entries and invariant breaches.
//   - Service: ties the engine to storage, quote, history and rate
//     providers, and owns all writes.
//
// This package is the foundational logic for the `folio` command line tool.
package folio
