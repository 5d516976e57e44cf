package folio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wenqin/folio/store"
)

// Storage keys. Portfolios live in one document, each transaction log in
// its own, keyed by portfolio id.
const (
	portfoliosKey = "portfolios/portfolios"
	ratesKey      = "market/rates"
)

func txKey(portfolioID string) string { return "transactions/" + portfolioID }

// Service ties the engine to its collaborators: storage, quotes, history
// and rates. It owns all writes; concurrent writers to the same portfolio
// are serialized by a per-portfolio mutex while different portfolios
// proceed in parallel.
type Service struct {
	kv      store.KV
	rates   *Rates
	quotes  QuoteSource
	history HistoricalSource
	now     func() time.Time

	calc ReturnCalculator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ServiceOptions carries the optional collaborators of NewService.
type ServiceOptions struct {
	Quotes    QuoteSource
	History   HistoricalSource
	Weighting FlowWeighting // nil defaults to FlatWeighting
	Now       func() time.Time
}

// NewService wires a service. The rate cache is seeded from storage when a
// persisted snapshot exists.
func NewService(kv store.KV, rates *Rates, opts ServiceOptions) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		kv:      kv,
		rates:   rates,
		quotes:  opts.Quotes,
		history: opts.History,
		now:     opts.Now,
		locks:   make(map[string]*sync.Mutex),
	}
	s.calc = ReturnCalculator{
		History:   opts.History,
		Rates:     rates,
		Weighting: opts.Weighting,
		Now:       opts.Now,
	}

	var snapshot map[string]Rate
	if err := kv.Load(ratesKey, &snapshot); err == nil {
		rates.Restore(snapshot)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Msg("could not restore persisted exchange rates")
	}
	return s
}

// lock returns the mutex serializing writes to one portfolio.
func (s *Service) lock(portfolioID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[portfolioID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[portfolioID] = l
	}
	return l
}

// --- portfolio CRUD ---

func (s *Service) loadPortfolios() ([]*Portfolio, error) {
	var all []*Portfolio
	err := s.kv.Load(portfoliosKey, &all)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: portfoliosKey, Err: err}
	}
	return all, nil
}

func (s *Service) savePortfolios(all []*Portfolio) error {
	if err := s.kv.Save(portfoliosKey, all); err != nil {
		return &PersistenceError{Op: "save", Key: portfoliosKey, Err: err}
	}
	return nil
}

// CreatePortfolio registers a new portfolio funded with initialCash and an
// optional leverage line.
func (s *Service) CreatePortfolio(name string, initialCash, leverageTotal, costRate decimal.Decimal) (*Portfolio, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if initialCash.IsNegative() {
		return nil, &ValidationError{Field: "initialCash", Reason: "must not be negative"}
	}
	if leverageTotal.IsNegative() {
		return nil, &ValidationError{Field: "leverageTotal", Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*Portfolio
	if err := s.kv.Load(portfoliosKey, &all); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, &PersistenceError{Op: "load", Key: portfoliosKey, Err: err}
	}
	p := NewPortfolio(name, initialCash, leverageTotal, costRate, s.now())
	all = append(all, p)
	if err := s.savePortfolios(all); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPortfolio returns the portfolio with the given id.
func (s *Service) GetPortfolio(id string) (*Portfolio, error) {
	all, err := s.loadPortfolios()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("portfolio %q: %w", id, ErrNotFound)
}

// ListPortfolios returns every portfolio.
func (s *Service) ListPortfolios() ([]*Portfolio, error) {
	return s.loadPortfolios()
}

// DeletePortfolio removes a portfolio and its transaction log.
func (s *Service) DeletePortfolio(id string) error {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	all, err := s.loadPortfolios()
	if err != nil {
		return err
	}
	kept := all[:0]
	found := false
	for _, p := range all {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("portfolio %q: %w", id, ErrNotFound)
	}
	if err := s.savePortfolios(kept); err != nil {
		return err
	}
	if err := s.kv.Delete(txKey(id)); err != nil {
		return &PersistenceError{Op: "save", Key: txKey(id), Err: err}
	}
	return nil
}

// --- transaction log ---

// Transactions returns the portfolio's log in chronological order.
func (s *Service) Transactions(portfolioID string) ([]Transaction, error) {
	var txs []Transaction
	err := s.kv.Load(txKey(portfolioID), &txs)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: txKey(portfolioID), Err: err}
	}
	sortTxs(txs)
	return txs, nil
}

func sortTxs(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}

// ApplyTransaction validates tx, folds it into the portfolio and persists
// both the log and the new balance. When the balance cannot be persisted
// the appended log entry is rolled back, so storage never holds a
// transaction whose effect is missing.
func (s *Service) ApplyTransaction(portfolioID string, tx Transaction) (Transaction, error) {
	l := s.lock(portfolioID)
	l.Lock()
	defer l.Unlock()

	all, err := s.loadPortfolios()
	if err != nil {
		return Transaction{}, err
	}
	var p *Portfolio
	for _, cand := range all {
		if cand.ID == portfolioID {
			p = cand
			break
		}
	}
	if p == nil {
		return Transaction{}, fmt.Errorf("portfolio %q: %w", portfolioID, ErrNotFound)
	}

	if tx.ID == "" {
		stamped := NewTransaction(portfolioID, tx.Type, s.now())
		stamped.AssetCode = tx.AssetCode
		stamped.AssetName = tx.AssetName
		stamped.Quantity = tx.Quantity
		stamped.Price = tx.Price
		stamped.Amount = tx.Amount
		stamped.Commission = tx.Commission
		stamped.LeverageUsed = tx.LeverageUsed
		if !tx.Date.IsZero() {
			stamped.Date = tx.Date
		}
		tx = stamped
	}
	tx.PortfolioID = portfolioID

	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return Transaction{}, err
	}

	prev := p.Clone()
	if err := Apply(p, &tx, s.rates); err != nil {
		return Transaction{}, err
	}
	p.UpdatedAt = s.now()

	txs = append(txs, tx)
	if err := s.kv.Save(txKey(portfolioID), txs); err != nil {
		*p = *prev
		return Transaction{}, &PersistenceError{Op: "save", Key: txKey(portfolioID), Err: err}
	}
	if err := s.savePortfolios(all); err != nil {
		*p = *prev
		if rbErr := s.kv.Save(txKey(portfolioID), txs[:len(txs)-1]); rbErr != nil {
			log.Error().Err(rbErr).Str("portfolio", portfolioID).
				Msg("rollback of transaction log failed, run reconcile")
		}
		return Transaction{}, err
	}
	return tx, nil
}

// ReverseTransaction undoes a logged transaction and removes it from the
// log. The balance mutation and the log removal persist together or not at
// all.
func (s *Service) ReverseTransaction(portfolioID, txID string) error {
	l := s.lock(portfolioID)
	l.Lock()
	defer l.Unlock()

	all, err := s.loadPortfolios()
	if err != nil {
		return err
	}
	var p *Portfolio
	for _, cand := range all {
		if cand.ID == portfolioID {
			p = cand
			break
		}
	}
	if p == nil {
		return fmt.Errorf("portfolio %q: %w", portfolioID, ErrNotFound)
	}

	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return err
	}
	idx := -1
	for i, tx := range txs {
		if tx.ID == txID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("transaction %q: %w", txID, ErrNotFound)
	}

	prev := p.Clone()
	if err := Reverse(p, txs[idx]); err != nil {
		return err
	}
	p.UpdatedAt = s.now()

	removed := txs[idx]
	remaining := append(append([]Transaction{}, txs[:idx]...), txs[idx+1:]...)
	if err := s.kv.Save(txKey(portfolioID), remaining); err != nil {
		*p = *prev
		return &PersistenceError{Op: "save", Key: txKey(portfolioID), Err: err}
	}
	if err := s.savePortfolios(all); err != nil {
		*p = *prev
		restored := append(append([]Transaction{}, remaining[:idx]...), removed)
		restored = append(restored, remaining[idx:]...)
		if rbErr := s.kv.Save(txKey(portfolioID), restored); rbErr != nil {
			log.Error().Err(rbErr).Str("portfolio", portfolioID).
				Msg("rollback of transaction log failed, run reconcile")
		}
		return err
	}
	return nil
}

// --- read models ---

// GetPositions reconstructs the portfolio's open positions and marks them
// to market when a quote source is available. Quote failures degrade the
// valuation, they never fail it.
func (s *Service) GetPositions(portfolioID string) ([]Position, []Skipped, error) {
	if _, err := s.GetPortfolio(portfolioID); err != nil {
		return nil, nil, err
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return nil, nil, err
	}
	positions, skipped := Reconstruct(txs)
	positions = s.valued(positions)
	return positions, skipped, nil
}

func (s *Service) valued(positions []Position) []Position {
	if s.quotes == nil || len(positions) == 0 {
		return AttachQuotes(positions, nil)
	}
	codes := make([]string, len(positions))
	for i, pos := range positions {
		codes[i] = pos.AssetCode
	}
	quotes, err := s.quotes.Quotes(codes)
	if err != nil {
		log.Warn().Err(err).Msg("quote fetch failed, positions valued at zero")
		quotes = nil
	}
	return AttachQuotes(positions, quotes)
}

// GetSummary values the portfolio and rolls it up into headline figures.
func (s *Service) GetSummary(portfolioID string) (Summary, error) {
	p, err := s.GetPortfolio(portfolioID)
	if err != nil {
		return Summary{}, err
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return Summary{}, err
	}
	positions, _ := Reconstruct(txs)
	positions = s.valued(positions)
	return Summarize(p, positions, txs, s.rates), nil
}

// GetStats computes the Modified Dietz return over one rolling window.
func (s *Service) GetStats(ctx context.Context, portfolioID string, period Period) (PeriodStats, error) {
	p, err := s.GetPortfolio(portfolioID)
	if err != nil {
		return PeriodStats{}, err
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return PeriodStats{}, err
	}
	return s.calc.PeriodStats(ctx, p, txs, period), nil
}

// GetAllStats computes every rolling window.
func (s *Service) GetAllStats(ctx context.Context, portfolioID string) (map[Period]PeriodStats, error) {
	p, err := s.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return nil, err
	}
	return s.calc.AllStats(ctx, p, txs), nil
}

// Reconcile replays the portfolio's history against its stored balance.
func (s *Service) Reconcile(portfolioID string) (*ReconcileResult, error) {
	p, err := s.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return nil, err
	}
	return ReconcileCash(p, txs), nil
}

// RepairCash reconciles and, when the stored balance drifted beyond
// Epsilon, overwrites it with the replayed value.
func (s *Service) RepairCash(portfolioID string) (*ReconcileResult, error) {
	l := s.lock(portfolioID)
	l.Lock()
	defer l.Unlock()

	all, err := s.loadPortfolios()
	if err != nil {
		return nil, err
	}
	var p *Portfolio
	for _, cand := range all {
		if cand.ID == portfolioID {
			p = cand
			break
		}
	}
	if p == nil {
		return nil, fmt.Errorf("portfolio %q: %w", portfolioID, ErrNotFound)
	}
	txs, err := s.Transactions(portfolioID)
	if err != nil {
		return nil, err
	}

	res := ReconcileCash(p, txs)
	if res.Diff.Abs().LessThanOrEqual(Epsilon) {
		return res, nil
	}

	log.Info().Str("portfolio", portfolioID).
		Str("stored", res.StoredCash.String()).Str("computed", res.ComputedCash.String()).
		Msg("overwriting drifted cash balance")
	p.Cash = res.ComputedCash
	p.UpdatedAt = s.now()
	if err := s.savePortfolios(all); err != nil {
		return nil, err
	}
	return res, nil
}

// RateToCNY exposes the service's rate cache.
func (s *Service) RateToCNY(currency string) decimal.Decimal {
	return s.rates.RateToCNY(currency)
}

// RefreshRates fetches fresh exchange rates and persists the snapshot so
// the next start does not fall back to hardcoded values.
func (s *Service) RefreshRates(ctx context.Context) error {
	err := s.rates.Refresh(ctx)
	if saveErr := s.kv.Save(ratesKey, s.rates.Snapshot()); saveErr != nil {
		log.Warn().Err(saveErr).Msg("could not persist exchange rates")
	}
	return err
}
