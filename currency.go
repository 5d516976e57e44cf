package folio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RateProvider fetches the current exchange rate from base to quote.
type RateProvider interface {
	FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// Rate is one cached exchange rate to CNY.
type Rate struct {
	Value     decimal.Decimal `json:"value"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Hardcoded last-resort rates for a cold cache with no reachable provider.
var fallbackRates = map[string]decimal.Decimal{
	"HKD": decimal.NewFromFloat(0.9),
	"USD": decimal.NewFromFloat(7.2),
}

// Rates caches exchange rates to CNY. Each instance is owned by whoever
// constructed it; there is no package-level cache. A cached rate is fresh
// for the calendar day it was fetched on. When a fetch fails the previous
// value keeps serving, and with nothing cached at all a hardcoded fallback
// applies. RateToCNY therefore never fails.
type Rates struct {
	mu       sync.RWMutex
	provider RateProvider // nil means cache and fallbacks only
	now      func() time.Time
	cache    map[string]Rate
}

// NewRates returns an empty cache backed by provider. A nil now defaults to
// time.Now; tests inject a fixed clock.
func NewRates(provider RateProvider, now func() time.Time) *Rates {
	if now == nil {
		now = time.Now
	}
	return &Rates{provider: provider, now: now, cache: make(map[string]Rate)}
}

// RateToCNY returns the rate converting one unit of currency into CNY,
// refreshing the cached value when it is stale and a provider is set.
func (r *Rates) RateToCNY(currency string) decimal.Decimal {
	if currency == "CNY" || currency == "" {
		return decimal.NewFromInt(1)
	}

	r.mu.RLock()
	cached, ok := r.cache[currency]
	r.mu.RUnlock()

	if ok && r.sameDay(cached.FetchedAt) {
		return cached.Value
	}

	if r.provider != nil {
		if err := r.refresh(context.Background(), currency); err == nil {
			r.mu.RLock()
			cached, ok = r.cache[currency]
			r.mu.RUnlock()
		} else {
			log.Warn().Err(err).Str("currency", currency).Msg("rate fetch failed, serving cached value")
		}
	}

	if ok {
		return cached.Value
	}
	if fb, known := fallbackRates[currency]; known {
		log.Warn().Str("currency", currency).Str("rate", fb.String()).Msg("no cached rate, using fallback")
		return fb
	}
	log.Warn().Str("currency", currency).Msg("unknown currency, assuming rate 1")
	return decimal.NewFromInt(1)
}

// Refresh fetches every supported foreign rate. Failures keep the previous
// cached values; the joined error reports what could not be refreshed.
func (r *Rates) Refresh(ctx context.Context) error {
	var errs []error
	for _, cur := range []string{"USD", "HKD"} {
		if err := r.refresh(ctx, cur); err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", cur, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Rates) refresh(ctx context.Context, currency string) error {
	if r.provider == nil {
		return fmt.Errorf("no rate provider: %w", ErrDataUnavailable)
	}
	value, err := r.provider.FetchRate(ctx, currency, "CNY")
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.cache[currency] = Rate{Value: value, FetchedAt: r.now()}
	r.mu.Unlock()
	log.Info().Str("currency", currency).Str("rate", value.String()).Msg("exchange rate refreshed")
	return nil
}

func (r *Rates) sameDay(t time.Time) bool {
	return DateOf(t) == DateOf(r.now())
}

// Snapshot copies the cached rates, for persistence between runs.
func (r *Rates) Snapshot() map[string]Rate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Rate, len(r.cache))
	for k, v := range r.cache {
		out[k] = v
	}
	return out
}

// Restore seeds the cache from a persisted snapshot.
func (r *Rates) Restore(rates map[string]Rate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range rates {
		r.cache[k] = v
	}
}

// StaticRates is a fixed-rate Rater for tests and offline use.
type StaticRates map[string]decimal.Decimal

func (s StaticRates) RateToCNY(currency string) decimal.Decimal {
	if currency == "CNY" || currency == "" {
		return decimal.NewFromInt(1)
	}
	if v, ok := s[currency]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}
