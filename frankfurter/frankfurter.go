// Package frankfurter fetches exchange rates from the free frankfurter.app
// API.
package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenqin/folio"
)

const defaultBaseURL = "https://api.frankfurter.app"

// Client fetches spot rates. The zero value is not usable, call New.
type Client struct {
	http    *http.Client
	baseURL string
}

// Option tweaks a Client, mainly to point it at a test server.
type Option func(*Client)

func WithBaseURL(u string) Option    { return func(c *Client) { c.baseURL = u } }
func WithHTTP(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRate returns the current rate converting one unit of base into
// quote.
func (c *Client) FetchRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	addr := fmt.Sprintf("%s/latest?from=%s&to=%s", c.baseURL, base, quote)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%v: %w", err, folio.ErrDataUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("GET %s: %s: %w", addr, resp.Status, folio.ErrDataUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}
	var payload struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("decoding rate response: %w", err)
	}
	rate, ok := payload.Rates[quote]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("no %s rate in response: %w", quote, folio.ErrDataUnavailable)
	}
	return rate, nil
}

var _ folio.RateProvider = (*Client)(nil)
