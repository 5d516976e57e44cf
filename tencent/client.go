// Package tencent fetches realtime quotes and daily klines from the public
// Tencent finance endpoints, for CN, HK and US listed assets.
package tencent

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wenqin/folio"
)

const (
	defaultQuoteURL = "https://qt.gtimg.cn/q="
	defaultKlineURL = "https://web.ifzq.gtimg.cn/appstock/app"

	maxRetries   = 3
	retryBackoff = 2 * time.Second
)

// Client talks to the Tencent endpoints. Kline responses go through a
// disk cache keyed by day so a backfill does not hammer the endpoint;
// realtime quotes always hit the network.
type Client struct {
	quoteHTTP *http.Client
	klineHTTP *http.Client
	quoteURL  string
	klineURL  string

	memoMu sync.Mutex
	memo   map[string]decimal.Decimal // (code, day) -> close
}

// Option tweaks a Client, mainly to point it at a test server.
type Option func(*Client)

func WithQuoteURL(u string) Option { return func(c *Client) { c.quoteURL = u } }
func WithKlineURL(u string) Option { return func(c *Client) { c.klineURL = u } }

// WithHTTP replaces both transports, bypassing the kline disk cache.
func WithHTTP(h *http.Client) Option {
	return func(c *Client) { c.quoteHTTP, c.klineHTTP = h, h }
}

// New returns a client with a daily-expiring disk cache on its kline
// transport.
func New(opts ...Option) *Client {
	c := &Client{
		quoteHTTP: &http.Client{Timeout: 15 * time.Second},
		klineHTTP: &http.Client{Transport: &diskCache{base: http.DefaultTransport}, Timeout: 15 * time.Second},
		quoteURL:  defaultQuoteURL,
		klineURL:  defaultKlineURL,
		memo:      make(map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches addr with the given client, retrying transient failures with
// a linearly growing backoff, and returns the raw body.
func (c *Client) get(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt).Str("url", addr).Msg("tencent request failed")
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("GET %s: %s", addr, resp.Status)
			log.Warn().Int("attempt", attempt).Str("status", resp.Status).Str("url", addr).Msg("tencent request rejected")
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("%v: %w", lastErr, folio.ErrDataUnavailable)
}

// diskCache caches HTTP responses on disk under a key that changes every
// day, so cached market data expires at midnight.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	day := time.Now().Format("2006-01-02")
	key := fmt.Sprintf("%x", sha1.Sum([]byte(day+" "+req.Method+" "+req.URL.String())))

	if resp, err := c.read(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.write(key, resp); err != nil {
		log.Debug().Err(err).Msg("response cache write failed")
	}
	return resp, nil
}

func (c *diskCache) read(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) write(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(os.TempDir(), key), content, 0o644)
}
