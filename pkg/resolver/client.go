// Package resolver is the client-side convenience layer for integrators
// (wallets, explorers) that turn user input into addresses or display names.
//
// Every lookup degrades softly: network errors, non-2xx statuses, and
// malformed responses all collapse to empty/false results rather than
// surfacing errors, trading failure signal for integration simplicity.
// Results are served from a read-through TTL cache owned by the Client.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xrs-network/xrsd/internal/cachemanager"
	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/names/domain"
)

// DefaultTTL is how long cached resolutions stay fresh.
const DefaultTTL = 5 * time.Minute

const defaultRequestTimeout = 10 * time.Second

// entry is a cached lookup result. Staleness is judged against the client's
// own clock, not go-cache's, so tests can inject time; the cache TTL only
// garbage-collects entries lazily.
type entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// Client resolves names and addresses against a registry endpoint.
type Client struct {
	endpoint  string
	http      *http.Client
	ttl       time.Duration
	now       func() time.Time
	nameCache cachemanager.CacheManager[string, entry[string]]
	addrCache cachemanager.CacheManager[string, entry[[]string]]
}

// Option configures a Client.
type Option func(*Client)

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client against the registry at endpoint
// (e.g. "http://localhost:8545").
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: defaultRequestTimeout},
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.nameCache = cachemanager.NewInMemoryCacheManager[string, entry[string]](
		"resolver-names", c.ttl, cachemanager.DefaultCleanupInterval)
	c.addrCache = cachemanager.NewInMemoryCacheManager[string, entry[[]string]](
		"resolver-addrs", c.ttl, cachemanager.DefaultCleanupInterval)
	return c
}

// IsName reports whether input is handle-shaped: a bare or ".xrs"-suffixed
// string whose normalized form is a valid handle. The same rules the server
// enforces apply here, consecutive hyphens included.
func (c *Client) IsName(input string) bool {
	return domain.IsValidName(domain.NormalizeName(input))
}

// Resolve returns the address registered under name, or "" when the name is
// unregistered or the lookup fails. A 404 is cached as "known absent"; other
// failures are not cached so the next call retries.
func (c *Client) Resolve(ctx context.Context, name string) string {
	normalized := domain.NormalizeName(name)
	key := "name:" + normalized

	if cached, ok := c.nameCache.Get(ctx, key); ok && c.fresh(cached.StoredAt) {
		return cached.Value
	}

	var resp struct {
		Address string `json:"address"`
	}
	status, err := c.getJSON(ctx, "/api/resolve/"+normalized, &resp)
	switch {
	case err != nil:
		log.Warn(log.CatResolver, "resolve failed", "name", normalized, "error", err)
		return ""
	case status == http.StatusNotFound:
		c.nameCache.Set(ctx, key, entry[string]{StoredAt: c.now()}, c.ttl)
		return ""
	case status != http.StatusOK:
		log.Warn(log.CatResolver, "resolve returned unexpected status", "name", normalized, "status", status)
		return ""
	}

	c.nameCache.Set(ctx, key, entry[string]{Value: resp.Address, StoredAt: c.now()}, c.ttl)
	return resp.Address
}

// Reverse returns every display name owned by address, primary first, or an
// empty slice on any failure.
func (c *Client) Reverse(ctx context.Context, address string) []string {
	key := "addr:" + address

	if cached, ok := c.addrCache.Get(ctx, key); ok && c.fresh(cached.StoredAt) {
		return cached.Value
	}

	var resp struct {
		Names []struct {
			Name string `json:"name"`
		} `json:"names"`
	}
	status, err := c.getJSON(ctx, "/api/reverse/"+address, &resp)
	if err != nil || status != http.StatusOK {
		if err != nil {
			log.Warn(log.CatResolver, "reverse failed", "address", address, "error", err)
		}
		return nil
	}

	names := make([]string, 0, len(resp.Names))
	for _, n := range resp.Names {
		names = append(names, n.Name)
	}
	c.addrCache.Set(ctx, key, entry[[]string]{Value: names, StoredAt: c.now()}, c.ttl)
	return names
}

// PrimaryName returns the earliest-registered name for address, or "".
func (c *Client) PrimaryName(ctx context.Context, address string) string {
	names := c.Reverse(ctx, address)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// ResolveToAddress turns user input into an address. Address-shaped input
// (longer than 32 chars, no dot) passes through unchanged; name-shaped input
// resolves with the original input as fallback. Never returns "" for
// non-empty input.
func (c *Client) ResolveToAddress(ctx context.Context, input string) string {
	if len(input) > 32 && !strings.Contains(input, ".") {
		return input
	}
	if c.IsName(input) {
		if address := c.Resolve(ctx, input); address != "" {
			return address
		}
	}
	return input
}

// DisplayString renders an address for humans: its primary name when one is
// registered, otherwise the full address (full=true) or a shortened
// first7...last7 form.
func (c *Client) DisplayString(ctx context.Context, address string, full bool) string {
	if name := c.PrimaryName(ctx, address); name != "" {
		return name
	}
	if full || len(address) <= 14 {
		return address
	}
	return address[:7] + "..." + address[len(address)-7:]
}

// CheckAvailability reports whether a name is free to register. Any failure
// reads as "not available", the conservative default.
func (c *Client) CheckAvailability(ctx context.Context, name string) bool {
	var resp struct {
		Available bool `json:"available"`
	}
	status, err := c.getJSON(ctx, "/api/check/"+domain.NormalizeName(name), &resp)
	if err != nil || status != http.StatusOK {
		return false
	}
	return resp.Available
}

// ClearCache empties both lookup caches unconditionally.
func (c *Client) ClearCache(ctx context.Context) {
	_ = c.nameCache.Flush(ctx)
	_ = c.addrCache.Flush(ctx)
}

func (c *Client) fresh(storedAt time.Time) bool {
	return c.now().Sub(storedAt) < c.ttl
}

// getJSON issues a GET and decodes a 2xx or 404 body into out. Non-OK
// statuses are returned for the caller to interpret; only transport and
// decode problems are errors.
func (c *Client) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
