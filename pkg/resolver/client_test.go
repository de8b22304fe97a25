package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr40 = "a000000000000000000000000000000000000000"

type countingServer struct {
	*httptest.Server
	resolveCalls atomic.Int64
	reverseCalls atomic.Int64
}

// newRegistry fakes the registry API: "alice" resolves, everything else 404s;
// addr40 owns alice.
func newRegistry(t *testing.T) *countingServer {
	t.Helper()

	cs := &countingServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/resolve/{name}", func(w http.ResponseWriter, r *http.Request) {
		cs.resolveCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("name") != "alice" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"alice.xrs","address":"` + addr40 + `"}`))
	})

	mux.HandleFunc("GET /api/reverse/{address}", func(w http.ResponseWriter, r *http.Request) {
		cs.reverseCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("address") != addr40 {
			_, _ = w.Write([]byte(`{"address":"x","names":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"address":"` + addr40 + `","names":[{"name":"alice.xrs"},{"name":"al2.xrs"}],"primary":"alice.xrs"}`))
	})

	mux.HandleFunc("GET /api/check/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		available := r.PathValue("name") != "alice"
		if available {
			_, _ = w.Write([]byte(`{"name":"x","available":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"alice.xrs","available":false}`))
	})

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func TestIsName(t *testing.T) {
	c := New("http://unused")

	assert.True(t, c.IsName("alice"))
	assert.True(t, c.IsName("alice.xrs"))
	assert.True(t, c.IsName("Alice.XRS"), "normalization applies before validation")
	assert.False(t, c.IsName("al"))
	assert.False(t, c.IsName("al--ice"), "server hyphen rules apply client-side too")
	assert.False(t, c.IsName(addr40))
}

func TestResolve_CachesWithinTTL(t *testing.T) {
	registry := newRegistry(t)
	clock := time.Unix(1700000000, 0)
	c := New(registry.URL, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	require.Equal(t, addr40, c.Resolve(ctx, "alice"))
	require.Equal(t, addr40, c.Resolve(ctx, "Alice.xrs"), "normalized forms share one cache entry")
	assert.EqualValues(t, 1, registry.resolveCalls.Load(), "second resolve within TTL is a cache hit")

	// Past the TTL the entry is stale and a new call goes out.
	clock = clock.Add(DefaultTTL + time.Second)
	require.Equal(t, addr40, c.Resolve(ctx, "alice"))
	assert.EqualValues(t, 2, registry.resolveCalls.Load())
}

func TestResolve_NotFoundIsCached(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	assert.Empty(t, c.Resolve(ctx, "ghost"))
	assert.Empty(t, c.Resolve(ctx, "ghost"))
	assert.EqualValues(t, 1, registry.resolveCalls.Load(), "known-absent is cached, not retried")
}

func TestResolve_NetworkFailureSoftFails(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	assert.Empty(t, c.Resolve(context.Background(), "alice"))
}

func TestReverseAndPrimaryName(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	names := c.Reverse(ctx, addr40)
	require.Equal(t, []string{"alice.xrs", "al2.xrs"}, names)
	assert.Equal(t, "alice.xrs", c.PrimaryName(ctx, addr40))
	assert.EqualValues(t, 1, registry.reverseCalls.Load(), "PrimaryName reuses the cached reverse result")

	assert.Empty(t, c.PrimaryName(ctx, "b000000000000000000000000000000000000000"))
	assert.EqualValues(t, 2, registry.reverseCalls.Load())
}

func TestResolveToAddress(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	// Address-shaped input passes through without a network call.
	assert.Equal(t, addr40, c.ResolveToAddress(ctx, addr40))
	assert.EqualValues(t, 0, registry.resolveCalls.Load())

	assert.Equal(t, addr40, c.ResolveToAddress(ctx, "alice.xrs"))

	// Unregistered names fall back to the input, never "".
	assert.Equal(t, "ghost.xrs", c.ResolveToAddress(ctx, "ghost.xrs"))
}

func TestDisplayString(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	assert.Equal(t, "alice.xrs", c.DisplayString(ctx, addr40, false))

	unowned := "b000000000000000000000000000000000000000"
	assert.Equal(t, unowned, c.DisplayString(ctx, unowned, true))
	assert.Equal(t, "b000000...0000000", c.DisplayString(ctx, unowned, false))
}

func TestCheckAvailability(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	assert.True(t, c.CheckAvailability(ctx, "ghost"))
	assert.False(t, c.CheckAvailability(ctx, "alice"))

	down := New("http://127.0.0.1:1")
	assert.False(t, down.CheckAvailability(ctx, "ghost"), "failure reads as not available")
}

func TestClearCache(t *testing.T) {
	registry := newRegistry(t)
	c := New(registry.URL)
	ctx := context.Background()

	require.Equal(t, addr40, c.Resolve(ctx, "alice"))
	c.ClearCache(ctx)
	require.Equal(t, addr40, c.Resolve(ctx, "alice"))
	assert.EqualValues(t, 2, registry.resolveCalls.Load(), "flush forces a refetch")
}
