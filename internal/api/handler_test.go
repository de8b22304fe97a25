package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrs-network/xrsd/internal/infrastructure/memory"
	"github.com/xrs-network/xrsd/internal/names/service"
)

const (
	addrA = "a000000000000000000000000000000000"
	addrB = "b000000000000000000000000000000000"
)

type apiFixture struct {
	handler http.Handler
	now     time.Time
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{now: time.Unix(1700000000, 0)}
	repo := memory.NewNameRepository()
	t.Cleanup(func() { _ = repo.Close() })

	svc := service.New(repo, service.WithClock(func() time.Time { return f.now }))
	f.handler = NewHandler(svc, "1.2.3").Routes()
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) register(t *testing.T, name, addr string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/register",
		`{"name":"`+name+`","address":"`+addr+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ServiceName, resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestRegisterEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/register",
		`{"name":"Alice.XRS","address":"`+addrA+`","metadata":{"description":"hi","hacker":"nope"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[RegisterResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "alice.xrs", resp.Name, "display name carries the suffix")
	assert.Equal(t, addrA, resp.Address)

	rec = f.do(t, http.MethodGet, "/api/resolve/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decode[ResolveResponse](t, rec)
	assert.Equal(t, "alice.xrs", resolved.Name)
	assert.Equal(t, map[string]string{"description": "hi"}, resolved.Metadata)
}

func TestRegisterEndpoint_Errors(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice", addrA)

	cases := []struct {
		label  string
		body   string
		status int
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest},
		{"invalid name", `{"name":"a","address":"` + addrA + `"}`, http.StatusBadRequest},
		{"invalid address", `{"name":"bob","address":"short"}`, http.StatusBadRequest},
		{"conflict", `{"name":"ALICE","address":"` + addrB + `"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/register", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestCheckEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/check/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[CheckResponse](t, rec).Available)

	f.register(t, "alice", addrA)

	rec = f.do(t, http.MethodGet, "/api/check/alice.xrs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CheckResponse](t, rec)
	assert.False(t, resp.Available)
	assert.Equal(t, "alice.xrs", resp.Name)

	rec = f.do(t, http.MethodGet, "/api/check/a", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveEndpoint_NotFound(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/resolve/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReverseEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	f.register(t, "first", addrA)
	f.now = f.now.Add(time.Minute)
	f.register(t, "second", addrA)

	rec := f.do(t, http.MethodGet, "/api/reverse/"+addrA, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ReverseResponse](t, rec)
	assert.Equal(t, addrA, resp.Address)
	require.Len(t, resp.Names, 2)
	assert.Equal(t, "first.xrs", resp.Primary)

	rec = f.do(t, http.MethodGet, "/api/reverse/tooshort", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice", addrA)

	rec := f.do(t, http.MethodPut, "/api/update/alice",
		`{"address":"`+addrB+`","signature":"sig"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[UpdateResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, addrB, resp.Address)

	// Missing signature is unauthorized, not a validation error.
	rec = f.do(t, http.MethodPut, "/api/update/alice", `{"address":"`+addrA+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/update/ghost",
		`{"address":"`+addrB+`","signature":"sig"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice", addrA)
	f.register(t, "albert", addrB)
	f.register(t, "bob", addrA)

	rec := f.do(t, http.MethodGet, "/api/search?q=al", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, "al", resp.Query)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "alice.xrs", resp.Results[0].Name)

	rec = f.do(t, http.MethodGet, "/api/search?q=a", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "old", addrA)
	f.now = f.now.Add(time.Second)
	f.register(t, "new", addrB)

	rec := f.do(t, http.MethodGet, "/api/recent?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[RecentResponse](t, rec)
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, "new.xrs", resp.Recent[0].Name)
}

func TestDirectoryEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	for _, name := range []string{"delta", "alpha", "echo", "bravo", "charlie"} {
		f.register(t, name, addrA)
	}

	rec := f.do(t, http.MethodGet, "/api/directory?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[DirectoryResponse](t, rec)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.Pages)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "alpha.xrs", resp.Entries[0].Name)
}

func TestStatsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "one", addrA)
	f.register(t, "two", addrA)
	f.register(t, "three", addrB)

	rec := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[StatsResponse](t, rec)
	assert.Equal(t, 3, resp.TotalNames)
	assert.Equal(t, 2, resp.UniqueOwners)
	assert.Equal(t, ServiceName, resp.Service)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error, "404 body is JSON, not the default text page")
}
