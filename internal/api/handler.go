// Package api exposes the registry over HTTP/JSON.
// Handlers translate between wire types and the service layer; the
// middleware chain handles recovery, logging, CORS, body caps, and
// rate limiting.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/names/domain"
	"github.com/xrs-network/xrsd/internal/names/service"
)

// ServiceName identifies this service in health and stats responses.
const ServiceName = "xrs-registry"

// Handler provides the HTTP endpoints for registry operations.
type Handler struct {
	svc     *service.Service
	version string
}

// NewHandler creates an API handler over the registry service.
func NewHandler(svc *service.Service, version string) *Handler {
	return &Handler{svc: svc, version: version}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/check/{name}", h.Check)
	mux.HandleFunc("GET /api/resolve/{name}", h.Resolve)
	mux.HandleFunc("GET /api/reverse/{address}", h.Reverse)
	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("PUT /api/update/{name}", h.Update)
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /api/recent", h.Recent)
	mux.HandleFunc("GET /api/directory", h.Directory)
	mux.HandleFunc("GET /api/stats", h.Stats)

	// Everything else is a JSON 404, not the default text page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return mux
}

// === Request/Response Types ===

// RegisterRequest is the request body for claiming a name.
type RegisterRequest struct {
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Signature string         `json:"signature,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RegisterResponse is the response body for a successful registration.
type RegisterResponse struct {
	Success    bool      `json:"success"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Registered time.Time `json:"registered"`
}

// UpdateRequest is the request body for repointing a name.
type UpdateRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

// UpdateResponse is the response body for a successful update.
type UpdateResponse struct {
	Success bool      `json:"success"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Updated time.Time `json:"updated"`
}

// CheckResponse is the response body for an availability check.
type CheckResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ResolveResponse is the response body for a name resolution.
type ResolveResponse struct {
	Name       string            `json:"name"`
	Address    string            `json:"address"`
	Registered time.Time         `json:"registered"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ReverseEntry is one owned name in a reverse lookup.
type ReverseEntry struct {
	Name       string    `json:"name"`
	Registered time.Time `json:"registered"`
}

// ReverseResponse is the response body for a reverse lookup.
type ReverseResponse struct {
	Address string         `json:"address"`
	Names   []ReverseEntry `json:"names"`
	Primary string         `json:"primary,omitempty"`
}

// SearchResponse is the response body for a prefix search.
type SearchResponse struct {
	Query   string            `json:"query"`
	Results []ResolveResponse `json:"results"`
}

// RecentResponse is the response body for the recent listing.
type RecentResponse struct {
	Recent []ResolveResponse `json:"recent"`
}

// DirectoryResponse is one page of the alphabetical directory.
type DirectoryResponse struct {
	Entries []ResolveResponse `json:"entries"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
}

// StatsResponse is the response body for registry statistics.
type StatsResponse struct {
	TotalNames   int    `json:"total_names"`
	UniqueOwners int    `json:"unique_owners"`
	Service      string `json:"service"`
	Version      string `json:"version"`
}

// HealthResponse is the response body for the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ErrorResponse is the response body for all error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// === Handlers ===

// Health reports service identity and liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: h.version,
	})
}

// Check reports whether a name is free to register.
// GET /api/check/{name}
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("name")

	available, err := h.svc.CheckAvailability(r.Context(), raw)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckResponse{
		Name:      displayName(raw),
		Available: available,
	})
}

// Resolve returns the address registered under a name.
// GET /api/resolve/{name}
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Resolve(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResolveResponse(record))
}

// Reverse returns every name owned by an address, primary first.
// GET /api/reverse/{address}
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	records, err := h.svc.ReverseLookup(r.Context(), address)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := ReverseResponse{
		Address: address,
		Names:   make([]ReverseEntry, 0, len(records)),
	}
	for _, record := range records {
		resp.Names = append(resp.Names, ReverseEntry{
			Name:       record.DisplayName(),
			Registered: record.RegisteredAt,
		})
	}
	if len(records) > 0 {
		resp.Primary = records[0].DisplayName()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Register claims a name for an address.
// POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:           req.Name,
		Address:        req.Address,
		OwnerSignature: req.Signature,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Success:    true,
		Name:       record.DisplayName(),
		Address:    record.Address,
		Registered: record.RegisteredAt,
	})
}

// Update points an existing name at a new address.
// PUT /api/update/{name}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := h.svc.Update(r.Context(), service.UpdateInput{
		Name:           r.PathValue("name"),
		Address:        req.Address,
		OwnerSignature: req.Signature,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateResponse{
		Success: true,
		Name:    record.DisplayName(),
		Address: record.Address,
		Updated: record.UpdatedAt,
	})
}

// Search returns names matching a prefix query.
// GET /api/search?q=al&limit=20
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	records, err := h.svc.Search(r.Context(), query, queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Results: toResolveResponses(records),
	})
}

// Recent returns the newest registrations.
// GET /api/recent?limit=10
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Recent(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecentResponse{Recent: toResolveResponses(records)})
}

// Directory returns one page of all names, alphabetical.
// GET /api/directory?page=1&limit=50
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Directory(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DirectoryResponse{
		Entries: toResolveResponses(page.Records),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	})
}

// Stats returns registry totals.
// GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalNames:   stats.Names,
		UniqueOwners: stats.Addresses,
		Service:      ServiceName,
		Version:      h.version,
	})
}

// === Helpers ===

// writeServiceError maps domain errors onto status codes. Anything
// unrecognized is a storage failure: logged in full, surfaced generically.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidInputError
	var notFound *domain.NameNotFoundError

	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, domain.ErrNameTaken):
		writeError(w, http.StatusConflict, "name is already registered")
	case errors.Is(err, domain.ErrMissingSignature):
		writeError(w, http.StatusUnauthorized, "signature is required")
	default:
		log.ErrorErr(log.CatHTTP, "storage failure", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toResolveResponse(record *domain.NameRecord) ResolveResponse {
	return ResolveResponse{
		Name:       record.DisplayName(),
		Address:    record.Address,
		Registered: record.RegisteredAt,
		Metadata:   record.Metadata,
	}
}

func toResolveResponses(records []*domain.NameRecord) []ResolveResponse {
	out := make([]ResolveResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResolveResponse(record))
	}
	return out
}

func displayName(raw string) string {
	return domain.NormalizeName(raw) + domain.DisplaySuffix
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.ErrorErr(log.CatHTTP, "failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
