// Package service orchestrates registry operations: input normalization and
// validation, store access, and registration events. It is transport-agnostic;
// the HTTP layer maps its errors onto status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/names/domain"
	"github.com/xrs-network/xrsd/internal/pubsub"
)

const tracerName = "github.com/xrs-network/xrsd/internal/names/service"

// Search and listing bounds.
const (
	MinQueryLen = 2
	MaxQueryLen = 32

	DefaultSearchLimit = 20
	MaxSearchLimit     = 100

	DefaultRecentLimit = 10
	MaxRecentLimit     = 50

	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Registration is the payload published on the event broker when a name is
// claimed or its address changes.
type Registration struct {
	Name    string
	Address string
	At      time.Time
}

// Service implements the registry operations over a NameRepository.
type Service struct {
	repo   domain.NameRepository
	events *pubsub.Broker[Registration]
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Tests use this for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEvents sets the broker registration events are published on.
func WithEvents(b *pubsub.Broker[Registration]) Option {
	return func(s *Service) { s.events = b }
}

// New creates a Service over the given repository.
func New(repo domain.NameRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = pubsub.NewBroker[Registration]()
	}
	return s
}

// Events exposes the registration broker.
func (s *Service) Events() *pubsub.Broker[Registration] {
	return s.events
}

// CheckAvailability reports whether a handle is free to register.
func (s *Service) CheckAvailability(ctx context.Context, rawName string) (bool, error) {
	ctx, span := s.startSpan(ctx, "registry.check", rawName)
	defer span.End()

	name := domain.NormalizeName(rawName)
	if !domain.IsValidName(name) {
		return false, s.fail(span, domain.NewInvalidInput("name", "must be 3-32 lowercase alphanumerics or hyphens"))
	}

	_, err := s.repo.FindByName(ctx, name)
	var notFound *domain.NameNotFoundError
	switch {
	case errors.As(err, &notFound):
		return true, nil
	case err != nil:
		return false, s.fail(span, fmt.Errorf("availability check for %q: %w", name, err))
	default:
		return false, nil
	}
}

// Resolve returns the record registered under a handle.
func (s *Service) Resolve(ctx context.Context, rawName string) (*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.resolve", rawName)
	defer span.End()

	name := domain.NormalizeName(rawName)
	if !domain.IsValidName(name) {
		return nil, s.fail(span, domain.NewInvalidInput("name", "must be 3-32 lowercase alphanumerics or hyphens"))
	}

	record, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return record, nil
}

// ReverseLookup returns every record owned by an address, primary name first.
func (s *Service) ReverseLookup(ctx context.Context, address string) ([]*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.reverse", "")
	defer span.End()

	address = strings.TrimSpace(address)
	if !domain.IsValidAddress(address) {
		return nil, s.fail(span, domain.NewInvalidInput("address", "must be 32-64 alphanumeric characters"))
	}

	records, err := s.repo.FindByAddress(ctx, address)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("reverse lookup: %w", err))
	}
	return records, nil
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name           string
	Address        string
	OwnerSignature string
	Metadata       map[string]any
}

// Register claims a handle for an address. The availability pre-check is an
// optimization only; the store's atomic insert is the real protection against
// concurrent claims.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.register", in.Name)
	defer span.End()

	name := domain.NormalizeName(in.Name)
	if !domain.IsValidName(name) {
		return nil, s.fail(span, domain.NewInvalidInput("name", "must be 3-32 lowercase alphanumerics or hyphens"))
	}
	address := strings.TrimSpace(in.Address)
	if !domain.IsValidAddress(address) {
		return nil, s.fail(span, domain.NewInvalidInput("address", "must be 32-64 alphanumeric characters"))
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, s.fail(span, domain.ErrNameTaken)
	}

	now := s.now()
	record := &domain.NameRecord{
		Name:           name,
		Address:        address,
		OwnerSignature: strings.TrimSpace(in.OwnerSignature),
		RegisteredAt:   now,
		UpdatedAt:      now,
		Metadata:       domain.SanitizeMetadata(in.Metadata),
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		if errors.Is(err, domain.ErrNameTaken) {
			return nil, s.fail(span, domain.ErrNameTaken)
		}
		return nil, s.fail(span, fmt.Errorf("register %q: %w", name, err))
	}

	log.Info(log.CatRegistry, "name registered", "name", name)
	s.events.Publish(pubsub.RegisteredEvent, Registration{Name: name, Address: address, At: now})
	return record, nil
}

// UpdateInput carries an address-update request.
type UpdateInput struct {
	Name           string
	Address        string
	OwnerSignature string
}

// Update points an existing handle at a new address. The signature is
// presence-checked only; ownership proof is out of scope.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.update", in.Name)
	defer span.End()

	if strings.TrimSpace(in.OwnerSignature) == "" {
		return nil, s.fail(span, domain.ErrMissingSignature)
	}
	name := domain.NormalizeName(in.Name)
	if !domain.IsValidName(name) {
		return nil, s.fail(span, domain.NewInvalidInput("name", "must be 3-32 lowercase alphanumerics or hyphens"))
	}
	address := strings.TrimSpace(in.Address)
	if !domain.IsValidAddress(address) {
		return nil, s.fail(span, domain.NewInvalidInput("address", "must be 32-64 alphanumeric characters"))
	}

	now := s.now()
	if err := s.repo.UpdateAddress(ctx, name, address, now); err != nil {
		return nil, s.fail(span, err)
	}

	record, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("reload after update: %w", err))
	}

	log.Info(log.CatRegistry, "address updated", "name", name)
	s.events.Publish(pubsub.UpdatedEvent, Registration{Name: name, Address: address, At: now})
	return record, nil
}

// Search returns records whose names start with the query prefix.
func (s *Service) Search(ctx context.Context, rawQuery string, limit int) ([]*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.search", "")
	defer span.End()

	query := strings.TrimSpace(rawQuery)
	if len(query) < MinQueryLen || len(query) > MaxQueryLen {
		return nil, s.fail(span, domain.NewInvalidInput("query", "must be 2-32 characters"))
	}
	query = domain.SanitizeSearchQuery(query)
	if len(query) < MinQueryLen {
		return nil, s.fail(span, domain.NewInvalidInput("query", "must contain at least 2 searchable characters"))
	}

	limit = clamp(limit, DefaultSearchLimit, MaxSearchLimit)
	records, err := s.repo.SearchByPrefix(ctx, query, limit)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("search %q: %w", query, err))
	}
	return records, nil
}

// Recent returns the newest registrations.
func (s *Service) Recent(ctx context.Context, limit int) ([]*domain.NameRecord, error) {
	ctx, span := s.startSpan(ctx, "registry.recent", "")
	defer span.End()

	limit = clamp(limit, DefaultRecentLimit, MaxRecentLimit)
	records, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("recent: %w", err))
	}
	return records, nil
}

// DirectoryPage is one page of the alphabetical directory.
type DirectoryPage struct {
	Records []*domain.NameRecord
	Page    int
	Limit   int
	Total   int
	Pages   int
}

// Directory returns one page of all registered names ordered alphabetically.
func (s *Service) Directory(ctx context.Context, page, limit int) (*DirectoryPage, error) {
	ctx, span := s.startSpan(ctx, "registry.directory", "")
	defer span.End()

	if page < 1 {
		page = 1
	}
	limit = clamp(limit, DefaultPageLimit, MaxPageLimit)

	records, total, err := s.repo.ListPage(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("directory: %w", err))
	}

	return &DirectoryPage{
		Records: records,
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   (total + limit - 1) / limit,
	}, nil
}

// Stats summarizes registry size.
type Stats struct {
	Names     int
	Addresses int
}

// Stats returns total name and distinct owner counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := s.startSpan(ctx, "registry.stats", "")
	defer span.End()

	names, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("stats: %w", err))
	}
	addresses, err := s.repo.CountDistinctAddresses(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("stats: %w", err))
	}
	return &Stats{Names: names, Addresses: addresses}, nil
}

func (s *Service) startSpan(ctx context.Context, op, name string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{}
	if name != "" {
		attrs = append(attrs, attribute.String("registry.name", domain.NormalizeName(name)))
	}
	return s.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// fail records an error on the span and passes it through.
func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func clamp(limit, def, max int) int {
	switch {
	case limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}
