package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

// Limit bounds for the two search paths.
const (
	MaxProviderLimit = 50
	MaxRequestLimit  = 100
)

// Service ranks providers and open care requests against a Query.
type Service interface {
	MatchProviders(ctx context.Context, q Query) (ProviderResult, error)
	MatchRequests(ctx context.Context, q Query) (RequestResult, error)
}

// CandidateSource is the contract this engine expects from the external
// relational store: all candidates offering a service, geometry untouched.
// Distance, radius filtering, ordering and truncation stay in the engine.
type CandidateSource interface {
	ProvidersByService(ctx context.Context, service string) ([]Provider, error)
	OpenRequestsByService(ctx context.Context, service string) ([]CareRequest, error)
}

// CandidateCache is an optional read-through cache for per-service provider
// lists. Open care requests are never cached; they churn too quickly.
type CandidateCache interface {
	GetProviders(ctx context.Context, service string) ([]Provider, bool, error)
	SaveProviders(ctx context.Context, service string, providers []Provider, ttl time.Duration) error
}

// Config carries engine defaults resolved from runtime configuration.
type Config struct {
	DefaultRadiusKm      float64
	DefaultProviderLimit int
	DefaultRequestLimit  int
	CacheTTL             time.Duration
}

type service struct {
	cfg    Config
	source CandidateSource
	cache  CandidateCache
	logger *slog.Logger
}

// NewService wires up the geo matching engine. cache may be nil.
func NewService(cfg Config, source CandidateSource, cache CandidateCache, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		source: source,
		cache:  cache,
		logger: logger.With("component", "match.service"),
	}
}

func (s *service) MatchProviders(ctx context.Context, q Query) (ProviderResult, error) {
	q, err := s.normalize(q, s.cfg.DefaultProviderLimit, MaxProviderLimit)
	if err != nil {
		return ProviderResult{}, err
	}

	providers, err := s.loadProviders(ctx, q.Service)
	if err != nil {
		return ProviderResult{}, apperrors.Wrap("match_backend_error", "provider lookup failed", err)
	}

	matches := make([]ProviderMatch, 0, len(providers))
	for _, p := range providers {
		if !offersService(p.Services, q.Service) {
			continue
		}
		if q.When != nil && !availableAt(p, *q.When) {
			continue
		}
		dist := DistanceKm(q.Origin, p.Location)
		if dist > q.RadiusKm {
			continue
		}
		matches = append(matches, ProviderMatch{Provider: p, DistanceKm: dist})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Rating > matches[j].Rating
	})

	total := len(matches)
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	s.logger.Debug("provider match", "service", q.Service, "total", total, "returned", len(matches))
	return ProviderResult{Providers: matches, Total: total}, nil
}

func (s *service) MatchRequests(ctx context.Context, q Query) (RequestResult, error) {
	q, err := s.normalize(q, s.cfg.DefaultRequestLimit, MaxRequestLimit)
	if err != nil {
		return RequestResult{}, err
	}

	requests, err := s.source.OpenRequestsByService(ctx, q.Service)
	if err != nil {
		return RequestResult{}, apperrors.Wrap("match_backend_error", "care request lookup failed", err)
	}

	matches := make([]RequestMatch, 0, len(requests))
	for _, r := range requests {
		if r.Status != RequestStatusOpen {
			continue
		}
		if !strings.EqualFold(r.Service, q.Service) {
			continue
		}
		dist := DistanceKm(q.Origin, r.Location)
		if dist > q.RadiusKm {
			continue
		}
		matches = append(matches, RequestMatch{CareRequest: r, DistanceKm: dist})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	total := len(matches)
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	s.logger.Debug("request match", "service", q.Service, "total", total, "returned", len(matches))
	return RequestResult{Requests: matches, Total: total}, nil
}

// normalize validates the query and applies defaults and limit clamping.
// Validation always happens before any candidate lookup.
func (s *service) normalize(q Query, defaultLimit, maxLimit int) (Query, error) {
	q.Service = strings.TrimSpace(q.Service)
	if q.Service == "" {
		return Query{}, apperrors.Wrap("invalid_input", "service cannot be empty", nil)
	}
	if !validCoordinate(q.Origin) {
		return Query{}, apperrors.Wrap("invalid_input", "lat/lng must be a valid coordinate", nil)
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = s.cfg.DefaultRadiusKm
	}
	if q.RadiusKm <= 0 {
		return Query{}, apperrors.Wrap("invalid_input", "radius must be positive", nil)
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q, nil
}

func (s *service) loadProviders(ctx context.Context, svc string) ([]Provider, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetProviders(ctx, svc); err == nil && ok {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("candidate cache read failed", "service", svc, "error", err)
		}
	}
	providers, err := s.source.ProvidersByService(ctx, svc)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SaveProviders(ctx, svc, providers, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("candidate cache write failed", "service", svc, "error", err)
		}
	}
	return providers, nil
}

func offersService(services []string, wanted string) bool {
	for _, svc := range services {
		if strings.EqualFold(svc, wanted) {
			return true
		}
	}
	return false
}

// availableAt applies the minimum viable availability rule: a provider
// matches a requested instant only when it has published a next-available
// timestamp at or before that instant.
func availableAt(p Provider, when time.Time) bool {
	if p.NextAvailable == nil {
		return false
	}
	return !when.Before(*p.NextAvailable)
}
