package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

var sanFrancisco = Coordinate{Lat: 37.77, Lng: -122.42}

func testConfig() Config {
	return Config{
		DefaultRadiusKm:      50,
		DefaultProviderLimit: 20,
		DefaultRequestLimit:  50,
	}
}

func newTestService(t *testing.T, source CandidateSource, cache CandidateCache) Service {
	t.Helper()
	return NewService(testConfig(), source, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// providerAt builds a provider offset north of San Francisco by roughly km kilometers.
func providerAt(id string, km float64, rating float64) Provider {
	return Provider{
		ID:       id,
		Name:     "Provider " + id,
		Role:     "caregiver",
		Services: []string{"nursing"},
		Rating:   rating,
		Location: Coordinate{Lat: sanFrancisco.Lat + km/111.0, Lng: sanFrancisco.Lng},
	}
}

func TestMatchProvidersRadiusFilter(t *testing.T) {
	source := &stubSource{providers: []Provider{
		providerAt("near", 2, 4.5),
		providerAt("far", 15, 5.0),
	}}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchProviders(context.Background(), Query{
		Service:  "nursing",
		Origin:   sanFrancisco,
		RadiusKm: 10,
		Limit:    5,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Len(t, res.Providers, 1)
	require.Equal(t, "near", res.Providers[0].ID)
	require.LessOrEqual(t, res.Providers[0].DistanceKm, 10.0)
}

func TestMatchProvidersOrdering(t *testing.T) {
	twin := providerAt("twin-low", 5, 3.0)
	twinHigh := providerAt("twin-high", 5, 4.8)
	source := &stubSource{providers: []Provider{
		providerAt("far", 20, 5.0),
		twin,
		twinHigh,
		providerAt("near", 1, 2.0),
	}}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchProviders(context.Background(), Query{Service: "nursing", Origin: sanFrancisco})
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)

	ids := make([]string, 0, len(res.Providers))
	for _, p := range res.Providers {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"near", "twin-high", "twin-low", "far"}, ids)

	for i := 1; i < len(res.Providers); i++ {
		require.GreaterOrEqual(t, res.Providers[i].DistanceKm, res.Providers[i-1].DistanceKm)
	}
}

func TestMatchProvidersLimitClampAndTotal(t *testing.T) {
	providers := make([]Provider, 0, 60)
	for i := 0; i < 60; i++ {
		providers = append(providers, providerAt(fmt.Sprintf("p%02d", i), float64(i%30), 3.0))
	}
	source := &stubSource{providers: providers}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchProviders(context.Background(), Query{
		Service: "nursing",
		Origin:  sanFrancisco,
		Limit:   500,
	})
	require.NoError(t, err)
	require.Equal(t, 60, res.Total)
	require.Len(t, res.Providers, MaxProviderLimit)
}

func TestMatchProvidersAvailabilityWindow(t *testing.T) {
	when := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	before := when.Add(-time.Hour)
	after := when.Add(time.Hour)

	ready := providerAt("ready", 1, 4.0)
	ready.NextAvailable = &before
	exact := providerAt("exact", 2, 4.0)
	exact.NextAvailable = &when
	booked := providerAt("booked", 3, 4.0)
	booked.NextAvailable = &after
	unknown := providerAt("unknown", 4, 4.0)

	source := &stubSource{providers: []Provider{ready, exact, booked, unknown}}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchProviders(context.Background(), Query{
		Service: "nursing",
		Origin:  sanFrancisco,
		When:    &when,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, "ready", res.Providers[0].ID)
	require.Equal(t, "exact", res.Providers[1].ID)
}

func TestMatchProvidersValidation(t *testing.T) {
	source := &stubSource{}
	svc := newTestService(t, source, nil)

	cases := []struct {
		name  string
		query Query
	}{
		{"empty service", Query{Service: "  ", Origin: sanFrancisco}},
		{"lat out of range", Query{Service: "nursing", Origin: Coordinate{Lat: 91, Lng: 0}}},
		{"lng out of range", Query{Service: "nursing", Origin: Coordinate{Lat: 0, Lng: -181}}},
		{"negative radius", Query{Service: "nursing", Origin: sanFrancisco, RadiusKm: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.MatchProviders(context.Background(), tc.query)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_input"))
		})
	}
	require.Zero(t, source.providerCalls, "validation must short-circuit before the data source")
}

func TestMatchProvidersBackendError(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	svc := newTestService(t, source, nil)

	_, err := svc.MatchProviders(context.Background(), Query{Service: "nursing", Origin: sanFrancisco})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "match_backend_error"))
}

func TestMatchProvidersCacheReadThrough(t *testing.T) {
	source := &stubSource{providers: []Provider{providerAt("p1", 2, 4.0)}}
	cache := &stubCache{}
	cfg := testConfig()
	cfg.CacheTTL = time.Minute
	svc := NewService(cfg, source, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.MatchProviders(context.Background(), Query{Service: "nursing", Origin: sanFrancisco})
	require.NoError(t, err)
	require.Equal(t, 1, source.providerCalls)
	require.Len(t, cache.saved, 1)

	_, err = svc.MatchProviders(context.Background(), Query{Service: "nursing", Origin: sanFrancisco})
	require.NoError(t, err)
	require.Equal(t, 1, source.providerCalls, "second lookup must be served from cache")
}

func TestMatchRequestsFilterAndOrder(t *testing.T) {
	source := &stubSource{requests: []CareRequest{
		{ID: "far", Service: "nursing", Status: RequestStatusOpen, Location: Coordinate{Lat: sanFrancisco.Lat + 0.2, Lng: sanFrancisco.Lng}},
		{ID: "near", Service: "nursing", Status: RequestStatusOpen, Location: Coordinate{Lat: sanFrancisco.Lat + 0.01, Lng: sanFrancisco.Lng}},
		{ID: "closed", Service: "nursing", Status: RequestStatusClosed, Location: sanFrancisco},
		{ID: "other", Service: "physio", Status: RequestStatusOpen, Location: sanFrancisco},
	}}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchRequests(context.Background(), Query{Service: "nursing", Origin: sanFrancisco})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, "near", res.Requests[0].ID)
	require.Equal(t, "far", res.Requests[1].ID)
}

func TestMatchRequestsLimitClamp(t *testing.T) {
	requests := make([]CareRequest, 0, 120)
	for i := 0; i < 120; i++ {
		requests = append(requests, CareRequest{
			ID:       fmt.Sprintf("req%03d", i),
			Service:  "nursing",
			Status:   RequestStatusOpen,
			Location: Coordinate{Lat: sanFrancisco.Lat + float64(i%40)/111.0, Lng: sanFrancisco.Lng},
		})
	}
	source := &stubSource{requests: requests}
	svc := newTestService(t, source, nil)

	res, err := svc.MatchRequests(context.Background(), Query{Service: "nursing", Origin: sanFrancisco, Limit: 1000})
	require.NoError(t, err)
	require.Equal(t, 120, res.Total)
	require.Len(t, res.Requests, MaxRequestLimit)
}

type stubSource struct {
	providers     []Provider
	requests      []CareRequest
	err           error
	providerCalls int
	requestCalls  int
}

func (s *stubSource) ProvidersByService(_ context.Context, _ string) ([]Provider, error) {
	s.providerCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.providers, nil
}

func (s *stubSource) OpenRequestsByService(_ context.Context, _ string) ([]CareRequest, error) {
	s.requestCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.requests, nil
}

type stubCache struct {
	saved map[string][]Provider
}

func (c *stubCache) GetProviders(_ context.Context, service string) ([]Provider, bool, error) {
	cached, ok := c.saved[service]
	return cached, ok, nil
}

func (c *stubCache) SaveProviders(_ context.Context, service string, providers []Provider, _ time.Duration) error {
	if c.saved == nil {
		c.saved = make(map[string][]Provider)
	}
	c.saved[service] = providers
	return nil
}
