package match

import "time"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Provider is a care professional read from the external store.
type Provider struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Services      []string   `json:"services"`
	Specialties   []string   `json:"specialties"`
	Rating        float64    `json:"rating"`
	VisitCount    int        `json:"visitCount"`
	Price         float64    `json:"price"`
	NextAvailable *time.Time `json:"nextAvailable,omitempty"`
	Location      Coordinate `json:"location"`
}

// CareRequest is a patient-originated request awaiting a provider.
type CareRequest struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patientId,omitempty"`
	Service     string     `json:"service"`
	Description string     `json:"description,omitempty"`
	RequestedAt time.Time  `json:"requestedAt"`
	Status      string     `json:"status"`
	Location    Coordinate `json:"location"`
}

// Care request statuses persisted by the external store.
const (
	RequestStatusOpen   = "open"
	RequestStatusClosed = "closed"
)

// Query is the ephemeral search input built per request.
type Query struct {
	Service  string
	Origin   Coordinate
	When     *time.Time
	RadiusKm float64
	Limit    int
}

// ProviderMatch pairs a provider with its distance from the query origin.
type ProviderMatch struct {
	Provider
	DistanceKm float64 `json:"distanceKm"`
}

// RequestMatch pairs an open care request with its distance from the query origin.
type RequestMatch struct {
	CareRequest
	DistanceKm float64 `json:"distanceKm"`
}

// ProviderResult is a ranked, truncated page of provider candidates. Total is
// the pre-truncation count so callers can paginate without a second query.
type ProviderResult struct {
	Providers []ProviderMatch `json:"providers"`
	Total     int             `json:"total"`
}

// RequestResult is the care-request counterpart of ProviderResult.
type RequestResult struct {
	Requests []RequestMatch `json:"requests"`
	Total    int            `json:"total"`
}
