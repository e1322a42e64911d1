package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/care-backend/internal/domain/activity"
	"github.com/carebridge/care-backend/internal/domain/identity"
	"github.com/carebridge/care-backend/internal/domain/intake"
	"github.com/carebridge/care-backend/internal/domain/match"
	"github.com/carebridge/care-backend/internal/infra/config"
	apperrors "github.com/carebridge/care-backend/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	matchSvc    match.Service
	intakeSvc   intake.Service
	activityLog *activity.Log
	resolver    identity.Resolver
	identityCfg config.IdentityConfig
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(matchSvc match.Service, intakeSvc intake.Service, log *activity.Log, resolver identity.Resolver, identityCfg config.IdentityConfig, logger *slog.Logger) *Handler {
	return &Handler{
		matchSvc:    matchSvc,
		intakeSvc:   intakeSvc,
		activityLog: log,
		resolver:    resolver,
		identityCfg: identityCfg,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports process liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MatchProviders ranks providers for a service around a coordinate.
func (h *Handler) MatchProviders(c *gin.Context) {
	query, ok := h.parseMatchQuery(c, true)
	if !ok {
		return
	}

	result, err := h.matchSvc.MatchProviders(c.Request.Context(), query)
	if err != nil {
		h.abortMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MatchRequests ranks open care requests for a service around a coordinate.
func (h *Handler) MatchRequests(c *gin.Context) {
	query, ok := h.parseMatchQuery(c, false)
	if !ok {
		return
	}

	result, err := h.matchSvc.MatchRequests(c.Request.Context(), query)
	if err != nil {
		h.abortMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) parseMatchQuery(c *gin.Context, allowWhen bool) (match.Query, bool) {
	query := match.Query{Service: c.Query("service")}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "lat must be a number", err))
		return match.Query{}, false
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "lng must be a number", err))
		return match.Query{}, false
	}
	query.Origin = match.Coordinate{Lat: lat, Lng: lng}

	if raw := c.Query("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "radius must be a number", err))
			return match.Query{}, false
		}
		if radius <= 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "radius must be positive", nil))
			return match.Query{}, false
		}
		query.RadiusKm = radius
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "limit must be an integer", err))
			return match.Query{}, false
		}
		query.Limit = limit
	}
	if raw := c.Query("when"); raw != "" {
		if !allowWhen {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "when is not supported for care request matching", nil))
			return match.Query{}, false
		}
		when, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "when must be an RFC 3339 timestamp", err))
			return match.Query{}, false
		}
		query.When = &when
	}
	return query, true
}

func (h *Handler) abortMatchError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "match_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_input"
	case apperrors.IsCode(err, "match_backend_error"):
		status = http.StatusBadGateway
		code = "match_backend_error"
	}
	abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
