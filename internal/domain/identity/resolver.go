package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtResolver struct {
	secret    []byte
	directory Directory
	logger    *slog.Logger
	now       func() time.Time
}

// NewJWTResolver verifies HS256 bearer tokens and enriches the subject with
// its directory roles.
func NewJWTResolver(secret string, directory Directory, logger *slog.Logger) Resolver {
	return &jwtResolver{
		secret:    []byte(secret),
		directory: directory,
		logger:    logger.With("component", "identity.resolver"),
		now:       time.Now,
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (r *jwtResolver) Resolve(ctx context.Context, credential string) (Identity, bool, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || len(r.secret) == 0 {
		return Identity{}, false, nil
	}

	claims, err := r.parse(credential)
	if err != nil {
		r.logger.Debug("bearer token not resolvable", "error", err)
		return Identity{}, false, nil
	}

	id := Identity{UserID: claims.Subject, Email: claims.Email}
	roles, err := r.directory.RolesForUser(ctx, claims.Subject)
	if err != nil {
		return Identity{}, false, fmt.Errorf("directory lookup for %s: %w", claims.Subject, err)
	}
	id.PatientID = roles.PatientID
	id.ProviderID = roles.ProviderID
	return id, true, nil
}

func (r *jwtResolver) parse(token string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(r.now()) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}
