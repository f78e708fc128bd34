package ports

import (
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// TokenClaims is the verified payload of a session token.
type TokenClaims struct {
	SubjectID string
	Kind      domain.ActorKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(subjectID string, kind domain.ActorKind, ttl time.Duration) (token string, expiresAt time.Time, err error)
	// Verify returns domain.ErrExpiredToken or domain.ErrMalformedToken on failure.
	Verify(token string) (*TokenClaims, error)
}
