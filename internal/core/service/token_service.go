package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const tokenIssuer = "backoffice"

// sessionClaims is the JWT payload. Act names the actor kind so a token for
// one kind can never be mistaken for another, even under a shared key.
type sessionClaims struct {
	Act string `json:"act"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService returns a TokenService. An empty secret is accepted here
// and reported by Issue, so a misconfigured deployment fails loudly on first
// use rather than at import.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

var _ ports.TokenService = (*TokenService)(nil)

func (s *TokenService) Issue(subjectID string, kind domain.ActorKind, ttl time.Duration) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("token service: signing secret is not configured")
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, errors.New("token service: subject is required")
	}
	if !kind.Valid() {
		return "", time.Time{}, fmt.Errorf("token service: invalid actor kind %d", kind)
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("token service: ttl must be positive")
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := sessionClaims{
		Act: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token service: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify checks expiry from the decoded payload first, so an expired token is
// reported as expired whether or not its signature holds. Everything else
// that is wrong with a token is ErrMalformedToken.
func (s *TokenService) Verify(token string) (*ports.TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var unverified sessionClaims
	if _, _, err := parser.ParseUnverified(token, &unverified); err != nil {
		return nil, domain.ErrMalformedToken
	}
	if unverified.ExpiresAt == nil {
		return nil, domain.ErrMalformedToken
	}
	if !s.now().Before(unverified.ExpiresAt.Time) {
		return nil, domain.ErrExpiredToken
	}

	var claims sessionClaims
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if len(s.secret) == 0 {
			return nil, errors.New("signing secret is not configured")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, domain.ErrMalformedToken
	}

	kind, err := domain.ParseActorKind(claims.Act)
	if err != nil {
		return nil, domain.ErrMalformedToken
	}
	if claims.Issuer != tokenIssuer || strings.TrimSpace(claims.Subject) == "" || claims.IssuedAt == nil {
		return nil, domain.ErrMalformedToken
	}

	return &ports.TokenClaims{
		SubjectID: claims.Subject,
		Kind:      kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
