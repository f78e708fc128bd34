package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenService_RoundTrip(t *testing.T) {
	for _, kind := range []domain.ActorKind{domain.KindEndUser, domain.KindStudio, domain.KindMasterAdmin} {
		t.Run(kind.String(), func(t *testing.T) {
			svc := NewTokenService("secret").WithClock(fixedClock(testEpoch))

			token, exp, err := svc.Issue("actor-1", kind, time.Hour)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if !exp.Equal(testEpoch.Add(time.Hour)) {
				t.Errorf("expected exp %v, got %v", testEpoch.Add(time.Hour), exp)
			}

			claims, err := svc.Verify(token)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.SubjectID != "actor-1" || claims.Kind != kind {
				t.Errorf("unexpected claims: %+v", claims)
			}
			if !claims.IssuedAt.Equal(testEpoch) || !claims.ExpiresAt.Equal(exp) {
				t.Errorf("unexpected times: iat=%v exp=%v", claims.IssuedAt, claims.ExpiresAt)
			}
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	issuer := NewTokenService("secret").WithClock(fixedClock(testEpoch))
	token, _, err := issuer.Issue("actor-1", domain.KindStudio, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later := testEpoch.Add(time.Minute)
	tests := []struct {
		name  string
		svc   *TokenService
		token string
	}{
		{name: "valid signature", svc: NewTokenService("secret").WithClock(fixedClock(later)), token: token},
		{name: "wrong key", svc: NewTokenService("other").WithClock(fixedClock(later)), token: token},
		{name: "tampered signature", svc: NewTokenService("secret").WithClock(fixedClock(later)), token: token[:len(token)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Verify(tt.token)
			if !errors.Is(err, domain.ErrExpiredToken) {
				t.Fatalf("expected ErrExpiredToken, got %v", err)
			}
		})
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("secret").WithClock(fixedClock(testEpoch))
	valid, _, err := svc.Issue("actor-1", domain.KindEndUser, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "actor-1",
		IssuedAt:  jwt.NewNumericDate(testEpoch),
		ExpiresAt: jwt.NewNumericDate(testEpoch.Add(time.Hour)),
	}
	noExp := base
	noExp.ExpiresAt = nil
	foreignIssuer := base
	foreignIssuer.Issuer = "someone-else"

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong key", token: sign(jwt.SigningMethodHS256, []byte("other"), sessionClaims{Act: "studio", RegisteredClaims: base})},
		{name: "tampered payload", token: tamperPayload(valid)},
		{name: "unknown kind", token: sign(jwt.SigningMethodHS256, []byte("secret"), sessionClaims{Act: "root", RegisteredClaims: base})},
		{name: "missing exp", token: sign(jwt.SigningMethodHS256, []byte("secret"), sessionClaims{Act: "studio", RegisteredClaims: noExp})},
		{name: "foreign issuer", token: sign(jwt.SigningMethodHS256, []byte("secret"), sessionClaims{Act: "studio", RegisteredClaims: foreignIssuer})},
		{name: "none algorithm", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, sessionClaims{Act: "studio", RegisteredClaims: base})},
		{name: "hs512", token: sign(jwt.SigningMethodHS512, []byte("secret"), sessionClaims{Act: "studio", RegisteredClaims: base})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, domain.ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

// tamperPayload swaps the payload segment for one claiming a different kind.
func tamperPayload(token string) string {
	parts := strings.Split(token, ".")
	other, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Act: domain.KindMasterAdmin.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "actor-1",
			IssuedAt:  jwt.NewNumericDate(testEpoch),
			ExpiresAt: jwt.NewNumericDate(testEpoch.Add(time.Hour)),
		},
	}).SignedString([]byte("attacker"))
	parts[1] = strings.Split(other, ".")[1]
	return strings.Join(parts, ".")
}

func TestTokenService_IssueRejects(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		subject string
		kind    domain.ActorKind
		ttl     time.Duration
	}{
		{name: "no secret", secret: "", subject: "a", kind: domain.KindStudio, ttl: time.Hour},
		{name: "no subject", secret: "s", subject: " ", kind: domain.KindStudio, ttl: time.Hour},
		{name: "invalid kind", secret: "s", subject: "a", kind: 0, ttl: time.Hour},
		{name: "non positive ttl", secret: "s", subject: "a", kind: domain.KindStudio, ttl: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := NewTokenService(tt.secret).Issue(tt.subject, tt.kind, tt.ttl); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
