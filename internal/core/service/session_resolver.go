package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// SessionResolver turns a raw token into a live actor. The actor is re-read
// on every call, so deactivation takes effect on the next request.
type SessionResolver struct {
	tokens ports.TokenService
	store  ports.CredentialStore
	log    zerolog.Logger
}

func NewSessionResolver(tokens ports.TokenService, store ports.CredentialStore, log zerolog.Logger) *SessionResolver {
	return &SessionResolver{tokens: tokens, store: store, log: log}
}

var _ ports.SessionResolver = (*SessionResolver)(nil)

// Resolve returns an error wrapping domain.ErrUnauthenticated on any failure.
func (r *SessionResolver) Resolve(ctx context.Context, rawToken string) (*domain.Actor, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("%w: no credential", domain.ErrUnauthenticated)
	}

	claims, err := r.tokens.Verify(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	actor, err := r.store.FindByID(ctx, claims.Kind, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s no longer exists", domain.ErrUnauthenticated, claims.Kind, claims.SubjectID)
		}
		r.log.Error().Err(err).Str("kind", claims.Kind.String()).Str("subject", claims.SubjectID).Msg("session lookup failed")
		return nil, fmt.Errorf("%w: lookup: %w", domain.ErrUnauthenticated, err)
	}
	if actor.Kind != claims.Kind {
		return nil, fmt.Errorf("%w: actor kind mismatch", domain.ErrUnauthenticated)
	}
	if !actor.Active {
		return nil, fmt.Errorf("%w: %s %s is inactive", domain.ErrUnauthenticated, claims.Kind, claims.SubjectID)
	}
	return actor, nil
}
