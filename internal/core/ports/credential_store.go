package ports

import (
	"context"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// CredentialStore persists actor records. Every lookup is scoped to one
// actor kind; logins of different kinds never collide.
type CredentialStore interface {
	FindByLogin(ctx context.Context, kind domain.ActorKind, login string) (*domain.Actor, error)
	FindByID(ctx context.Context, kind domain.ActorKind, id string) (*domain.Actor, error)
	// Create stores a new actor; a taken login yields domain.ErrAlreadyExists.
	Create(ctx context.Context, actor *domain.Actor) (*domain.Actor, error)
	SetActive(ctx context.Context, kind domain.ActorKind, id string, active bool) error
	UpdatePassword(ctx context.Context, kind domain.ActorKind, id, passwordHash string) error
}
