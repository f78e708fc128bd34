package ports

import (
	"context"
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Actor     *domain.Actor
}

// AuthService covers credential flows for all actor kinds.
type AuthService interface {
	Login(ctx context.Context, kind domain.ActorKind, login, password string) (*LoginResult, error)
	RegisterEndUser(ctx context.Context, login, password, displayName string) (*domain.Actor, error)
	RegisterStudio(ctx context.Context, login, password, name string) (*domain.Actor, error)
	ChangePassword(ctx context.Context, actor *domain.Actor, current, next string) error
	SetActive(ctx context.Context, kind domain.ActorKind, id string, active bool) error
	// EnsureMasterAdmin creates the master admin when none with login exists.
	EnsureMasterAdmin(ctx context.Context, login, password string) error
	TokenTTL() time.Duration
}

// SessionResolver maps a raw bearer token to a live actor.
type SessionResolver interface {
	Resolve(ctx context.Context, rawToken string) (*domain.Actor, error)
}

// Guard decides whether an actor may invoke an operation.
type Guard interface {
	Authorize(actor *domain.Actor, allowed domain.KindSet, scopeOwnerID string) error
}
