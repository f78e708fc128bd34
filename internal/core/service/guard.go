package service

import (
	"fmt"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// Guard applies per-route policy. All denials wrap domain.ErrForbidden; the
// wrapped reason is for logs and never reaches the client.
type Guard struct{}

func NewGuard() *Guard { return &Guard{} }

var _ ports.Guard = (*Guard)(nil)

// Authorize allows actor when its kind is in allowed and, if scopeOwnerID is
// set, it owns that scope. Master admins are never scope-restricted.
func (g *Guard) Authorize(actor *domain.Actor, allowed domain.KindSet, scopeOwnerID string) error {
	if actor == nil {
		return fmt.Errorf("%w: no actor", domain.ErrForbidden)
	}
	if !allowed.Has(actor.Kind) {
		return fmt.Errorf("%w: %s not in %s", domain.ErrForbidden, actor.Kind, allowed)
	}

	switch actor.Kind {
	case domain.KindMasterAdmin:
		return nil
	case domain.KindStudio:
		if scopeOwnerID != "" && scopeOwnerID != actor.ID {
			return fmt.Errorf("%w: studio %s outside scope %s", domain.ErrForbidden, actor.ID, scopeOwnerID)
		}
		return nil
	case domain.KindEndUser:
		if scopeOwnerID != "" {
			return fmt.Errorf("%w: end user has no tenant scope", domain.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown actor kind %d", domain.ErrForbidden, actor.Kind)
	}
}
