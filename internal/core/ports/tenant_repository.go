package ports

import (
	"context"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// TenantTx is the view of the tenant tree inside one store transaction.
// Every method must be called with the ctx handed to the WithinTx callback.
type TenantTx interface {
	FindStudio(ctx context.Context, id string) (*domain.Studio, error)
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	FindProject(ctx context.Context, id string) (*domain.Project, error)

	ClientsByStudio(ctx context.Context, studioID string) ([]domain.Client, error)
	ProjectsByClients(ctx context.Context, clientIDs []string) ([]domain.Project, error)
	SectionsByProjects(ctx context.Context, projectIDs []string) ([]domain.Section, error)

	DeleteSections(ctx context.Context, ids []string) (int64, error)
	DeleteProjects(ctx context.Context, ids []string) (int64, error)
	DeleteClients(ctx context.Context, ids []string) (int64, error)
	DeleteStudio(ctx context.Context, id string) (int64, error)

	// Touch* write the parent record of a new child, so a concurrent
	// transaction deleting that parent conflicts with the insert. A missing
	// record is domain.ErrNotFound.
	TouchStudio(ctx context.Context, id string) error
	TouchClient(ctx context.Context, id string) error
	TouchProject(ctx context.Context, id string) error

	UpdateStudioProfile(ctx context.Context, id, name string, logo *domain.MediaRef) error
	InsertClient(ctx context.Context, c *domain.Client) error
	InsertProject(ctx context.Context, p *domain.Project) error
	InsertSection(ctx context.Context, s *domain.Section) error
}

// TenantRepository stores the studio → client → project → section tree.
// Every write goes through WithinTx.
type TenantRepository interface {
	// WithinTx runs fn in a single atomic transaction. Returning an error
	// rolls everything back. The store may re-run fn from the start when the
	// transaction hits a transient write conflict, so fn must not keep state
	// across invocations.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TenantTx) error) error

	FindStudio(ctx context.Context, id string) (*domain.Studio, error)
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	FindProject(ctx context.Context, id string) (*domain.Project, error)
	ListClients(ctx context.Context, studioID string) ([]domain.Client, error)
	ListProjects(ctx context.Context, clientID string) ([]domain.Project, error)
	ListSections(ctx context.Context, projectID string) ([]domain.Section, error)
}
