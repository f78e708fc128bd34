package ports

import (
	"context"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// CreateStudioInput carries a new tenant and its login credentials.
type CreateStudioInput struct {
	Login    string
	Password string
	Name     string
}

// UpdateStudioInput replaces a studio's profile. A nil Logo removes it.
type UpdateStudioInput struct {
	StudioID string
	Name     string
	Logo     *domain.MediaRef
}

// CreateClientInput carries a new client of a studio.
type CreateClientInput struct {
	StudioID string
	Name     string
	Email    string
	Avatar   *domain.MediaRef
}

// CreateProjectInput carries a new project of a client.
type CreateProjectInput struct {
	StudioID string
	ClientID string
	Title    string
	Hero     *domain.MediaRef
	Photos   []domain.MediaRef
	Videos   []domain.MediaRef
}

// CreateSectionInput carries a new section of a project.
type CreateSectionInput struct {
	StudioID  string
	ProjectID string
	Title     string
	Position  int
	Media     []domain.MediaRef
}

// TenantService covers the tenant-tree reads and writes outside deletion.
// Every studio-scoped call fails with domain.ErrNotFound when the target
// belongs to another studio. Media references must point at objects stored
// under the owning studio.
type TenantService interface {
	CreateStudio(ctx context.Context, in CreateStudioInput) (*domain.Studio, error)
	GetStudio(ctx context.Context, id string) (*domain.Studio, error)
	UpdateStudio(ctx context.Context, in UpdateStudioInput) (*domain.Studio, error)
	CreateClient(ctx context.Context, in CreateClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, studioID, clientID string) (*domain.Client, error)
	ListClients(ctx context.Context, studioID string) ([]domain.Client, error)
	CreateProject(ctx context.Context, in CreateProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, studioID, projectID string) (*domain.Project, error)
	ListProjects(ctx context.Context, studioID, clientID string) ([]domain.Project, error)
	CreateSection(ctx context.Context, in CreateSectionInput) (*domain.Section, error)
	ListSections(ctx context.Context, studioID, projectID string) ([]domain.Section, error)
}
