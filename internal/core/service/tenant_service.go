package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// MediaRoot maps object URLs back to storage keys. A URL outside the
// storage root has no key.
type MediaRoot interface {
	KeyFromURL(url string) (string, bool)
}

// TenantService implements the tenant-tree operations outside deletion.
// A studio-scoped call on a record of another studio is ErrNotFound.
//
// Every create runs in one transaction with a write to its parent, so it
// either lands before a concurrent cascading delete (and is removed by it)
// or fails with ErrNotFound.
type TenantService struct {
	repo    ports.TenantRepository
	auth    ports.AuthService
	media   MediaRoot
	cleanup ports.CleanupDispatcher
	log     zerolog.Logger
}

func NewTenantService(repo ports.TenantRepository, auth ports.AuthService, media MediaRoot, cleanup ports.CleanupDispatcher, log zerolog.Logger) *TenantService {
	return &TenantService{repo: repo, auth: auth, media: media, cleanup: cleanup, log: log}
}

var _ ports.TenantService = (*TenantService)(nil)

// CreateStudio registers the studio login; the studio record is the
// credential record. A logo can only be set once the studio has uploads.
func (s *TenantService) CreateStudio(ctx context.Context, in ports.CreateStudioInput) (*domain.Studio, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: studio name is required", domain.ErrInvalidInput)
	}

	actor, err := s.auth.RegisterStudio(ctx, in.Login, in.Password, name)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("studio_id", actor.ID).Str("login", actor.Login).Msg("studio created")
	return s.repo.FindStudio(ctx, actor.ID)
}

func (s *TenantService) GetStudio(ctx context.Context, id string) (*domain.Studio, error) {
	return s.repo.FindStudio(ctx, id)
}

// UpdateStudio replaces the studio profile. A replaced logo nothing else in
// the studio points at is handed to storage cleanup after commit.
func (s *TenantService) UpdateStudio(ctx context.Context, in ports.UpdateStudioInput) (*domain.Studio, error) {
	name := strings.TrimSpace(in.Name)
	if in.StudioID == "" || name == "" {
		return nil, fmt.Errorf("%w: studio and name are required", domain.ErrInvalidInput)
	}
	if err := s.checkMedia(in.StudioID, in.Logo); err != nil {
		return nil, err
	}

	var orphan string
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.TenantTx) error {
		orphan = ""
		current, err := tx.FindStudio(ctx, in.StudioID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStudioProfile(ctx, in.StudioID, name, in.Logo); err != nil {
			return fmt.Errorf("update studio: %w", err)
		}

		if current.Logo == nil || (in.Logo != nil && in.Logo.URL == current.Logo.URL) {
			return nil
		}
		used, err := referencedInStudio(ctx, tx, in.StudioID, current.Logo.URL)
		if err != nil {
			return err
		}
		if !used {
			orphan = current.Logo.URL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if orphan != "" {
		job := domain.DeletionJob{RootKind: domain.RootStudio, RootID: in.StudioID}
		job.Add(orphan)
		s.cleanup.Dispatch(job)
	}
	s.log.Info().Str("studio_id", in.StudioID).Bool("logo_replaced", orphan != "").Msg("studio updated")
	return s.repo.FindStudio(ctx, in.StudioID)
}

func (s *TenantService) CreateClient(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if in.StudioID == "" || name == "" {
		return nil, fmt.Errorf("%w: studio and client name are required", domain.ErrInvalidInput)
	}
	if err := s.checkMedia(in.StudioID, in.Avatar); err != nil {
		return nil, err
	}

	var c *domain.Client
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.TenantTx) error {
		if err := tx.TouchStudio(ctx, in.StudioID); err != nil {
			return err
		}

		now := time.Now().UTC()
		c = &domain.Client{
			ID:        uuid.NewString(),
			StudioID:  in.StudioID,
			Name:      name,
			Email:     strings.TrimSpace(in.Email),
			Avatar:    in.Avatar,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertClient(ctx, c); err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TenantService) GetClient(ctx context.Context, studioID, clientID string) (*domain.Client, error) {
	c, err := s.repo.FindClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !inScope(studioID, c.StudioID) {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *TenantService) ListClients(ctx context.Context, studioID string) ([]domain.Client, error) {
	if studioID == "" {
		return nil, fmt.Errorf("%w: studio id is required", domain.ErrInvalidInput)
	}
	return s.repo.ListClients(ctx, studioID)
}

func (s *TenantService) CreateProject(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: project title is required", domain.ErrInvalidInput)
	}
	items := append([]*domain.MediaRef{in.Hero}, refs(in.Photos)...)
	items = append(items, refs(in.Videos)...)

	var p *domain.Project
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.TenantTx) error {
		client, err := tx.FindClient(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if !inScope(in.StudioID, client.StudioID) {
			return domain.ErrNotFound
		}
		if err := s.checkMedia(client.StudioID, items...); err != nil {
			return err
		}
		if err := tx.TouchClient(ctx, client.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		p = &domain.Project{
			ID:        uuid.NewString(),
			ClientID:  client.ID,
			StudioID:  client.StudioID,
			Title:     title,
			Hero:      in.Hero,
			Photos:    in.Photos,
			Videos:    in.Videos,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertProject(ctx, p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *TenantService) GetProject(ctx context.Context, studioID, projectID string) (*domain.Project, error) {
	p, err := s.repo.FindProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !inScope(studioID, p.StudioID) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *TenantService) ListProjects(ctx context.Context, studioID, clientID string) ([]domain.Project, error) {
	if _, err := s.GetClient(ctx, studioID, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListProjects(ctx, clientID)
}

func (s *TenantService) CreateSection(ctx context.Context, in ports.CreateSectionInput) (*domain.Section, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: section title is required", domain.ErrInvalidInput)
	}

	var sec *domain.Section
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.TenantTx) error {
		project, err := tx.FindProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if !inScope(in.StudioID, project.StudioID) {
			return domain.ErrNotFound
		}
		if err := s.checkMedia(project.StudioID, refs(in.Media)...); err != nil {
			return err
		}
		if err := tx.TouchProject(ctx, project.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		sec = &domain.Section{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Title:     title,
			Position:  in.Position,
			Media:     in.Media,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertSection(ctx, sec); err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sec, nil
}

func (s *TenantService) ListSections(ctx context.Context, studioID, projectID string) ([]domain.Section, error) {
	if _, err := s.GetProject(ctx, studioID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListSections(ctx, projectID)
}

// checkMedia rejects references that are not objects of studioID. Anything
// else could never be cleaned up with the studio, or would let one tenant
// delete another's objects.
func (s *TenantService) checkMedia(studioID string, items ...*domain.MediaRef) error {
	var errs []error
	for _, m := range items {
		if m == nil {
			continue
		}
		key, ok := s.media.KeyFromURL(m.URL)
		switch {
		case m.URL == "" || !ok:
			errs = append(errs, fmt.Errorf("%w: media url %q is outside the storage root", domain.ErrInvalidInput, m.URL))
		case !strings.HasPrefix(key, studioID+"/"):
			errs = append(errs, fmt.Errorf("%w: media url %q is not an object of this studio", domain.ErrInvalidInput, m.URL))
		}
	}
	return errors.Join(errs...)
}

// referencedInStudio reports whether any client, project or section of
// the studio still points at url.
func referencedInStudio(ctx context.Context, tx ports.TenantTx, studioID, url string) (bool, error) {
	clients, err := tx.ClientsByStudio(ctx, studioID)
	if err != nil {
		return false, fmt.Errorf("collect clients: %w", err)
	}
	clientIDs := make([]string, len(clients))
	for i := range clients {
		if containsURL(clients[i].URLs(), url) {
			return true, nil
		}
		clientIDs[i] = clients[i].ID
	}
	if len(clientIDs) == 0 {
		return false, nil
	}

	projects, err := tx.ProjectsByClients(ctx, clientIDs)
	if err != nil {
		return false, fmt.Errorf("collect projects: %w", err)
	}
	projectIDs := make([]string, len(projects))
	for i := range projects {
		if containsURL(projects[i].URLs(), url) {
			return true, nil
		}
		projectIDs[i] = projects[i].ID
	}
	if len(projectIDs) == 0 {
		return false, nil
	}

	sections, err := tx.SectionsByProjects(ctx, projectIDs)
	if err != nil {
		return false, fmt.Errorf("collect sections: %w", err)
	}
	for i := range sections {
		if containsURL(sections[i].URLs(), url) {
			return true, nil
		}
	}
	return false, nil
}

func containsURL(urls []string, url string) bool {
	for _, u := range urls {
		if u == url {
			return true
		}
	}
	return false
}

func refs(items []domain.MediaRef) []*domain.MediaRef {
	out := make([]*domain.MediaRef, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
