package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/api/metrics"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const defaultTxTimeout = 30 * time.Second

// closure is every record reachable from one delete root.
type closure struct {
	studio   *domain.Studio
	clients  []domain.Client
	projects []domain.Project
	sections []domain.Section
}

// job lists the closure's object URLs in deletion order: sections first,
// the root's own media last.
func (c *closure) job(kind domain.RootKind, rootID string) domain.DeletionJob {
	job := domain.DeletionJob{RootKind: kind, RootID: rootID}
	for i := range c.sections {
		job.Add(c.sections[i].URLs()...)
	}
	for i := range c.projects {
		job.Add(c.projects[i].URLs()...)
	}
	for i := range c.clients {
		job.Add(c.clients[i].URLs()...)
	}
	if c.studio != nil {
		job.Add(c.studio.URLs()...)
	}
	return job
}

// collectFunc computes the closure of a root inside a transaction. A nil
// closure with a nil error means the root does not exist in scope.
type collectFunc func(ctx context.Context, tx ports.TenantTx) (*closure, error)

// LifecycleService is the cascading delete engine.
type LifecycleService struct {
	repo      ports.TenantRepository
	cleanup   ports.CleanupDispatcher
	txTimeout time.Duration
	log       zerolog.Logger
}

func NewLifecycleService(repo ports.TenantRepository, cleanup ports.CleanupDispatcher, txTimeout time.Duration, log zerolog.Logger) *LifecycleService {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &LifecycleService{repo: repo, cleanup: cleanup, txTimeout: txTimeout, log: log}
}

var _ ports.LifecycleService = (*LifecycleService)(nil)

func (s *LifecycleService) DeleteStudio(ctx context.Context, studioID string) (*ports.DeleteResult, error) {
	return s.run(ctx, domain.RootStudio, studioID, func(ctx context.Context, tx ports.TenantTx) (*closure, error) {
		studio, err := tx.FindStudio(ctx, studioID)
		if err != nil {
			return nil, absentIsNil(err)
		}

		clients, err := tx.ClientsByStudio(ctx, studioID)
		if err != nil {
			return nil, err
		}
		c := &closure{studio: studio, clients: clients}
		return c, expandClients(ctx, tx, c)
	})
}

func (s *LifecycleService) DeleteClient(ctx context.Context, scopeStudioID, clientID string) (*ports.DeleteResult, error) {
	return s.run(ctx, domain.RootClient, clientID, func(ctx context.Context, tx ports.TenantTx) (*closure, error) {
		client, err := tx.FindClient(ctx, clientID)
		if err != nil {
			return nil, absentIsNil(err)
		}
		if !inScope(scopeStudioID, client.StudioID) {
			return nil, nil
		}

		c := &closure{clients: []domain.Client{*client}}
		return c, expandClients(ctx, tx, c)
	})
}

func (s *LifecycleService) DeleteProject(ctx context.Context, scopeStudioID, projectID string) (*ports.DeleteResult, error) {
	return s.run(ctx, domain.RootProject, projectID, func(ctx context.Context, tx ports.TenantTx) (*closure, error) {
		project, err := tx.FindProject(ctx, projectID)
		if err != nil {
			return nil, absentIsNil(err)
		}
		if !inScope(scopeStudioID, project.StudioID) {
			return nil, nil
		}

		c := &closure{projects: []domain.Project{*project}}
		return c, expandProjects(ctx, tx, c)
	})
}

// run computes the closure and deletes it leaf to root in one transaction,
// then hands the collected URLs to cleanup. Cleanup never affects the result.
func (s *LifecycleService) run(ctx context.Context, kind domain.RootKind, rootID string, collect collectFunc) (*ports.DeleteResult, error) {
	if rootID == "" {
		return nil, fmt.Errorf("%w: %s id is required", domain.ErrInvalidInput, kind)
	}

	start := time.Now()
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		result ports.DeleteResult
		job    domain.DeletionJob
	)
	err := s.repo.WithinTx(txCtx, func(ctx context.Context, tx ports.TenantTx) error {
		// The store may retry this callback; start from a clean slate.
		result = ports.DeleteResult{}
		job = domain.DeletionJob{}

		c, err := collect(ctx, tx)
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}

		result.Found = true
		job = c.job(kind, rootID)
		return deleteClosure(ctx, tx, c, &result)
	})
	if err != nil {
		metrics.DeletionsTotal.WithLabelValues(string(kind), "failed").Inc()
		s.log.Error().Err(err).
			Str("root_kind", string(kind)).
			Str("root_id", rootID).
			Msg("cascading delete rolled back")
		return nil, fmt.Errorf("delete %s %s: %w", kind, rootID, err)
	}

	metrics.DeletionDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if !result.Found {
		metrics.DeletionsTotal.WithLabelValues(string(kind), "noop").Inc()
		s.log.Debug().Str("root_kind", string(kind)).Str("root_id", rootID).Msg("delete target already gone")
		return &result, nil
	}

	metrics.DeletionsTotal.WithLabelValues(string(kind), "deleted").Inc()
	metrics.DeletedRecordsTotal.WithLabelValues("studio").Add(float64(result.Studios))
	metrics.DeletedRecordsTotal.WithLabelValues("client").Add(float64(result.Clients))
	metrics.DeletedRecordsTotal.WithLabelValues("project").Add(float64(result.Projects))
	metrics.DeletedRecordsTotal.WithLabelValues("section").Add(float64(result.Sections))

	if !job.Empty() {
		s.cleanup.Dispatch(job)
		result.Dispatched = len(job.URLs)
	}

	s.log.Info().
		Str("root_kind", string(kind)).
		Str("root_id", rootID).
		Int64("clients", result.Clients).
		Int64("projects", result.Projects).
		Int64("sections", result.Sections).
		Int("objects", result.Dispatched).
		Msg("cascading delete committed")

	return &result, nil
}

func expandClients(ctx context.Context, tx ports.TenantTx, c *closure) error {
	if len(c.clients) == 0 {
		return nil
	}
	ids := make([]string, len(c.clients))
	for i := range c.clients {
		ids[i] = c.clients[i].ID
	}

	projects, err := tx.ProjectsByClients(ctx, ids)
	if err != nil {
		return err
	}
	c.projects = projects
	return expandProjects(ctx, tx, c)
}

func expandProjects(ctx context.Context, tx ports.TenantTx, c *closure) error {
	if len(c.projects) == 0 {
		return nil
	}
	ids := make([]string, len(c.projects))
	for i := range c.projects {
		ids[i] = c.projects[i].ID
	}

	sections, err := tx.SectionsByProjects(ctx, ids)
	if err != nil {
		return err
	}
	c.sections = sections
	return nil
}

// deleteClosure removes sections, projects, clients, then the studio. A
// short count means something changed underneath the snapshot; abort so the
// whole operation is retried or rolled back.
func deleteClosure(ctx context.Context, tx ports.TenantTx, c *closure, result *ports.DeleteResult) error {
	var err error

	if result.Sections, err = deleteAll(ctx, "sections", tx.DeleteSections, sectionIDs(c.sections)); err != nil {
		return err
	}
	if result.Projects, err = deleteAll(ctx, "projects", tx.DeleteProjects, projectIDs(c.projects)); err != nil {
		return err
	}
	if result.Clients, err = deleteAll(ctx, "clients", tx.DeleteClients, clientIDs(c.clients)); err != nil {
		return err
	}
	if c.studio != nil {
		n, err := tx.DeleteStudio(ctx, c.studio.ID)
		if err != nil {
			return fmt.Errorf("delete studio: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("delete studio: %w: removed %d of 1", domain.ErrTransactionConflict, n)
		}
		result.Studios = n
	}
	return nil
}

func deleteAll(ctx context.Context, what string, del func(context.Context, []string) (int64, error), ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := del(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", what, err)
	}
	if n != int64(len(ids)) {
		return 0, fmt.Errorf("delete %s: %w: removed %d of %d", what, domain.ErrTransactionConflict, n, len(ids))
	}
	return n, nil
}

func sectionIDs(items []domain.Section) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}

func projectIDs(items []domain.Project) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}

func clientIDs(items []domain.Client) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}

func absentIsNil(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func inScope(scopeStudioID, ownerStudioID string) bool {
	return scopeStudioID == "" || scopeStudioID == ownerStudioID
}
