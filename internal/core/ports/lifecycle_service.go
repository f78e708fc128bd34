package ports

import (
	"context"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// DeleteResult reports what one cascading delete removed.
type DeleteResult struct {
	Found    bool
	Studios  int64
	Clients  int64
	Projects int64
	Sections int64
	// Dispatched is the number of object URLs handed to cleanup.
	Dispatched int
}

// LifecycleService deletes a root entity and everything it owns.
// scopeStudioID restricts the root to one tenant; empty means unscoped.
// Deleting an absent root is a successful no-op.
type LifecycleService interface {
	DeleteStudio(ctx context.Context, studioID string) (*DeleteResult, error)
	DeleteClient(ctx context.Context, scopeStudioID, clientID string) (*DeleteResult, error)
	DeleteProject(ctx context.Context, scopeStudioID, projectID string) (*DeleteResult, error)
}

// CleanupDispatcher accepts deletion jobs for background processing. It must
// not block on storage work.
type CleanupDispatcher interface {
	Dispatch(job domain.DeletionJob)
}

// CleanupReport summarises one cleanup run.
type CleanupReport struct {
	Removed int
	Missing int
	Failed  int
	// DeadLettered counts permanent failures moved aside by a reconcile run.
	DeadLettered int
}

// CleanupService removes the objects of a deletion job from storage.
type CleanupService interface {
	Cleanup(ctx context.Context, job domain.DeletionJob) CleanupReport
}

// Reconciler re-runs cleanup for transient failures parked on the failure
// channel and dead-letters the permanent ones.
type Reconciler interface {
	// Reconcile drains up to limit failures and returns how many it took.
	Reconcile(ctx context.Context, limit int) (int, CleanupReport, error)
}
