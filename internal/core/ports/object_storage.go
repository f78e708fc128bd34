package ports

import (
	"context"
	"io"
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// Object is an open stored object.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// SignedUpload is a pre-authorised upload target.
type SignedUpload struct {
	UploadURL string
	ObjectURL string
	ExpiresAt time.Time
}

// ObjectStorage is the capability set the core needs from external storage.
type ObjectStorage interface {
	// Put stores r under key and returns the canonical URL of the object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	// Delete removes the object behind url. A missing object returns
	// domain.ErrObjectNotFound; retryable failures wrap
	// domain.ErrTransientStorage.
	Delete(ctx context.Context, url string) error
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (*SignedUpload, error)
	// VerifyUpload checks a token minted by SignedUploadURL and returns the
	// key and content type it authorises.
	VerifyUpload(token string) (key, contentType string, err error)
	Open(ctx context.Context, key string) (*Object, error)
}

// FailureSink is the operational channel for cleanup failures that ran out
// of retries.
type FailureSink interface {
	Report(ctx context.Context, failure domain.CleanupFailure) error
	// Drain removes and returns up to limit reported failures, oldest first.
	Drain(ctx context.Context, limit int) ([]domain.CleanupFailure, error)
	// DeadLetter parks a failure that needs an operator. Dead-lettered
	// entries are never drained.
	DeadLetter(ctx context.Context, failure domain.CleanupFailure) error
}
