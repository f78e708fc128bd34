package ports

import (
	"context"
	"io"
)

// MediaService issues signed uploads and serves stored media.
type MediaService interface {
	// RequestUpload mints a signed upload for a new object under the
	// studio's key prefix.
	RequestUpload(ctx context.Context, studioID, filename, contentType string) (*SignedUpload, error)
	// CompleteUpload stores r under key when token authorises that key.
	CompleteUpload(ctx context.Context, key, token string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
}
