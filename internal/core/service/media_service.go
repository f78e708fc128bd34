package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const defaultUploadTTL = 15 * time.Minute

var allowedContentPrefixes = []string{"image/", "video/", "application/pdf"}

// MediaService keys every object as "<studio id>/<uuid><ext>", so an upload
// token can only ever write inside the studio that requested it.
type MediaService struct {
	storage   ports.ObjectStorage
	repo      ports.TenantRepository
	uploadTTL time.Duration
	log       zerolog.Logger
}

func NewMediaService(storage ports.ObjectStorage, repo ports.TenantRepository, uploadTTL time.Duration, log zerolog.Logger) *MediaService {
	if uploadTTL <= 0 {
		uploadTTL = defaultUploadTTL
	}
	return &MediaService{storage: storage, repo: repo, uploadTTL: uploadTTL, log: log}
}

var _ ports.MediaService = (*MediaService)(nil)

func (s *MediaService) RequestUpload(ctx context.Context, studioID, filename, contentType string) (*ports.SignedUpload, error) {
	if studioID == "" {
		return nil, fmt.Errorf("%w: studio id is required", domain.ErrInvalidInput)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedContentType(contentType) {
		return nil, fmt.Errorf("%w: content type %q is not accepted", domain.ErrInvalidInput, contentType)
	}
	if _, err := s.repo.FindStudio(ctx, studioID); err != nil {
		return nil, err
	}

	key := objectKey(studioID, filename)
	upload, err := s.storage.SignedUploadURL(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}
	s.log.Debug().Str("studio_id", studioID).Str("key", key).Msg("upload signed")
	return upload, nil
}

func (s *MediaService) CompleteUpload(ctx context.Context, key, token string, r io.Reader) (string, error) {
	signedKey, contentType, err := s.storage.VerifyUpload(token)
	if err != nil {
		return "", err
	}
	if signedKey != key {
		return "", fmt.Errorf("%w: upload token is for another key", domain.ErrForbidden)
	}
	// A token outlives the studio that requested it; nothing would ever
	// reference or clean up an object stored under a deleted studio.
	studioID, _, _ := strings.Cut(key, "/")
	if _, err := s.repo.FindStudio(ctx, studioID); err != nil {
		return "", err
	}

	url, err := s.storage.Put(ctx, key, contentType, r)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	s.log.Info().Str("key", key).Str("content_type", contentType).Msg("media stored")
	return url, nil
}

func (s *MediaService) Open(ctx context.Context, key string) (*ports.Object, error) {
	return s.storage.Open(ctx, key)
}

func objectKey(studioID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 || strings.IndexFunc(ext[1:], notAlnum) >= 0 {
		ext = ""
	}
	return studioID + "/" + uuid.NewString() + ext
}

func notAlnum(r rune) bool {
	return (r < 'a' || r > 'z') && (r < '0' || r > '9')
}

func allowedContentType(ct string) bool {
	for _, p := range allowedContentPrefixes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}
