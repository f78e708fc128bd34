// Package gridfs stores media objects in a MongoDB GridFS bucket and serves
// them under {base}/media/{key}. The object key is the GridFS file id.
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const (
	mediaPath      = "/media/"
	uploadPath     = "/uploads/"
	uploadAudience = "media-upload"
	defaultBucket  = "media"
)

// keyPattern accepts "<prefix>/<name>" with conservative characters only.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}/[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Config holds the settings of a Store.
type Config struct {
	BaseURL      string
	Bucket       string
	UploadSecret string
}

// Store implements ports.ObjectStorage on GridFS.
type Store struct {
	db      *mongo.Database
	bucket  string
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewStore(db *mongo.Database, cfg Config) (*Store, error) {
	if cfg.UploadSecret == "" {
		return nil, errors.New("gridfs: upload secret is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("gridfs: base url is required")
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	return &Store{
		db:      db,
		bucket:  bucket,
		baseURL: base,
		secret:  []byte(cfg.UploadSecret),
		now:     time.Now,
	}, nil
}

var _ ports.ObjectStorage = (*Store)(nil)

// ValidKey reports whether key is well formed.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key) && !strings.Contains(key, "..")
}

// ObjectURL returns the public URL of key.
func (s *Store) ObjectURL(key string) string {
	return s.baseURL + mediaPath + key
}

// KeyFromURL extracts the object key from a URL this store issued.
func (s *Store) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+mediaPath)
	if !ok || !ValidKey(key) {
		return "", false
	}
	return key, true
}

func (s *Store) newBucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: object key %q", domain.ErrInvalidInput, key)
	}
	bucket, err := s.newBucket()
	if err != nil {
		return "", fmt.Errorf("gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return "", fmt.Errorf("gridfs deadline: %w", err)
		}
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	if err := bucket.UploadFromStreamWithID(key, path.Base(key), r, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrAlreadyExists
		}
		return "", classify(fmt.Errorf("upload %s: %w", key, err))
	}
	return s.ObjectURL(key), nil
}

// Delete removes the object behind url. Missing objects return
// domain.ErrObjectNotFound.
func (s *Store) Delete(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrForeignObject, url)
	}
	bucket, err := s.newBucket()
	if err != nil {
		return fmt.Errorf("gridfs bucket: %w", err)
	}

	if err := bucket.DeleteContext(ctx, key); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.ErrObjectNotFound
		}
		return classify(fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (*ports.Object, error) {
	if !ValidKey(key) {
		return nil, domain.ErrObjectNotFound
	}
	bucket, err := s.newBucket()
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("gridfs deadline: %w", err)
		}
	}

	stream, err := bucket.OpenDownloadStream(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, classify(fmt.Errorf("open %s: %w", key, err))
	}

	file := stream.GetFile()
	return &ports.Object{
		Key:         key,
		ContentType: contentTypeOf(file.Metadata),
		Size:        file.Length,
		Body:        stream,
	}, nil
}

func contentTypeOf(meta bson.Raw) string {
	if meta == nil {
		return ""
	}
	v, err := meta.LookupErr("content_type")
	if err != nil {
		return ""
	}
	ct, _ := v.StringValueOK()
	return ct
}

// uploadClaims authorise a single PUT of one key and content type.
type uploadClaims struct {
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

func (s *Store) SignedUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (*ports.SignedUpload, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: object key %q", domain.ErrInvalidInput, key)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: upload ttl must be positive", domain.ErrInvalidInput)
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := uploadClaims{
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Audience:  jwt.ClaimStrings{uploadAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}

	return &ports.SignedUpload{
		UploadURL: s.baseURL + uploadPath + key + "?token=" + token,
		ObjectURL: s.ObjectURL(key),
		ExpiresAt: exp,
	}, nil
}

// VerifyUpload returns domain.ErrForbidden for any token it did not mint or
// that has expired.
func (s *Store) VerifyUpload(token string) (string, string, error) {
	var claims uploadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(uploadAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: upload token: %v", domain.ErrForbidden, err)
	}
	if !ValidKey(claims.Subject) {
		return "", "", fmt.Errorf("%w: upload token subject", domain.ErrForbidden)
	}
	return claims.Subject, claims.ContentType, nil
}

// classify marks timeouts and network failures as transient.
func classify(err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(domain.ErrTransientStorage, err)
	}
	return errors.Join(domain.ErrPermanentStorage, err)
}
