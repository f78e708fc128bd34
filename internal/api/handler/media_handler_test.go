package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

type stubMediaService struct {
	requestFn  func(ctx context.Context, studioID, filename, contentType string) (*ports.SignedUpload, error)
	completeFn func(ctx context.Context, key, token string, r io.Reader) (string, error)
	openFn     func(ctx context.Context, key string) (*ports.Object, error)
}

func (s *stubMediaService) RequestUpload(ctx context.Context, studioID, filename, contentType string) (*ports.SignedUpload, error) {
	return s.requestFn(ctx, studioID, filename, contentType)
}

func (s *stubMediaService) CompleteUpload(ctx context.Context, key, token string, r io.Reader) (string, error) {
	return s.completeFn(ctx, key, token, r)
}

func (s *stubMediaService) Open(ctx context.Context, key string) (*ports.Object, error) {
	return s.openFn(ctx, key)
}

func TestMediaHandler_RequestUpload(t *testing.T) {
	e := newTestEcho()
	stub := &stubMediaService{
		requestFn: func(_ context.Context, studioID, filename, contentType string) (*ports.SignedUpload, error) {
			if studioID != "s1" || filename != "a.jpg" || contentType != "image/jpeg" {
				t.Fatalf("unexpected args: %s %s %s", studioID, filename, contentType)
			}
			return &ports.SignedUpload{UploadURL: "https://media.test/uploads/s1/k.jpg?token=t", ObjectURL: "https://media.test/media/s1/k.jpg", ExpiresAt: time.Now()}, nil
		},
	}
	handler := NewMediaHandler(stub)

	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(jsonRequest(http.MethodPost, "/", `{"filename":"a.jpg","content_type":"image/jpeg"}`), rec), "studio_id", "s1")

	if err := handler.RequestUpload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"upload_url"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestMediaHandler_Upload(t *testing.T) {
	e := newTestEcho()
	stub := &stubMediaService{
		completeFn: func(_ context.Context, key, token string, r io.Reader) (string, error) {
			body, _ := io.ReadAll(r)
			if key != "s1/k.jpg" || token != "t" || string(body) != "pixels" {
				t.Fatalf("unexpected args: %s %s %q", key, token, body)
			}
			return "https://media.test/media/" + key, nil
		},
	}
	handler := NewMediaHandler(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/uploads/s1/k.jpg?token=t", strings.NewReader("pixels"))
	c := withParams(e.NewContext(req, rec), "studio_id", "s1", "name", "k.jpg")

	if err := handler.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestMediaHandler_Upload_BadToken(t *testing.T) {
	e := newTestEcho()
	stub := &stubMediaService{
		completeFn: func(context.Context, string, string, io.Reader) (string, error) {
			return "", domain.ErrForbidden
		},
	}
	handler := NewMediaHandler(stub)

	req := httptest.NewRequest(http.MethodPut, "/uploads/s1/k.jpg", strings.NewReader("x"))
	c := withParams(e.NewContext(req, httptest.NewRecorder()), "studio_id", "s1", "name", "k.jpg")

	if err := handler.Upload(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMediaHandler_Download(t *testing.T) {
	e := newTestEcho()
	stub := &stubMediaService{
		openFn: func(_ context.Context, key string) (*ports.Object, error) {
			if key != "s1/k.jpg" {
				return nil, domain.ErrObjectNotFound
			}
			return &ports.Object{Key: key, ContentType: "image/jpeg", Size: 6, Body: io.NopCloser(strings.NewReader("pixels"))}, nil
		},
	}
	handler := NewMediaHandler(stub)

	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(httptest.NewRequest(http.MethodGet, "/media/s1/k.jpg", nil), rec), "studio_id", "s1", "name", "k.jpg")

	if err := handler.Download(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "pixels" || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("unexpected response %d %q %q", rec.Code, rec.Body.String(), rec.Header().Get("Content-Type"))
	}

	missing := withParams(e.NewContext(httptest.NewRequest(http.MethodGet, "/media/s1/nope", nil), httptest.NewRecorder()), "studio_id", "s1", "name", "nope")
	if err := handler.Download(missing); !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}
