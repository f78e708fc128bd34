package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

type stubTenantService struct {
	ports.TenantService
	createStudioFn func(ctx context.Context, in ports.CreateStudioInput) (*domain.Studio, error)
	createClientFn func(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error)
	listClientsFn  func(ctx context.Context, studioID string) ([]domain.Client, error)
	createSecFn    func(ctx context.Context, in ports.CreateSectionInput) (*domain.Section, error)
	updateStudioFn func(ctx context.Context, in ports.UpdateStudioInput) (*domain.Studio, error)
}

func (s *stubTenantService) CreateStudio(ctx context.Context, in ports.CreateStudioInput) (*domain.Studio, error) {
	return s.createStudioFn(ctx, in)
}

func (s *stubTenantService) UpdateStudio(ctx context.Context, in ports.UpdateStudioInput) (*domain.Studio, error) {
	return s.updateStudioFn(ctx, in)
}

func (s *stubTenantService) CreateClient(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error) {
	return s.createClientFn(ctx, in)
}

func (s *stubTenantService) ListClients(ctx context.Context, studioID string) ([]domain.Client, error) {
	return s.listClientsFn(ctx, studioID)
}

func (s *stubTenantService) CreateSection(ctx context.Context, in ports.CreateSectionInput) (*domain.Section, error) {
	return s.createSecFn(ctx, in)
}

type stubLifecycle struct {
	scope, id, root string
	res             *ports.DeleteResult
	err             error
}

func (s *stubLifecycle) record(root, scope, id string) (*ports.DeleteResult, error) {
	s.root, s.scope, s.id = root, scope, id
	return s.res, s.err
}

func (s *stubLifecycle) DeleteStudio(_ context.Context, id string) (*ports.DeleteResult, error) {
	return s.record("studio", "", id)
}

func (s *stubLifecycle) DeleteClient(_ context.Context, scope, id string) (*ports.DeleteResult, error) {
	return s.record("client", scope, id)
}

func (s *stubLifecycle) DeleteProject(_ context.Context, scope, id string) (*ports.DeleteResult, error) {
	return s.record("project", scope, id)
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func TestTenantHandler_UpdateStudio(t *testing.T) {
	e := newTestEcho()
	stub := &stubTenantService{
		updateStudioFn: func(_ context.Context, in ports.UpdateStudioInput) (*domain.Studio, error) {
			if in.StudioID != "s1" || in.Name != "Lumen" || in.Logo == nil || in.Logo.URL != "https://media.test/media/s1/logo.png" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Studio{ID: in.StudioID, Name: in.Name, Logo: in.Logo, Active: true}, nil
		},
	}
	handler := NewTenantHandler(stub, &stubLifecycle{})

	rec := httptest.NewRecorder()
	body := `{"name":"Lumen","logo":{"url":"https://media.test/media/s1/logo.png","type":"photo"}}`
	c := withParams(e.NewContext(jsonRequest(http.MethodPut, "/", body), rec), "studio_id", "s1")

	if err := handler.UpdateStudio(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTenantHandler_CreateClient(t *testing.T) {
	e := newTestEcho()
	stub := &stubTenantService{
		createClientFn: func(_ context.Context, in ports.CreateClientInput) (*domain.Client, error) {
			if in.StudioID != "s1" || in.Name != "Ana" || in.Avatar == nil || in.Avatar.Type != domain.MediaPhoto {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Client{ID: "c1", StudioID: in.StudioID, Name: in.Name, Avatar: in.Avatar}, nil
		},
	}
	handler := NewTenantHandler(stub, &stubLifecycle{})

	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(jsonRequest(http.MethodPost, "/", `{"name":"Ana","avatar":{"url":"https://media.test/media/s1/a.jpg","type":"photo"}}`), rec), "studio_id", "s1")

	if err := handler.CreateClient(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestTenantHandler_CreateClient_InvalidMedia(t *testing.T) {
	e := newTestEcho()
	handler := NewTenantHandler(&stubTenantService{}, &stubLifecycle{})

	c := withParams(e.NewContext(jsonRequest(http.MethodPost, "/", `{"name":"Ana","avatar":{"url":"not a url","type":"gif"}}`), httptest.NewRecorder()), "studio_id", "s1")

	if err := handler.CreateClient(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTenantHandler_ListClients_EmptyIsArray(t *testing.T) {
	e := newTestEcho()
	stub := &stubTenantService{
		listClientsFn: func(context.Context, string) ([]domain.Client, error) { return nil, nil },
	}
	handler := NewTenantHandler(stub, &stubLifecycle{})

	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), "studio_id", "s1")

	if err := handler.ListClients(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp struct {
		Items []domain.Client `json:"items"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Items == nil || resp.Count != 0 {
		t.Fatalf("expected an empty array, got %s", rec.Body.String())
	}
}

func TestTenantHandler_CreateSection(t *testing.T) {
	e := newTestEcho()
	stub := &stubTenantService{
		createSecFn: func(_ context.Context, in ports.CreateSectionInput) (*domain.Section, error) {
			if in.StudioID != "s1" || in.ProjectID != "p1" || len(in.Media) != 1 || in.Media[0].Type != domain.MediaVideo {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Section{ID: "sec1", ProjectID: in.ProjectID, Title: in.Title, Media: in.Media}, nil
		},
	}
	handler := NewTenantHandler(stub, &stubLifecycle{})

	rec := httptest.NewRecorder()
	body := `{"title":"Ceremony","position":1,"media":[{"url":"https://media.test/media/s1/v.mp4","type":"video"}]}`
	c := withParams(e.NewContext(jsonRequest(http.MethodPost, "/", body), rec), "studio_id", "s1", "project_id", "p1")

	if err := handler.CreateSection(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestTenantHandler_DeleteClient_ScopedByPath(t *testing.T) {
	e := newTestEcho()
	lifecycle := &stubLifecycle{res: &ports.DeleteResult{Found: true, Clients: 1, Projects: 2, Sections: 5, Dispatched: 9}}
	handler := NewTenantHandler(&stubTenantService{}, lifecycle)

	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec), "studio_id", "s1", "client_id", "c1")

	if err := handler.DeleteClient(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if lifecycle.root != "client" || lifecycle.scope != "s1" || lifecycle.id != "c1" {
		t.Fatalf("unexpected lifecycle call: %+v", lifecycle)
	}

	var resp deleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Deleted || resp.Resource != "client" || resp.Removed.Sections != 5 || resp.Objects != 9 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTenantHandler_DeleteProject_Conflict(t *testing.T) {
	e := newTestEcho()
	lifecycle := &stubLifecycle{err: domain.ErrTransactionConflict}
	handler := NewTenantHandler(&stubTenantService{}, lifecycle)

	c := withParams(e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder()), "studio_id", "s1", "project_id", "p1")

	if err := handler.DeleteProject(c); !errors.Is(err, domain.ErrTransactionConflict) {
		t.Fatalf("expected ErrTransactionConflict, got %v", err)
	}
}
