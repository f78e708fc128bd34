package handler

import (
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

type mediaRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title" validate:"max=200"`
	Type  string `json:"type" validate:"required,oneof=photo video file"`
}

type createStudioRequest struct {
	Login    string `json:"login" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
}

type updateStudioRequest struct {
	Name string        `json:"name" validate:"required,max=120"`
	Logo *mediaRequest `json:"logo"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type createClientRequest struct {
	Name   string        `json:"name" validate:"required,max=120"`
	Email  string        `json:"email" validate:"omitempty,email"`
	Avatar *mediaRequest `json:"avatar"`
}

type createProjectRequest struct {
	Title  string         `json:"title" validate:"required,max=200"`
	Hero   *mediaRequest  `json:"hero"`
	Photos []mediaRequest `json:"photos" validate:"dive"`
	Videos []mediaRequest `json:"videos" validate:"dive"`
}

type createSectionRequest struct {
	Title    string         `json:"title" validate:"required,max=200"`
	Position int            `json:"position" validate:"min=0"`
	Media    []mediaRequest `json:"media" validate:"dive"`
}

type deleteResponse struct {
	Deleted  bool           `json:"deleted"`
	Removed  removedRecords `json:"removed"`
	Objects  int            `json:"objects_scheduled"`
	Resource string         `json:"resource"`
	ID       string         `json:"id"`
}

type removedRecords struct {
	Studios  int64 `json:"studios"`
	Clients  int64 `json:"clients"`
	Projects int64 `json:"projects"`
	Sections int64 `json:"sections"`
}

type reconcileResponse struct {
	Drained      int `json:"drained"`
	Removed      int `json:"removed"`
	Missing      int `json:"missing"`
	Failed       int `json:"failed"`
	DeadLettered int `json:"dead_lettered"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func (m *mediaRequest) toDomain() *domain.MediaRef {
	if m == nil {
		return nil
	}
	return &domain.MediaRef{URL: m.URL, Title: m.Title, Type: domain.MediaType(m.Type)}
}

func mediaList(items []mediaRequest) []domain.MediaRef {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.MediaRef, len(items))
	for i := range items {
		out[i] = *items[i].toDomain()
	}
	return out
}

func newDeleteResponse(resource domain.RootKind, id string, res *ports.DeleteResult) deleteResponse {
	return deleteResponse{
		Deleted:  res.Found,
		Resource: string(resource),
		ID:       id,
		Objects:  res.Dispatched,
		Removed: removedRecords{
			Studios:  res.Studios,
			Clients:  res.Clients,
			Projects: res.Projects,
			Sections: res.Sections,
		},
	}
}
