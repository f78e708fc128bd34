package mongo

import (
	"time"

	"github.com/lumenstudio/backoffice/internal/core/domain"
)

type mediaDoc struct {
	URL   string `bson:"url"`
	Title string `bson:"title,omitempty"`
	Type  string `bson:"type"`
}

type studioDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"display_name"`
	Logo      *mediaDoc `bson:"logo,omitempty"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type clientDoc struct {
	ID        string    `bson:"_id"`
	StudioID  string    `bson:"studio_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email,omitempty"`
	Avatar    *mediaDoc `bson:"avatar,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type projectDoc struct {
	ID        string     `bson:"_id"`
	ClientID  string     `bson:"client_id"`
	StudioID  string     `bson:"studio_id"`
	Title     string     `bson:"title"`
	Hero      *mediaDoc  `bson:"hero,omitempty"`
	Photos    []mediaDoc `bson:"photos,omitempty"`
	Videos    []mediaDoc `bson:"videos,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type sectionDoc struct {
	ID        string     `bson:"_id"`
	ProjectID string     `bson:"project_id"`
	Title     string     `bson:"title"`
	Position  int        `bson:"position"`
	Media     []mediaDoc `bson:"media,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func toMediaDoc(m *domain.MediaRef) *mediaDoc {
	if m == nil {
		return nil
	}
	return &mediaDoc{URL: m.URL, Title: m.Title, Type: string(m.Type)}
}

func toMediaDocs(items []domain.MediaRef) []mediaDoc {
	if len(items) == 0 {
		return nil
	}
	out := make([]mediaDoc, len(items))
	for i := range items {
		out[i] = *toMediaDoc(&items[i])
	}
	return out
}

func (m *mediaDoc) toDomain() *domain.MediaRef {
	if m == nil {
		return nil
	}
	return &domain.MediaRef{URL: m.URL, Title: m.Title, Type: domain.MediaType(m.Type)}
}

func mediaRefs(items []mediaDoc) []domain.MediaRef {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.MediaRef, len(items))
	for i := range items {
		out[i] = *items[i].toDomain()
	}
	return out
}

func (d studioDoc) toDomain() *domain.Studio {
	return &domain.Studio{
		ID:        d.ID,
		Name:      d.Name,
		Logo:      d.Logo.toDomain(),
		Active:    d.Active,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func newClientDoc(c *domain.Client) clientDoc {
	return clientDoc{
		ID:        c.ID,
		StudioID:  c.StudioID,
		Name:      c.Name,
		Email:     c.Email,
		Avatar:    toMediaDoc(c.Avatar),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d clientDoc) toDomain() domain.Client {
	return domain.Client{
		ID:        d.ID,
		StudioID:  d.StudioID,
		Name:      d.Name,
		Email:     d.Email,
		Avatar:    d.Avatar.toDomain(),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func newProjectDoc(p *domain.Project) projectDoc {
	return projectDoc{
		ID:        p.ID,
		ClientID:  p.ClientID,
		StudioID:  p.StudioID,
		Title:     p.Title,
		Hero:      toMediaDoc(p.Hero),
		Photos:    toMediaDocs(p.Photos),
		Videos:    toMediaDocs(p.Videos),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d projectDoc) toDomain() domain.Project {
	return domain.Project{
		ID:        d.ID,
		ClientID:  d.ClientID,
		StudioID:  d.StudioID,
		Title:     d.Title,
		Hero:      d.Hero.toDomain(),
		Photos:    mediaRefs(d.Photos),
		Videos:    mediaRefs(d.Videos),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func newSectionDoc(s *domain.Section) sectionDoc {
	return sectionDoc{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Title:     s.Title,
		Position:  s.Position,
		Media:     toMediaDocs(s.Media),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (d sectionDoc) toDomain() domain.Section {
	return domain.Section{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Title:     d.Title,
		Position:  d.Position,
		Media:     mediaRefs(d.Media),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
