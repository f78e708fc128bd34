package domain

import "time"

// Studio is the tenant root. Its credentials live in the studio actor record;
// this is the tenant-facing view of the same document.
type Studio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Logo      *MediaRef `json:"logo,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client belongs to exactly one studio.
type Client struct {
	ID        string    `json:"id"`
	StudioID  string    `json:"studio_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    *MediaRef `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project belongs to one client and carries its studio id for scoping.
type Project struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	StudioID  string     `json:"studio_id"`
	Title     string     `json:"title"`
	Hero      *MediaRef  `json:"hero,omitempty"`
	Photos    []MediaRef `json:"photos,omitempty"`
	Videos    []MediaRef `json:"videos,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Section belongs to one project.
type Section struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Title     string     `json:"title"`
	Position  int        `json:"position"`
	Media     []MediaRef `json:"media,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
