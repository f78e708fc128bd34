package domain

// MediaType classifies a stored object.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaFile  MediaType = "file"
)

// MediaRef points at an object in external storage. It has no identity of
// its own; it lives and dies with the record holding it.
type MediaRef struct {
	URL   string    `json:"url"`
	Title string    `json:"title,omitempty"`
	Type  MediaType `json:"type"`
}

// MediaURLs returns the non-empty URLs of refs in order.
func MediaURLs(refs ...MediaRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.URL != "" {
			out = append(out, r.URL)
		}
	}
	return out
}

// URLs lists every media URL held by the studio record.
func (s *Studio) URLs() []string {
	if s.Logo == nil {
		return nil
	}
	return MediaURLs(*s.Logo)
}

func (c *Client) URLs() []string {
	if c.Avatar == nil {
		return nil
	}
	return MediaURLs(*c.Avatar)
}

func (p *Project) URLs() []string {
	refs := make([]MediaRef, 0, 1+len(p.Photos)+len(p.Videos))
	if p.Hero != nil {
		refs = append(refs, *p.Hero)
	}
	refs = append(refs, p.Photos...)
	refs = append(refs, p.Videos...)
	return MediaURLs(refs...)
}

func (s *Section) URLs() []string {
	return MediaURLs(s.Media...)
}
