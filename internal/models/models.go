package models

// Artwork represents a catalog record using the fields requested from the API.
// Every field except ID may be omitted upstream.
type Artwork struct {
	ID            int     `json:"id" yaml:"id"`
	Title         *string `json:"title" yaml:"title,omitempty"`
	ArtistTitle   *string `json:"artist_title" yaml:"artist_title,omitempty"`     // Artist name or cultural source only
	ArtistDisplay *string `json:"artist_display" yaml:"artist_display,omitempty"` // Includes additional artist info
	DateDisplay   *string `json:"date_display" yaml:"date_display,omitempty"`
	ImageID       *string `json:"image_id" yaml:"image_id,omitempty"` // UUID
	MediumDisplay *string `json:"medium_display" yaml:"medium_display,omitempty"`
	PlaceOfOrigin *string `json:"place_of_origin" yaml:"place_of_origin,omitempty"`
	IsOnView      *bool   `json:"is_on_view" yaml:"is_on_view,omitempty"`
	GalleryTitle  *string `json:"gallery_title" yaml:"gallery_title,omitempty"`
}

// PaginationInfo represents the pagination block of a list response
type PaginationInfo struct {
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
}

// ArtworkListResponse is the search endpoint payload
type ArtworkListResponse struct {
	Data       []Artwork      `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

// ArtworkResponse is the single artwork endpoint payload
type ArtworkResponse struct {
	Data *Artwork `json:"data"`
}

// Label returns the title, or a placeholder for untitled pieces
func (a Artwork) Label() string {
	if a.Title == nil || *a.Title == "" {
		return "Untitled"
	}
	return *a.Title
}

// Artist prefers the long artist display and falls back to the artist title
func (a Artwork) Artist() string {
	if a.ArtistDisplay != nil && *a.ArtistDisplay != "" {
		return *a.ArtistDisplay
	}
	return Deref(a.ArtistTitle)
}

// ThumbnailURL returns "" when the artwork has no image
func (a Artwork) ThumbnailURL() string {
	if a.ImageID == nil || *a.ImageID == "" {
		return ""
	}
	return ThumbnailURL(*a.ImageID)
}

// FullImageURL returns "" when the artwork has no image
func (a Artwork) FullImageURL() string {
	if a.ImageID == nil || *a.ImageID == "" {
		return ""
	}
	return FullImageURL(*a.ImageID)
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
