package models

import "database/sql/driver"

// ImageLinks holds cover image URLs.
type ImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// IndustryIdentifier is an ISBN-like identifier of a volume.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// VolumeInfo is the denormalized catalog snapshot stored with a library
// record. It always has every field populated; see package sanitize.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PageCount           *int                 `json:"pageCount"`
	Categories          []string             `json:"categories"`
	AverageRating       *float64             `json:"averageRating"`
	RatingsCount        *int                 `json:"ratingsCount"`
	Language            string               `json:"language"`
	ImageLinks          ImageLinks           `json:"imageLinks"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

func (v VolumeInfo) Value() (driver.Value, error) {
	return jsonValue(v)
}

func (v *VolumeInfo) Scan(src interface{}) error {
	return scanJSON(src, v)
}
