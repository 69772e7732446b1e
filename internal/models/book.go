package models

import (
	"database/sql/driver"
	"time"
)

// BookSummary is the reshaped catalog volume returned by the books API.
type BookSummary struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	Description   string      `json:"description,omitempty"`
	PageCount     *int        `json:"pageCount,omitempty"`
	Categories    []string    `json:"categories"`
	ImageLinks    *ImageLinks `json:"imageLinks,omitempty"`
	PublishedDate string      `json:"publishedDate,omitempty"`
	Publisher     string      `json:"publisher,omitempty"`
	AverageRating *float64    `json:"averageRating,omitempty"`
}

// UserRating is a reader's score and review of a cached book.
type UserRating struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// UserRatings is stored as a JSON column.
type UserRatings []UserRating

func (r UserRatings) Value() (driver.Value, error) {
	if r == nil {
		return jsonValue([]UserRating{})
	}
	return jsonValue([]UserRating(r))
}

func (r *UserRatings) Scan(src interface{}) error {
	return scanJSON(src, (*[]UserRating)(r))
}

// StringList is a []string stored as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, (*[]string)(l))
}

// Book is the local cache of a catalog volume, keyed by the catalog id.
type Book struct {
	ID            string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GoogleBookID  string      `json:"googleBookId" gorm:"uniqueIndex;type:varchar(128);not null"`
	Title         string      `json:"title" gorm:"not null"`
	Authors       StringList  `json:"authors" gorm:"type:text"`
	Description   string      `json:"description" gorm:"type:text"`
	PageCount     *int        `json:"pageCount"`
	Categories    StringList  `json:"categories" gorm:"type:text"`
	ImageLinks    ImageLinks  `json:"imageLinks" gorm:"embedded;embeddedPrefix:image_"`
	PublishedDate string      `json:"publishedDate"`
	Publisher     string      `json:"publisher"`
	AverageRating *float64    `json:"averageRating"`
	UserRatings   UserRatings `json:"userRatings" gorm:"type:text"`
	AddedBy       StringList  `json:"addedBy" gorm:"type:text"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// BookFromSummary builds a cache row from a catalog summary.
func BookFromSummary(s BookSummary) Book {
	b := Book{
		GoogleBookID:  s.ID,
		Title:         s.Title,
		Authors:       StringList(s.Authors),
		Description:   s.Description,
		PageCount:     s.PageCount,
		Categories:    StringList(s.Categories),
		PublishedDate: s.PublishedDate,
		Publisher:     s.Publisher,
		AverageRating: s.AverageRating,
	}
	if s.ImageLinks != nil {
		b.ImageLinks = *s.ImageLinks
	}
	if b.Title == "" {
		b.Title = "Unknown Title"
	}
	return b
}

// Summary converts a cache row back into the books API shape.
func (b Book) Summary() BookSummary {
	s := BookSummary{
		ID:            b.GoogleBookID,
		Title:         b.Title,
		Authors:       []string(b.Authors),
		Description:   b.Description,
		PageCount:     b.PageCount,
		Categories:    []string(b.Categories),
		PublishedDate: b.PublishedDate,
		Publisher:     b.Publisher,
		AverageRating: b.AverageRating,
	}
	if s.Authors == nil {
		s.Authors = []string{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	if b.ImageLinks != (ImageLinks{}) {
		links := b.ImageLinks
		s.ImageLinks = &links
	}
	return s
}
