package models

import (
	"database/sql/driver"
	"time"
)

// Settings is a free-form per-user preference map.
type Settings map[string]interface{}

func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue(map[string]interface{}{})
	}
	return jsonValue(map[string]interface{}(s))
}

func (s *Settings) Scan(src interface{}) error {
	m := map[string]interface{}{}
	if err := scanJSON(src, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

// Merge copies every key of patch into s, overwriting existing keys.
func (s Settings) Merge(patch map[string]interface{}) Settings {
	out := make(Settings, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// User represents a registered reader.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username       string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password       string    `json:"-" gorm:"type:varchar(255);not null"`
	Bio            string    `json:"bio" gorm:"type:text"`
	ProfilePicture string    `json:"profilePicture" gorm:"type:text"`
	Settings       Settings  `json:"settings" gorm:"type:text"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
