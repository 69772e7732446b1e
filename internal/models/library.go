package models

import "time"

// LibraryRecord is one user's relation to one catalog book. It is created on
// the first toggle and afterwards only has its flags flipped.
type LibraryRecord struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_library_user_book"`
	BookID     string     `json:"bookId" gorm:"type:varchar(128);not null;uniqueIndex:idx_library_user_book"`
	VolumeInfo VolumeInfo `json:"volumeInfo" gorm:"type:text"`
	IsLiked    bool       `json:"isLiked" gorm:"not null;default:false;index"`
	InNest     bool       `json:"inNest" gorm:"not null;default:false;index"`
	AddedAt    time.Time  `json:"addedAt" gorm:"not null;index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// LibraryFlag names one of the two independent booleans of a record.
type LibraryFlag string

const (
	FlagLiked LibraryFlag = "is_liked"
	FlagNest  LibraryFlag = "in_nest"
)

// Column returns the database column backing the flag.
func (f LibraryFlag) Column() string { return string(f) }

// Get returns the flag's value on r.
func (f LibraryFlag) Get(r *LibraryRecord) bool {
	if f == FlagNest {
		return r.InNest
	}
	return r.IsLiked
}

// Set assigns the flag's value on r.
func (f LibraryFlag) Set(r *LibraryRecord, v bool) {
	if f == FlagNest {
		r.InNest = v
		return
	}
	r.IsLiked = v
}

// LibraryStatus is the per-book view returned to clients. AddedAt is nil when
// the user has no record for the book.
type LibraryStatus struct {
	BookID  string     `json:"bookId"`
	UserID  string     `json:"userId"`
	IsLiked bool       `json:"isLiked"`
	InNest  bool       `json:"inNest"`
	AddedAt *time.Time `json:"addedAt"`
}

// LibraryEntry is one element of the liked and nest listings.
type LibraryEntry struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}
