package models

import (
	"strings"
	"time"
)

// AnonymousName is shown when an author has no profile row.
const AnonymousName = "익명"

// Profile is the public face of a User. Its ID equals the user ID.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the username of p, or AnonymousName when p is nil or blank.
func (p *Profile) DisplayName() string {
	if p == nil || strings.TrimSpace(p.Username) == "" {
		return AnonymousName
	}
	return p.Username
}
