package models

import (
	"time"
)

// User is an identity issued by the auth subsystem.
type User struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"not null" json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:ID;references:ID" json:"profile,omitempty"`
}

// Confirmed reports whether the user has completed email confirmation.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}
