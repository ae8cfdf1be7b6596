package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a random UUID string for primary keys.
func NewID() string {
	return uuid.NewString()
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// ValidID reports whether s parses as a UUID. Used to reject junk path
// parameters before they reach the database.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
