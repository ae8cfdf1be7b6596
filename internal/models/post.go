package models

import (
	"time"
)

type Post struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Author    *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;" json:"author,omitempty"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reactions []Reaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"reactions,omitempty"`
	Comments  []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"comments,omitempty"`
}
