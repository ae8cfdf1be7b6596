package models

import (
	"time"
)

type Comment struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;index" json:"post_id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Author    *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
