package models

import (
	"time"
)

type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether t is one of the known reaction types.
func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// Reaction is a user's like or dislike on a post. (PostID, UserID) is the primary key,
// so a user holds at most one reaction per post.
type Reaction struct {
	PostID       string       `gorm:"primaryKey;type:uuid" json:"post_id"`
	UserID       string       `gorm:"primaryKey;type:uuid" json:"user_id"`
	ReactionType ReactionType `gorm:"column:reaction_type;type:varchar(10);not null" json:"reaction_type"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Reaction) TableName() string {
	return "post_reactions"
}

// ReactionState is the outcome of a toggle: the caller's reaction after the
// transition ("" when cleared) and the post's fresh counts.
type ReactionState struct {
	Reaction ReactionType `json:"reaction"`
	Likes    int          `json:"likes"`
	Dislikes int          `json:"dislikes"`
}

// Score is likes minus dislikes.
func (s ReactionState) Score() int {
	return s.Likes - s.Dislikes
}

// Tally counts likes and dislikes in rs.
func Tally(rs []Reaction) (likes, dislikes int) {
	for _, r := range rs {
		switch r.ReactionType {
		case ReactionLike:
			likes++
		case ReactionDislike:
			dislikes++
		}
	}
	return likes, dislikes
}
