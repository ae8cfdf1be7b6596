package store

import (
	"context"
	"errors"
	"strings"

	"makecommunity/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrForbidden = errors.New("store: not the owner")
	ErrConflict  = errors.New("store: already exists")
	ErrInvalid   = errors.New("store: invalid argument")
)

// Listing caps.
const (
	HomeLimit    = 20
	ProfileLimit = 20
	SearchLimit  = 50
)

// ListOptions narrows a post listing. Posts are always newest first.
type ListOptions struct {
	// Query matches title OR content, case-insensitively, as a substring.
	Query string
	// UserID restricts the listing to one author.
	UserID string
	Limit  int
}

// Store is the relational store behind the board. Listed and fetched posts
// come back with Author, Reactions and Comments loaded; comments of a single
// post additionally carry their Author.
type Store interface {
	// CreateUser inserts u and its profile in one transaction.
	CreateUser(ctx context.Context, u *models.User, username string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ConfirmUser(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)

	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]models.Post, error)
	// UpdatePost and DeletePost return ErrNotFound when id does not exist and
	// ErrForbidden when it belongs to someone other than userID.
	UpdatePost(ctx context.Context, id, userID, title, content string) error
	DeletePost(ctx context.Context, id, userID string) error

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, id, userID, content string) error
	DeleteComment(ctx context.Context, id, userID string) error

	// ToggleReaction applies press(t) for (postID, userID) atomically:
	// none -> t, t -> none, other -> t.
	ToggleReaction(ctx context.Context, postID, userID string, t models.ReactionType) (models.ReactionState, error)

	Ping(ctx context.Context) error
	Close() error
}

// normalizeLimit clamps a requested limit to (0, SearchLimit].
func normalizeLimit(n int) int {
	if n <= 0 || n > SearchLimit {
		return SearchLimit
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring LIKE pattern with wildcards in q escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
