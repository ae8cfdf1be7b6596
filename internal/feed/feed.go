// Package feed assembles the listing, detail and profile view data from the
// store. Shared page data is cached by path; anything that depends on who is
// looking is computed per request by ViewFor.
package feed

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"makecommunity/internal/cache"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"
	"makecommunity/internal/store"
	"makecommunity/internal/utils"

	"github.com/rs/zerolog"
)

const excerptLength = 200

// DefaultUsername is shown on the profile page when neither a profile nor
// an email is available.
const DefaultUsername = "사용자"

var ErrNotFound = errors.New("feed: post not found")

// HomePath and PostPath name the cached pages that writes revalidate.
const HomePath = "/"

func PostPath(id string) string {
	return "/post/" + id
}

type PostSummary struct {
	ID           string
	UserID       string
	Title        string
	Excerpt      string
	AuthorName   string
	CreatedAt    time.Time
	Likes        int
	Dislikes     int
	Score        int
	CommentCount int
}

type CommentView struct {
	ID         string
	UserID     string
	AuthorName string
	Content    string
	HTML       template.HTML
	CreatedAt  time.Time
	Edited     bool
}

// PostDetail is the shared, cacheable part of a post page. Treat it as
// read-only once returned.
type PostDetail struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	HTML       template.HTML
	AuthorName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Likes      int
	Dislikes   int
	Score      int
	Comments   []CommentView

	reactions map[string]models.ReactionType
}

// ReactionOf returns userID's reaction on the post, or "" for none.
func (d *PostDetail) ReactionOf(userID string) models.ReactionType {
	if userID == "" {
		return ""
	}
	return d.reactions[userID]
}

type ProfileView struct {
	Username   string
	Email      string
	JoinedAt   time.Time
	HasProfile bool
	Posts      []PostSummary
}

type Service struct {
	store store.Store
	cache *cache.PageCache
	log   zerolog.Logger
}

// NewService returns a feed service. c may be nil to disable caching.
func NewService(st store.Store, c *cache.PageCache) *Service {
	return &Service{store: st, cache: c, log: logger.New("feed")}
}

func summarize(p models.Post) PostSummary {
	likes, dislikes := models.Tally(p.Reactions)
	return PostSummary{
		ID:           p.ID,
		UserID:       p.UserID,
		Title:        p.Title,
		Excerpt:      utils.Excerpt(p.Content, excerptLength),
		AuthorName:   p.Author.DisplayName(),
		CreatedAt:    p.CreatedAt,
		Likes:        likes,
		Dislikes:     dislikes,
		Score:        likes - dislikes,
		CommentCount: len(p.Comments),
	}
}

func summarizeAll(posts []models.Post) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, summarize(p))
	}
	return out
}

func (s *Service) list(ctx context.Context, opts store.ListOptions) ([]PostSummary, error) {
	posts, err := s.store.ListPosts(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return summarizeAll(posts), nil
}

// Home returns the newest posts.
func (s *Service) Home(ctx context.Context) ([]PostSummary, error) {
	return cache.Load(s.cache, HomePath, func() ([]PostSummary, error) {
		return s.list(ctx, store.ListOptions{Limit: store.HomeLimit})
	})
}

// Search returns the newest posts whose title or content contains q. An
// empty query matches nothing.
func (s *Service) Search(ctx context.Context, q string) ([]PostSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.list(ctx, store.ListOptions{Query: q, Limit: store.SearchLimit})
}

// UserPosts returns userID's newest posts.
func (s *Service) UserPosts(ctx context.Context, userID string) ([]PostSummary, error) {
	return s.list(ctx, store.ListOptions{UserID: userID, Limit: store.ProfileLimit})
}

// Post returns the detail of post id, or ErrNotFound.
func (s *Service) Post(ctx context.Context, id string) (*PostDetail, error) {
	if !models.ValidID(id) {
		return nil, ErrNotFound
	}
	return cache.Load(s.cache, PostPath(id), func() (*PostDetail, error) {
		p, err := s.store.GetPost(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get post: %w", err)
		}
		return detail(p), nil
	})
}

func detail(p *models.Post) *PostDetail {
	likes, dislikes := models.Tally(p.Reactions)
	d := &PostDetail{
		ID:         p.ID,
		UserID:     p.UserID,
		Title:      p.Title,
		Content:    p.Content,
		HTML:       utils.RenderMarkdown(p.Content),
		AuthorName: p.Author.DisplayName(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Likes:      likes,
		Dislikes:   dislikes,
		Score:      likes - dislikes,
		Comments:   make([]CommentView, 0, len(p.Comments)),
		reactions:  make(map[string]models.ReactionType, len(p.Reactions)),
	}
	for _, r := range p.Reactions {
		d.reactions[r.UserID] = r.ReactionType
	}
	for _, c := range p.Comments {
		d.Comments = append(d.Comments, CommentView{
			ID:         c.ID,
			UserID:     c.UserID,
			AuthorName: c.Author.DisplayName(),
			Content:    c.Content,
			HTML:       utils.RenderMarkdown(c.Content),
			CreatedAt:  c.CreatedAt,
			Edited:     c.UpdatedAt.Sub(c.CreatedAt) > time.Second,
		})
	}
	return d
}

// Profile assembles the profile page of u. A missing profile row is not an
// error: the username falls back to the email local part.
func (s *Service) Profile(ctx context.Context, u *models.User) (*ProfileView, error) {
	view := &ProfileView{Email: u.Email, JoinedAt: u.CreatedAt}

	profile, err := s.store.GetProfile(ctx, u.ID)
	switch {
	case err == nil:
		view.HasProfile = true
		view.Username = profile.Username
		view.JoinedAt = profile.CreatedAt
	case errors.Is(err, store.ErrNotFound):
	default:
		s.log.Error().Err(err).Str(logger.UserID, u.ID).Msg("error fetching profile")
	}

	if strings.TrimSpace(view.Username) == "" {
		if local := strings.SplitN(u.Email, "@", 2)[0]; local != "" {
			view.Username = local
		} else {
			view.Username = DefaultUsername
		}
	}

	posts, err := s.UserPosts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	view.Posts = posts
	return view, nil
}
