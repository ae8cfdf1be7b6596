package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"makecommunity/internal/models"
)

var errMockFailure = errors.New("memory store: simulated failure")

type reactionKey struct {
	postID string
	userID string
}

// MemoryStore keeps everything in process. It backs the tests and the
// STORE_DRIVER=memory dev mode, and follows the same ownership, cascade and
// uniqueness rules as the PostgreSQL schema.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	profiles  map[string]*models.Profile
	posts     map[string]*models.Post
	comments  map[string]*models.Comment
	reactions map[reactionKey]*models.Reaction
	last      time.Time

	// ShouldFail makes every call return an error.
	ShouldFail bool
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*models.User),
		profiles:  make(map[string]*models.Profile),
		posts:     make(map[string]*models.Post),
		comments:  make(map[string]*models.Comment),
		reactions: make(map[reactionKey]*models.Reaction),
	}
}

// tick returns a strictly increasing timestamp so creation order is stable.
// Callers hold m.mu.
func (m *MemoryStore) tick() time.Time {
	now := time.Now()
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}

func (m *MemoryStore) fail() error {
	if m.ShouldFail {
		return errMockFailure
	}
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.users {
		if strings.ToLower(existing.Email) == email {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = models.NewID()
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	profile := &models.Profile{ID: u.ID, Username: username, CreatedAt: now}

	stored := *u
	stored.Profile = nil
	m.users[u.ID] = &stored
	m.profiles[u.ID] = profile

	p := *profile
	u.Profile = &p
	return nil
}

func (m *MemoryStore) userCopy(u *models.User) *models.User {
	out := *u
	if p, ok := m.profiles[u.ID]; ok {
		pc := *p
		out.Profile = &pc
	}
	return &out
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.userCopy(u), nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return m.userCopy(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ConfirmUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if u.EmailConfirmedAt == nil {
		now := m.tick()
		u.EmailConfirmedAt = &now
		u.UpdatedAt = now
	}
	return nil
}

func (m *MemoryStore) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = m.tick()
	return nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *MemoryStore) CreatePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.profiles[p.UserID]; !ok {
		return ErrNotFound
	}
	if p.Title == "" || p.Content == "" {
		return ErrInvalid
	}
	if p.ID == "" {
		p.ID = models.NewID()
	}
	if _, ok := m.posts[p.ID]; ok {
		return ErrConflict
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	m.posts[p.ID] = &models.Post{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	return nil
}

// assemble copies stored post p with its relations. Callers hold m.mu.
func (m *MemoryStore) assemble(p *models.Post, fullComments bool) models.Post {
	out := *p
	if prof, ok := m.profiles[p.UserID]; ok {
		pc := *prof
		out.Author = &pc
	}

	out.Reactions = nil
	for _, r := range m.reactions {
		if r.PostID == p.ID {
			out.Reactions = append(out.Reactions, *r)
		}
	}
	sort.Slice(out.Reactions, func(i, j int) bool {
		return out.Reactions[i].CreatedAt.Before(out.Reactions[j].CreatedAt)
	})

	out.Comments = nil
	for _, c := range m.comments {
		if c.PostID != p.ID {
			continue
		}
		if !fullComments {
			out.Comments = append(out.Comments, models.Comment{ID: c.ID, PostID: c.PostID})
			continue
		}
		cc := *c
		if prof, ok := m.profiles[c.UserID]; ok {
			pc := *prof
			cc.Author = &pc
		}
		out.Comments = append(out.Comments, cc)
	}
	if fullComments {
		sort.Slice(out.Comments, func(i, j int) bool {
			return out.Comments[i].CreatedAt.Before(out.Comments[j].CreatedAt)
		})
	}
	return out
}

func (m *MemoryStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.assemble(p, true)
	return &out, nil
}

func (m *MemoryStore) ListPosts(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}

	q := strings.ToLower(opts.Query)
	var matched []*models.Post
	for _, p := range m.posts {
		if opts.UserID != "" && p.UserID != opts.UserID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Content), q) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit := normalizeLimit(opts.Limit); len(matched) > limit {
		matched = matched[:limit]
	}

	posts := make([]models.Post, 0, len(matched))
	for _, p := range matched {
		posts = append(posts, m.assemble(p, false))
	}
	return posts, nil
}

func (m *MemoryStore) ownedPost(id, userID string) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (m *MemoryStore) UpdatePost(ctx context.Context, id, userID, title, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	p, err := m.ownedPost(id, userID)
	if err != nil {
		return err
	}
	if title == "" || content == "" {
		return ErrInvalid
	}
	p.Title, p.Content = title, content
	p.UpdatedAt = m.tick()
	return nil
}

func (m *MemoryStore) DeletePost(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, err := m.ownedPost(id, userID); err != nil {
		return err
	}
	delete(m.posts, id)
	// ON DELETE CASCADE
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	for k := range m.reactions {
		if k.postID == id {
			delete(m.reactions, k)
		}
	}
	return nil
}

func (m *MemoryStore) CreateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.profiles[c.UserID]; !ok {
		return ErrNotFound
	}
	if c.Content == "" {
		return ErrInvalid
	}
	if c.ID == "" {
		c.ID = models.NewID()
	}
	now := m.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Author = nil
	m.comments[c.ID] = &stored
	return nil
}

func (m *MemoryStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	if prof, ok := m.profiles[c.UserID]; ok {
		pc := *prof
		out.Author = &pc
	}
	return &out, nil
}

func (m *MemoryStore) ownedComment(id, userID string) (*models.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (m *MemoryStore) UpdateComment(ctx context.Context, id, userID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	c, err := m.ownedComment(id, userID)
	if err != nil {
		return err
	}
	if content == "" {
		return ErrInvalid
	}
	c.Content = content
	c.UpdatedAt = m.tick()
	return nil
}

func (m *MemoryStore) DeleteComment(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, err := m.ownedComment(id, userID); err != nil {
		return err
	}
	delete(m.comments, id)
	return nil
}

func (m *MemoryStore) ToggleReaction(ctx context.Context, postID, userID string, t models.ReactionType) (models.ReactionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return models.ReactionState{}, err
	}
	if !t.Valid() {
		return models.ReactionState{}, ErrInvalid
	}
	if _, ok := m.posts[postID]; !ok {
		return models.ReactionState{}, ErrNotFound
	}
	if _, ok := m.profiles[userID]; !ok {
		return models.ReactionState{}, ErrNotFound
	}

	key := reactionKey{postID: postID, userID: userID}
	var state models.ReactionState
	switch existing, ok := m.reactions[key]; {
	case !ok:
		m.reactions[key] = &models.Reaction{PostID: postID, UserID: userID, ReactionType: t, CreatedAt: m.tick()}
		state.Reaction = t
	case existing.ReactionType == t:
		delete(m.reactions, key)
	default:
		existing.ReactionType = t
		state.Reaction = t
	}

	for k, r := range m.reactions {
		if k.postID != postID {
			continue
		}
		switch r.ReactionType {
		case models.ReactionLike:
			state.Likes++
		case models.ReactionDislike:
			state.Dislikes++
		}
	}
	return state, nil
}

// ReactionCount returns the number of reaction rows (post, user) holds. Tests
// use it to check the one-row invariant.
func (m *MemoryStore) ReactionCount(postID, userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.reactions[reactionKey{postID: postID, userID: userID}]; ok {
		return 1
	}
	return 0
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fail()
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
