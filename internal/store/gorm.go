package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makecommunity/internal/models"
)

// toggleAttempts bounds the insert/delete/update cycle when a concurrent
// writer moves the row between two conditional writes.
const toggleAttempts = 5

type gormStore struct {
	db *gorm.DB
}

// NewGorm returns a Store backed by a migrated PostgreSQL connection.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrInvalid
	}
	return err
}

func (s *gormStore) CreateUser(ctx context.Context, u *models.User, username string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		profile := models.Profile{ID: u.ID, Username: username}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		u.Profile = &profile
		return nil
	})
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("lower(email) = lower(?)", strings.TrimSpace(email)).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *gormStore) ConfirmUser(ctx context.Context, id string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_confirmed_at IS NULL", id).
		Updates(map[string]interface{}{"email_confirmed_at": now, "updated_at": now})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either missing or already confirmed.
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *gormStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *gormStore) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Reactions").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Author").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *gormStore) ListPosts(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	q := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Reactions").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "post_id")
		})

	if opts.Query != "" {
		pattern := likePattern(opts.Query)
		q = q.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}
	if opts.UserID != "" {
		q = q.Where("user_id = ?", opts.UserID)
	}

	var posts []models.Post
	err := q.Order("created_at DESC").
		Limit(normalizeLimit(opts.Limit)).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", translate(err))
	}
	return posts, nil
}

// lockOwned loads the owner column of row id in table model under a row lock and
// checks it against userID.
func lockOwned(tx *gorm.DB, model interface{}, id, userID string) error {
	var owner struct{ UserID string }
	err := tx.Model(model).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("user_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&owner).Error
	if err != nil {
		return translate(err)
	}
	if owner.UserID == "" {
		return ErrNotFound
	}
	if owner.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *gormStore) UpdatePost(ctx context.Context, id, userID, title, content string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &models.Post{}, id, userID); err != nil {
			return err
		}
		err := tx.Model(&models.Post{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"title":      title,
				"content":    content,
				"updated_at": time.Now(),
			}).Error
		return translate(err)
	})
}

func (s *gormStore) DeletePost(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &models.Post{}, id, userID); err != nil {
			return err
		}
		return translate(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Post{}).Error)
	})
}

func (s *gormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *gormStore) UpdateComment(ctx context.Context, id, userID, content string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &models.Comment{}, id, userID); err != nil {
			return err
		}
		err := tx.Model(&models.Comment{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"content": content, "updated_at": time.Now()}).Error
		return translate(err)
	})
}

func (s *gormStore) DeleteComment(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwned(tx, &models.Comment{}, id, userID); err != nil {
			return err
		}
		return translate(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Comment{}).Error)
	})
}

func (s *gormStore) ToggleReaction(ctx context.Context, postID, userID string, t models.ReactionType) (models.ReactionState, error) {
	if !t.Valid() {
		return models.ReactionState{}, ErrInvalid
	}

	var state models.ReactionState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := toggle(tx, postID, userID, t)
		if err != nil {
			return err
		}
		state, err = countReactions(tx, postID)
		state.Reaction = current
		return err
	})
	if err != nil {
		return models.ReactionState{}, translate(err)
	}
	return state, nil
}

// toggle runs the conditional writes for press(t). Each write only succeeds
// from the state it expects, so no read-then-write window exists.
func toggle(tx *gorm.DB, postID, userID string, t models.ReactionType) (models.ReactionType, error) {
	for i := 0; i < toggleAttempts; i++ {
		// none -> t
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Reaction{
			PostID:       postID,
			UserID:       userID,
			ReactionType: t,
		})
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return t, nil
		}

		// t -> none
		res = tx.Where("post_id = ? AND user_id = ? AND reaction_type = ?", postID, userID, t).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return "", nil
		}

		// other -> t
		res = tx.Model(&models.Reaction{}).
			Where("post_id = ? AND user_id = ? AND reaction_type <> ?", postID, userID, t).
			Update("reaction_type", t)
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return t, nil
		}
	}
	return "", fmt.Errorf("toggle reaction: row kept changing after %d attempts", toggleAttempts)
}

func countReactions(tx *gorm.DB, postID string) (models.ReactionState, error) {
	var rows []struct {
		ReactionType models.ReactionType
		Count        int
	}
	err := tx.Model(&models.Reaction{}).
		Select("reaction_type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return models.ReactionState{}, err
	}

	var state models.ReactionState
	for _, r := range rows {
		switch r.ReactionType {
		case models.ReactionLike:
			state.Likes = r.Count
		case models.ReactionDislike:
			state.Dislikes = r.Count
		}
	}
	return state, nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
