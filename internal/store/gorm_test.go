package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"makecommunity/internal/db"
	"makecommunity/internal/models"
)

// openPostgres connects to TEST_DATABASE_URL, migrates it and empties the
// board tables. Tests using it are skipped when the variable is unset.
func openPostgres(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	if err := conn.Exec("TRUNCATE post_reactions, comments, posts, profiles, users CASCADE").Error; err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	s := NewGorm(conn)
	t.Cleanup(func() { s.Close() })
	return s
}

func pgUser(t *testing.T, s Store, email, username string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u, username); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func pgPost(t *testing.T, s Store, userID, title, content string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Title: title, Content: content}
	if err := s.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return p
}

func TestGormToggleReactionConcurrentPresses(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	u := pgUser(t, s, "a@example.com", "alice")
	p := pgPost(t, s, u.ID, "t", "c")

	const presses = 8
	var wg sync.WaitGroup
	errs := make(chan error, presses)
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleReaction(ctx, p.ID, u.ID, models.ReactionLike); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("ToggleReaction failed: %v", err)
	}

	// Every press toggles, so an even number leaves no reaction.
	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Reactions) != 0 {
		t.Errorf("expected no reaction after %d presses, got %+v", presses, got.Reactions)
	}

	state, err := s.ToggleReaction(ctx, p.ID, u.ID, models.ReactionDislike)
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if state.Reaction != models.ReactionDislike || state.Likes != 0 || state.Dislikes != 1 {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestGormToggleReactionMixedConcurrentPresses(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	u := pgUser(t, s, "a@example.com", "alice")
	p := pgPost(t, s, u.ID, "t", "c")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		kind := models.ReactionLike
		if i%2 == 1 {
			kind = models.ReactionDislike
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleReaction(ctx, p.ID, u.ID, kind); err != nil {
				t.Errorf("ToggleReaction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Reactions) > 1 {
		t.Errorf("expected at most one reaction per user, got %+v", got.Reactions)
	}
}

func TestGormToggleReactionUnknownPost(t *testing.T) {
	s := openPostgres(t)
	u := pgUser(t, s, "a@example.com", "alice")

	_, err := s.ToggleReaction(context.Background(), models.NewID(), u.ID, models.ReactionLike)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.ToggleReaction(context.Background(), models.NewID(), u.ID, "love"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestGormPostOwnership(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	owner := pgUser(t, s, "a@example.com", "alice")
	other := pgUser(t, s, "b@example.com", "bob")
	p := pgPost(t, s, owner.ID, "t", "c")

	if err := s.UpdatePost(ctx, p.ID, other.ID, "x", "y"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on update, got %v", err)
	}
	if err := s.DeletePost(ctx, p.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on delete, got %v", err)
	}
	missing := models.NewID()
	if err := s.UpdatePost(ctx, missing, owner.ID, "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
	if err := s.DeletePost(ctx, missing, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil || got.Title != "t" {
		t.Fatalf("rejected writes must leave the post unchanged: %+v %v", got, err)
	}

	if err := s.UpdatePost(ctx, p.ID, owner.ID, "new", "body"); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if err := s.DeletePost(ctx, p.ID, owner.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGormCommentOwnershipAndMissingPost(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	owner := pgUser(t, s, "a@example.com", "alice")
	other := pgUser(t, s, "b@example.com", "bob")
	p := pgPost(t, s, owner.ID, "t", "c")

	orphan := &models.Comment{PostID: models.NewID(), UserID: owner.ID, Content: "hi"}
	if err := s.CreateComment(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for comment on missing post, got %v", err)
	}

	c := &models.Comment{PostID: p.ID, UserID: owner.ID, Content: "hi"}
	if err := s.CreateComment(ctx, c); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if err := s.UpdateComment(ctx, c.ID, other.ID, "x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.DeleteComment(ctx, c.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.DeleteComment(ctx, models.NewID(), owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Deleting the post cascades to its comments.
	if err := s.DeletePost(ctx, p.ID, owner.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetComment(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected comment removed with its post, got %v", err)
	}
}

func TestGormSearchEscapesWildcards(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	u := pgUser(t, s, "a@example.com", "alice")
	pct := pgPost(t, s, u.ID, "100% 완료", "body")
	pgPost(t, s, u.ID, "1000 완료", "body")
	under := pgPost(t, s, u.ID, "a_b", "body")
	pgPost(t, s, u.ID, "axb", "body")

	cases := []struct {
		query string
		want  string
	}{
		{"100%", pct.ID},
		{"A_B", under.ID},
	}
	for _, tc := range cases {
		posts, err := s.ListPosts(ctx, ListOptions{Query: tc.query, Limit: SearchLimit})
		if err != nil {
			t.Fatalf("ListPosts(%q) failed: %v", tc.query, err)
		}
		if len(posts) != 1 || posts[0].ID != tc.want {
			t.Errorf("ListPosts(%q) = %d posts, want only %s", tc.query, len(posts), tc.want)
		}
	}
}

func TestGormDuplicateEmail(t *testing.T) {
	s := openPostgres(t)
	pgUser(t, s, "Alice@Example.com", "alice")

	dup := &models.User{Email: "alice@example.com", PasswordHash: "y"}
	if err := s.CreateUser(context.Background(), dup, "other"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}
