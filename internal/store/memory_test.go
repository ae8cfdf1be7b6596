package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"makecommunity/internal/models"
)

func newUser(t *testing.T, s *MemoryStore, email, username string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u, username); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func newPost(t *testing.T, s *MemoryStore, userID, title, content string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Title: title, Content: content}
	if err := s.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return p
}

func TestCreateUserCreatesProfile(t *testing.T) {
	s := NewMemory()
	u := newUser(t, s, "Alice@Example.com", "alice")

	p, err := s.GetProfile(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Username != "alice" {
		t.Errorf("expected username alice, got %s", p.Username)
	}

	if _, err := s.GetUserByEmail(context.Background(), "alice@example.COM"); err != nil {
		t.Errorf("email lookup should be case-insensitive: %v", err)
	}

	dup := &models.User{Email: "alice@example.com", PasswordHash: "y"}
	if err := s.CreateUser(context.Background(), dup, "other"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestListPostsOrderAndLimit(t *testing.T) {
	s := NewMemory()
	u := newUser(t, s, "a@example.com", "a")
	for i := 0; i < 25; i++ {
		newPost(t, s, u.ID, fmt.Sprintf("post %d", i), "body")
	}

	posts, err := s.ListPosts(context.Background(), ListOptions{Limit: HomeLimit})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != HomeLimit {
		t.Fatalf("expected %d posts, got %d", HomeLimit, len(posts))
	}
	if posts[0].Title != "post 24" {
		t.Errorf("expected newest first, got %s", posts[0].Title)
	}
	if posts[0].Author == nil || posts[0].Author.Username != "a" {
		t.Errorf("expected author to be loaded")
	}
}

func TestListPostsSearchIsCaseInsensitive(t *testing.T) {
	s := NewMemory()
	u := newUser(t, s, "a@example.com", "a")
	newPost(t, s, u.ID, "Hello World", "greeting")
	newPost(t, s, u.ID, "Other", "nothing to see")
	newPost(t, s, u.ID, "Third", "says hello in the body")

	for _, q := range []string{"hello", "WORLD"} {
		posts, err := s.ListPosts(context.Background(), ListOptions{Query: q, Limit: SearchLimit})
		if err != nil {
			t.Fatalf("ListPosts failed: %v", err)
		}
		found := false
		for _, p := range posts {
			if p.Title == "Hello World" {
				found = true
			}
		}
		if !found {
			t.Errorf("search %q did not return Hello World", q)
		}
	}

	posts, _ := s.ListPosts(context.Background(), ListOptions{Query: "hello"})
	if len(posts) != 2 {
		t.Errorf("expected title and content matches, got %d", len(posts))
	}
}

func TestUpdatePostOwnership(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com", "owner")
	other := newUser(t, s, "other@example.com", "other")
	p := newPost(t, s, owner.ID, "title", "content")

	if err := s.UpdatePost(ctx, p.ID, other.ID, "hacked", "hacked"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.UpdatePost(ctx, models.NewID(), owner.ID, "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := s.GetPost(ctx, p.ID)
	if got.Title != "title" || got.Content != "content" {
		t.Errorf("post changed by non-owner: %+v", got)
	}

	if err := s.UpdatePost(ctx, p.ID, owner.ID, "new", "body"); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	got, _ = s.GetPost(ctx, p.ID)
	if got.Title != "new" {
		t.Errorf("expected updated title, got %s", got.Title)
	}
}

func TestDeletePostCascades(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com", "a")
	p := newPost(t, s, u.ID, "t", "c")
	c := &models.Comment{PostID: p.ID, UserID: u.ID, Content: "hi"}
	if err := s.CreateComment(ctx, c); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if _, err := s.ToggleReaction(ctx, p.ID, u.ID, models.ReactionLike); err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}

	if err := s.DeletePost(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.GetComment(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected comment to cascade, got %v", err)
	}
	if n := s.ReactionCount(p.ID, u.ID); n != 0 {
		t.Errorf("expected reactions to cascade, got %d", n)
	}
}

func TestToggleReactionTransitions(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com", "a")
	p := newPost(t, s, u.ID, "t", "c")

	steps := []struct {
		press    models.ReactionType
		want     models.ReactionType
		likes    int
		dislikes int
	}{
		{models.ReactionLike, models.ReactionLike, 1, 0},
		{models.ReactionDislike, models.ReactionDislike, 0, 1},
		{models.ReactionDislike, "", 0, 0},
		{models.ReactionDislike, models.ReactionDislike, 0, 1},
		{models.ReactionLike, models.ReactionLike, 1, 0},
		{models.ReactionLike, "", 0, 0},
	}
	for i, step := range steps {
		st, err := s.ToggleReaction(ctx, p.ID, u.ID, step.press)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if st.Reaction != step.want || st.Likes != step.likes || st.Dislikes != step.dislikes {
			t.Errorf("step %d: got %+v, want reaction=%q likes=%d dislikes=%d",
				i, st, step.want, step.likes, step.dislikes)
		}
	}

	if _, err := s.ToggleReaction(ctx, p.ID, u.ID, "love"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown type, got %v", err)
	}
	if _, err := s.ToggleReaction(ctx, models.NewID(), u.ID, models.ReactionLike); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestToggleReactionConcurrentPresses(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com", "a")
	p := newPost(t, s, u.ID, "t", "c")

	// An even number of presses of the same type must end at none.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ToggleReaction(ctx, p.ID, u.ID, models.ReactionLike); err != nil {
				t.Errorf("ToggleReaction failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetPost(ctx, p.ID)
	if len(got.Reactions) != 0 {
		t.Errorf("expected no reaction after even presses, got %d rows", len(got.Reactions))
	}
}

func TestGetPostLoadsCommentAuthors(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	a := newUser(t, s, "a@example.com", "author")
	b := newUser(t, s, "b@example.com", "commenter")
	p := newPost(t, s, a.ID, "t", "c")

	for _, content := range []string{"first", "second"} {
		if err := s.CreateComment(ctx, &models.Comment{PostID: p.ID, UserID: b.ID, Content: content}); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[0].Content != "first" {
		t.Fatalf("expected comments oldest first, got %+v", got.Comments)
	}
	if got.Comments[1].Author == nil || got.Comments[1].Author.Username != "commenter" {
		t.Errorf("expected comment author loaded")
	}
}

func TestCommentOwnership(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	a := newUser(t, s, "a@example.com", "a")
	b := newUser(t, s, "b@example.com", "b")
	p := newPost(t, s, a.ID, "t", "c")
	c := &models.Comment{PostID: p.ID, UserID: a.ID, Content: "mine"}
	if err := s.CreateComment(ctx, c); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := s.UpdateComment(ctx, c.ID, b.ID, "theirs"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.DeleteComment(ctx, c.ID, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := s.CreateComment(ctx, &models.Comment{PostID: models.NewID(), UserID: a.ID, Content: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestShouldFail(t *testing.T) {
	s := NewMemory()
	s.ShouldFail = true
	if _, err := s.ListPosts(context.Background(), ListOptions{}); err == nil {
		t.Errorf("expected simulated failure")
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Errorf("expected ping failure")
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"hello":  "%hello%",
		"50%":    `%50\%%`,
		"a_b":    `%a\_b%`,
		`back\s`: `%back\\s%`,
	}
	for in, want := range cases {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
