// Package actions holds the request-scoped operations behind every form on
// the board. Each validates its input, calls the auth service or the store,
// revalidates the pages the write made stale and reports a Result.
package actions

import (
	"context"
	"errors"

	"makecommunity/internal/auth"
	"makecommunity/internal/cache"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"
	"makecommunity/internal/store"

	"github.com/rs/zerolog"
)

// Result reports the outcome of an action. Success is true exactly when
// Error is empty.
type Result struct {
	Success                bool                  `json:"success"`
	Error                  string                `json:"error,omitempty"`
	NeedsEmailConfirmation bool                  `json:"needsEmailConfirmation,omitempty"`
	Redirect               string                `json:"redirect,omitempty"`
	ID                     string                `json:"id,omitempty"`
	Reaction               *models.ReactionState `json:"reaction,omitempty"`
	Message                string                `json:"message,omitempty"`
}

func fail(msg string) Result {
	return Result{Error: msg}
}

func ok(redirect string) Result {
	return Result{Success: true, Redirect: redirect}
}

// Authenticator is the slice of the auth service the actions use.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.Response, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Response, error)
	SignOut(ctx context.Context, token string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyEmail(ctx context.Context, token string) (*auth.Response, error)
	UpdatePassword(ctx context.Context, token, password string) (*auth.Response, error)
}

// SessionStore holds the caller's access token between requests.
type SessionStore interface {
	AccessToken() string
	SetAccessToken(token string) error
	Clear() error
}

type Actions struct {
	auth    Authenticator
	store   store.Store
	reval   cache.Revalidator
	siteURL string
	log     zerolog.Logger
}

func New(a Authenticator, st store.Store, reval cache.Revalidator, siteURL string) *Actions {
	return &Actions{
		auth:    a,
		store:   st,
		reval:   reval,
		siteURL: siteURL,
		log:     logger.New("actions"),
	}
}

// storeError turns a store failure into the message shown to the user.
// Anything other than not-found or forbidden is relayed as is.
func storeError(err error, notFound, forbidden string) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrForbidden):
		return forbidden
	}
	return err.Error()
}
