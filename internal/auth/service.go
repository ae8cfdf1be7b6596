// Package auth issues and verifies password sessions for the board. It plays
// the part of a hosted auth provider: sign-up with optional email
// confirmation, password sign-in, signed access tokens that the session
// middleware refreshes, sign-out and password recovery.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"makecommunity/internal/logger"
	"makecommunity/internal/models"
	"makecommunity/internal/store"
	"makecommunity/internal/utils"

	"github.com/rs/zerolog"
)

const minPasswordLength = 6

// Mailer delivers the links that complete confirmation and recovery.
type Mailer interface {
	SendConfirmationEmail(to, link string)
	SendPasswordResetEmail(to, link string)
}

// Session is a signed access token and its expiry.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Response is what sign-up and sign-in return. Session is nil when the user
// still has to confirm their email.
type Response struct {
	User    *models.User
	Session *Session
}

// SignUpOptions carries sign-up metadata and the confirmation link target.
type SignUpOptions struct {
	Username        string
	EmailRedirectTo string
}

type Options struct {
	Secret         string
	AccessTokenTTL time.Duration
	// ConfirmEmail requires users to follow the emailed link before they can
	// sign in.
	ConfirmEmail bool
	Mailer       Mailer
}

type Service struct {
	store        store.Store
	secret       []byte
	ttl          time.Duration
	confirmEmail bool
	mailer       Mailer
	log          zerolog.Logger
	now          func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewService(st store.Store, opts Options) *Service {
	ttl := opts.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		store:        st,
		secret:       []byte(opts.Secret),
		ttl:          ttl,
		confirmEmail: opts.ConfirmEmail,
		mailer:       opts.Mailer,
		log:          logger.New("auth"),
		now:          time.Now,
		revoked:      make(map[string]time.Time),
	}
}

func (s *Service) newSession(userID string) (*Session, error) {
	token, exp, err := s.issueToken(userID, purposeAccess, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// SignUp registers email/password. The username ends up on the profile,
// falling back to the email local part. Without email confirmation the user
// gets a session right away.
func (s *Service) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*Response, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(opts.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	u := &models.User{Email: email, PasswordHash: hash}
	if !s.confirmEmail {
		now := s.now()
		u.EmailConfirmedAt = &now
	}
	if err := s.store.CreateUser(ctx, u, username); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.log.Info().Str(logger.UserID, u.ID).Msg("user signed up")

	if s.confirmEmail {
		token, _, err := s.issueToken(u.ID, purposeConfirm, confirmTokenTTL)
		if err != nil {
			return nil, err
		}
		if s.mailer != nil {
			s.mailer.SendConfirmationEmail(u.Email, withToken(opts.EmailRedirectTo, token))
		}
		return &Response{User: u}, nil
	}

	sess, err := s.newSession(u.ID)
	if err != nil {
		return nil, err
	}
	return &Response{User: u, Session: sess}, nil
}

// SignInWithPassword checks the credentials and opens a session. Unknown
// email and wrong password are indistinguishable.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Response, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if s.confirmEmail && !u.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	sess, err := s.newSession(u.ID)
	if err != nil {
		return nil, err
	}
	return &Response{User: u, Session: sess}, nil
}

// GetUser resolves an access token to its user. When the token is past half
// its lifetime a fresh session is returned alongside; otherwise the returned
// session is nil.
func (s *Service) GetUser(ctx context.Context, token string) (*models.User, *Session, error) {
	c, err := s.parseToken(token, purposeAccess)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.store.GetUser(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	var refreshed *Session
	if c.IssuedAt != nil && s.now().Sub(c.IssuedAt.Time) > s.ttl/2 {
		// The old token stays valid until it expires; parallel requests
		// may still carry it.
		if refreshed, err = s.newSession(u.ID); err != nil {
			return nil, nil, err
		}
	}
	return u, refreshed, nil
}

// SignOut revokes the access token. Signing out without a session is not an
// error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parseToken(token, purposeAccess)
	if err != nil {
		return nil
	}
	s.revoke(c)
	s.log.Debug().Str(logger.UserID, c.Subject).Msg("user signed out")
	return nil
}

// ResetPasswordForEmail mails a recovery link pointing at redirectTo.
func (s *Service) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, _, err := s.issueToken(u.ID, purposeRecovery, recoveryTokenTTL)
	if err != nil {
		return err
	}
	if s.mailer != nil {
		s.mailer.SendPasswordResetEmail(u.Email, withToken(redirectTo, token))
	}
	return nil
}

// VerifyEmail consumes a confirmation token and signs the user in.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*Response, error) {
	c, err := s.parseToken(token, purposeConfirm)
	if err != nil {
		return nil, err
	}
	if err := s.store.ConfirmUser(ctx, c.Subject); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.revoke(c)

	u, err := s.store.GetUser(ctx, c.Subject)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(u.ID)
	if err != nil {
		return nil, err
	}
	return &Response{User: u, Session: sess}, nil
}

// UpdatePassword consumes a recovery token, sets the new password and signs
// the user in. Following a recovery link also proves the email address.
func (s *Service) UpdatePassword(ctx context.Context, token, password string) (*Response, error) {
	c, err := s.parseToken(token, purposeRecovery)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdatePassword(ctx, c.Subject, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.store.ConfirmUser(ctx, c.Subject); err != nil {
		return nil, err
	}
	s.revoke(c)

	u, err := s.store.GetUser(ctx, c.Subject)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(u.ID)
	if err != nil {
		return nil, err
	}
	return &Response{User: u, Session: sess}, nil
}

func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
