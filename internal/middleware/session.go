package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"makecommunity/internal/auth"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionName is the cookie holding the session.
const SessionName = "makecommunity_session"

const accessTokenKey = "access_token"

// UserResolver resolves an access token, returning a replacement session
// when the token should be refreshed.
type UserResolver interface {
	GetUser(ctx context.Context, token string) (*models.User, *auth.Session, error)
}

var publicPaths = map[string]bool{
	"/":               true,
	"/login":          true,
	"/signup":         true,
	"/search":         true,
	"/reset-password": true,
	"/metrics":        true,
	"/healthz":        true,
	"/favicon.ico":    true,
	"/robots.txt":     true,
	"/sitemap.xml":    true,
	"/feed.xml":       true,
}

var publicPrefixes = []string{"/post/", "/static/", "/auth/"}

// IsPublicPath reports whether anonymous users may request path.
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CookieSession adapts the gin session to the token store the actions use.
type CookieSession struct {
	s sessions.Session
}

func SessionFor(c *gin.Context) *CookieSession {
	return &CookieSession{s: sessions.Default(c)}
}

func (cs *CookieSession) AccessToken() string {
	token, _ := cs.s.Get(accessTokenKey).(string)
	return token
}

func (cs *CookieSession) SetAccessToken(token string) error {
	cs.s.Set(accessTokenKey, token)
	return cs.s.Save()
}

func (cs *CookieSession) Clear() error {
	cs.s.Delete(accessTokenKey)
	return cs.s.Save()
}

// SessionRefresh resolves the session cookie to a user before any other
// handler runs, rewriting the cookie when the token is refreshed. Anonymous
// requests for non-public paths are redirected to /login. When the backend
// is not configured every request passes through. Errors, panics included,
// are logged and the request continues unauthenticated.
func SessionRefresh(resolver UserResolver, configured bool) gin.HandlerFunc {
	log := logger.New("session")
	return func(c *gin.Context) {
		if !configured || resolver == nil {
			c.Next()
			return
		}

		user, err := refreshSession(c, resolver)
		if err != nil {
			log.Error().Err(err).Str(logger.Path, c.Request.URL.Path).Msg("error in session middleware")
			c.Next()
			return
		}

		if user != nil {
			c.Set(CheckUserKey, user)
		} else if !IsPublicPath(c.Request.URL.Path) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func refreshSession(c *gin.Context, resolver UserResolver) (user *models.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			user, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	sess := SessionFor(c)
	token := sess.AccessToken()
	if token == "" {
		return nil, nil
	}

	user, refreshed, err := resolver.GetUser(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrSessionMissing) {
			// Stale cookie: drop it and carry on as anonymous.
			return nil, sess.Clear()
		}
		return nil, err
	}
	if refreshed != nil {
		if err := sess.SetAccessToken(refreshed.AccessToken); err != nil {
			return nil, err
		}
	}
	return user, nil
}
