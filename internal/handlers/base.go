package handlers

import (
	"net/http"
	"sync"

	"makecommunity/internal/actions"
	"makecommunity/internal/logger"
	"makecommunity/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const flashKey = "flash"

var handlerLog = sync.OnceValue(func() *zerolog.Logger {
	l := logger.New("handlers")
	return &l
})

func log() *zerolog.Logger {
	return handlerLog()
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	if _, ok := obj["Flashes"]; !ok {
		obj["Flashes"] = flashes(c)
	}

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Status": code})
}

// resultStatus picks the HTTP status a failed Result is reported with.
func resultStatus(res actions.Result) int {
	switch res.Error {
	case "":
		return http.StatusOK
	case actions.MsgLoginRequired:
		return http.StatusUnauthorized
	case actions.MsgPostNotFound, actions.MsgCommentNotFound:
		return http.StatusNotFound
	case actions.MsgPostForbidden, actions.MsgCommentForbidden:
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// respond answers an action. Fragments get the Result as JSON; plain form
// posts follow the redirect on success and get rerender on failure.
func respond(c *gin.Context, res actions.Result, rerender func(status int)) {
	if middleware.WantsJSON(c) {
		c.JSON(resultStatus(res), res)
		return
	}
	if res.Success && res.Redirect != "" {
		c.Redirect(http.StatusFound, res.Redirect)
		return
	}
	rerender(resultStatus(res))
}

// backTo reports a failed action on a page that has no form of its own: the
// error is stored as a flash message and the browser is sent to path.
func backTo(c *gin.Context, path string, res actions.Result) func(int) {
	return func(int) {
		session := sessions.Default(c)
		session.AddFlash(res.Error, flashKey)
		if err := session.Save(); err != nil {
			log().Error().Err(err).Msg("failed to save flash")
		}
		c.Redirect(http.StatusFound, path)
	}
}

// flashes pops the pending flash messages for the current page.
func flashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log().Error().Err(err).Msg("failed to clear flashes")
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
