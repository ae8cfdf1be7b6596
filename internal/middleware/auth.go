package middleware

import (
	"net/http"

	"makecommunity/internal/models"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoginRequiredMessage is returned to fragment requests from anonymous users.
const LoginRequiredMessage = "로그인이 필요합니다."

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// WantsJSON reports whether the request came from a script fragment rather
// than a plain form post.
func WantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" || c.GetHeader("HX-Request") == "true" {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": LoginRequiredMessage})
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}
