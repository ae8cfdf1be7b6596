package handlers

import (
	"net/http"

	"makecommunity/internal/actions"
	"makecommunity/internal/feed"
	"makecommunity/internal/middleware"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	actions *actions.Actions
}

func NewReactionHandler(a *actions.Actions) *ReactionHandler {
	return &ReactionHandler{actions: a}
}

// Toggle presses the like or dislike button. The page script posts here
// and gets JSON; a plain form post is sent back to the post.
func (h *ReactionHandler) Toggle(c *gin.Context) {
	postID := c.Param("id")
	res := h.actions.ToggleReaction(c.Request.Context(), middleware.CurrentUser(c), postID, c.PostForm("type"))
	if res.Success {
		res.Redirect = feed.PostPath(postID)
	}
	respond(c, res, func(status int) {
		if status == http.StatusUnauthorized {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		backTo(c, feed.PostPath(postID), res)(status)
	})
}
