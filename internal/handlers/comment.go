package handlers

import (
	"makecommunity/internal/actions"
	"makecommunity/internal/feed"
	"makecommunity/internal/middleware"
	"makecommunity/internal/store"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	actions *actions.Actions
	store   store.Store
}

func NewCommentHandler(a *actions.Actions, st store.Store) *CommentHandler {
	return &CommentHandler{actions: a, store: st}
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID := c.Param("id")
	res := h.actions.CreateComment(c.Request.Context(), middleware.CurrentUser(c), postID, c.PostForm("content"))
	respond(c, res, backTo(c, feed.PostPath(postID)+"#comments", res))
}

func (h *CommentHandler) Update(c *gin.Context) {
	id := c.Param("id")
	res := h.actions.UpdateComment(c.Request.Context(), middleware.CurrentUser(c), id, c.PostForm("content"))
	respond(c, res, func(status int) {
		backTo(c, h.returnPath(c, id), res)(status)
	})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	res := h.actions.DeleteComment(c.Request.Context(), middleware.CurrentUser(c), id)
	respond(c, res, func(status int) {
		backTo(c, h.returnPath(c, id), res)(status)
	})
}

// returnPath is the page a failed comment form goes back to: the parent
// post when the comment still exists, else home.
func (h *CommentHandler) returnPath(c *gin.Context, id string) string {
	if cm, err := h.store.GetComment(c.Request.Context(), id); err == nil {
		return feed.PostPath(cm.PostID) + "#comments"
	}
	return "/"
}
