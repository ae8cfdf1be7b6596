package handlers

import (
	"errors"
	"net/http"

	"makecommunity/internal/actions"
	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/middleware"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	actions *actions.Actions
	feed    *feed.Service
}

func NewPostHandler(a *actions.Actions, f *feed.Service) *PostHandler {
	return &PostHandler{actions: a, feed: f}
}

func (h *PostHandler) Home(c *gin.Context) {
	posts, err := h.feed.Home(c.Request.Context())
	if err != nil {
		log().Error().Err(err).Msg("failed to load home feed")
	}
	Render(c, http.StatusOK, "home.html", gin.H{"Posts": posts})
}

func (h *PostHandler) Detail(c *gin.Context) {
	d, err := h.feed.Post(c.Request.Context(), c.Param("id"))
	if err != nil {
		if !errors.Is(err, feed.ErrNotFound) {
			log().Error().Err(err).Str(logger.PostID, c.Param("id")).Msg("failed to load post")
		}
		RenderError(c, http.StatusNotFound, actions.MsgPostNotFound)
		return
	}
	Render(c, http.StatusOK, "post/detail.html", gin.H{
		"Post": feed.ViewFor(d, middleware.CurrentUser(c)),
	})
}

func (h *PostHandler) ShowWrite(c *gin.Context) {
	Render(c, http.StatusOK, "post/write.html", nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	title, content := c.PostForm("title"), c.PostForm("content")
	res := h.actions.CreatePost(c.Request.Context(), middleware.CurrentUser(c), title, content)
	respond(c, res, func(status int) {
		Render(c, status, "post/write.html", gin.H{"Error": res.Error, "Title": title, "Content": content})
	})
}

// ShowEdit serves the edit form to the post's author only; everyone else
// gets the not-found page.
func (h *PostHandler) ShowEdit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	d, err := h.feed.Post(c.Request.Context(), c.Param("id"))
	if err != nil || d.UserID != user.ID {
		if err != nil && !errors.Is(err, feed.ErrNotFound) {
			log().Error().Err(err).Str(logger.PostID, c.Param("id")).Msg("failed to load post for edit")
		}
		RenderError(c, http.StatusNotFound, actions.MsgPostNotFound)
		return
	}
	Render(c, http.StatusOK, "post/edit.html", gin.H{"ID": d.ID, "Title": d.Title, "Content": d.Content})
}

func (h *PostHandler) Update(c *gin.Context) {
	id := c.Param("id")
	title, content := c.PostForm("title"), c.PostForm("content")
	res := h.actions.UpdatePost(c.Request.Context(), middleware.CurrentUser(c), id, title, content)
	respond(c, res, func(status int) {
		Render(c, status, "post/edit.html", gin.H{"Error": res.Error, "ID": id, "Title": title, "Content": content})
	})
}

func (h *PostHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	res := h.actions.DeletePost(c.Request.Context(), middleware.CurrentUser(c), id)
	respond(c, res, backTo(c, feed.PostPath(id), res))
}

func (h *PostHandler) Search(c *gin.Context) {
	q := c.Query("q")
	posts, err := h.feed.Search(c.Request.Context(), q)
	if err != nil {
		log().Error().Err(err).Str("q", q).Msg("search failed")
	}
	Render(c, http.StatusOK, "search.html", gin.H{"Query": q, "Posts": posts})
}
