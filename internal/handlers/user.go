package handlers

import (
	"net/http"

	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	feed *feed.Service
}

func NewUserHandler(f *feed.Service) *UserHandler {
	return &UserHandler{feed: f}
}

// Profile shows the signed-in user's account details and posts.
func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	p, err := h.feed.Profile(c.Request.Context(), user)
	if err != nil {
		log().Error().Err(err).Str(logger.UserID, user.ID).Msg("failed to load profile")
		RenderError(c, http.StatusInternalServerError, "프로필을 불러오지 못했습니다.")
		return
	}
	Render(c, http.StatusOK, "profile.html", gin.H{"Profile": p})
}
