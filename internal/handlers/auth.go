package handlers

import (
	"net/http"

	"makecommunity/internal/actions"
	"makecommunity/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	actions *actions.Actions
}

func NewAuthHandler(a *actions.Actions) *AuthHandler {
	return &AuthHandler{actions: a}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	res := h.actions.SignIn(c.Request.Context(), middleware.SessionFor(c), email, c.PostForm("password"))
	respond(c, res, func(status int) {
		Render(c, status, "auth/login.html", gin.H{"Error": res.Error, "Email": email})
	})
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/signup.html", nil)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	email := c.PostForm("email")
	username := c.PostForm("username")
	res := h.actions.SignUp(c.Request.Context(), middleware.SessionFor(c), email, c.PostForm("password"), username)
	respond(c, res, func(status int) {
		if res.NeedsEmailConfirmation {
			status = http.StatusOK
		}
		Render(c, status, "auth/signup.html", gin.H{
			"Error":                  res.Error,
			"NeedsEmailConfirmation": res.NeedsEmailConfirmation,
			"Email":                  email,
			"Username":               username,
		})
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	res := h.actions.SignOut(c.Request.Context(), middleware.SessionFor(c))
	respond(c, res, func(int) {
		c.Redirect(http.StatusFound, "/login")
	})
}

// Callback confirms the email address from the link mailed at sign-up.
func (h *AuthHandler) Callback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		RenderError(c, http.StatusBadRequest, "잘못된 인증 링크입니다.")
		return
	}
	res := h.actions.ConfirmEmail(c.Request.Context(), middleware.SessionFor(c), token)
	if !res.Success {
		RenderError(c, http.StatusBadRequest, res.Error)
		return
	}
	c.Redirect(http.StatusFound, res.Redirect)
}

// CheckUser answers whether an email is registered. Only routed in debug mode.
func (h *AuthHandler) CheckUser(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, actions.CheckUserResult{Error: actions.MsgCredentialsRequired})
		return
	}
	c.JSON(http.StatusOK, h.actions.CheckUser(c.Request.Context(), email))
}

// ShowResetPassword shows the request form, or the new-password form when
// the page was opened from a recovery link.
func (h *AuthHandler) ShowResetPassword(c *gin.Context) {
	Render(c, http.StatusOK, "auth/reset_password.html", gin.H{"Token": c.Query("token")})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.PostForm("token")

	if token == "" {
		email := c.PostForm("email")
		res := h.actions.RequestPasswordReset(ctx, email)
		respond(c, res, func(status int) {
			Render(c, status, "auth/reset_password.html", gin.H{
				"Error":   res.Error,
				"Message": res.Message,
				"Email":   email,
			})
		})
		return
	}

	res := h.actions.ResetPassword(ctx, middleware.SessionFor(c), token, c.PostForm("password"), c.PostForm("password_confirm"))
	respond(c, res, func(status int) {
		Render(c, status, "auth/reset_password.html", gin.H{"Error": res.Error, "Token": token})
	})
}
