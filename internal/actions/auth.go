package actions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"makecommunity/internal/auth"
	"makecommunity/internal/logger"
)

// SignUp registers a user. When the new account has no session yet, an
// immediate sign-in is attempted; if that fails the user most likely has to
// confirm their email first.
func (a *Actions) SignUp(ctx context.Context, sess SessionStore, email, password, username string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fail(MsgCredentialsRequired)
	}

	res, err := a.auth.SignUp(ctx, email, password, auth.SignUpOptions{
		Username:        strings.TrimSpace(username),
		EmailRedirectTo: a.siteURL + "/auth/callback",
	})
	if err != nil {
		return fail(err.Error())
	}

	session := res.Session
	if res.User != nil && session == nil {
		signIn, err := a.auth.SignInWithPassword(ctx, email, password)
		if err != nil {
			return Result{Error: MsgNeedsEmailConfirmation, NeedsEmailConfirmation: true}
		}
		session = signIn.Session
	}

	if session != nil {
		if err := sess.SetAccessToken(session.AccessToken); err != nil {
			return fail(err.Error())
		}
	}
	a.reval.RevalidateLayout()
	return ok("/")
}

// SignIn opens a session for email/password. Failures are logged with the
// backend's details and mapped to friendlier messages.
func (a *Actions) SignIn(ctx context.Context, sess SessionStore, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fail(MsgCredentialsRequired)
	}

	res, err := a.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return fail(a.signInError(err, email))
	}

	if err := sess.SetAccessToken(res.Session.AccessToken); err != nil {
		return fail(err.Error())
	}
	a.reval.RevalidateLayout()
	return ok("/")
}

func (a *Actions) signInError(err error, email string) string {
	msg := err.Error()
	status := 0
	if ae, ok := auth.AsError(err); ok {
		status = ae.Status
	}

	a.log.Warn().
		Str("message", msg).
		Int("status", status).
		Str("email", logger.MaskEmail(email)).
		Msg("sign in failed")

	switch {
	case msg == auth.ErrInvalidCredentials.Message || status == http.StatusBadRequest:
		return msgInvalidLogin(email)
	case strings.Contains(msg, "Email not confirmed") || strings.Contains(msg, "email_not_confirmed"):
		return MsgEmailNotConfirmed
	case strings.Contains(msg, "User not found"):
		return msgUnregisteredEmail(email)
	}
	return msg
}

// SignOut ends the session and sends the user to the login page.
func (a *Actions) SignOut(ctx context.Context, sess SessionStore) Result {
	if err := a.auth.SignOut(ctx, sess.AccessToken()); err != nil {
		a.log.Error().Err(err).Msg("sign out failed")
	}
	if err := sess.Clear(); err != nil {
		a.log.Error().Err(err).Msg("failed to clear session")
	}
	a.reval.RevalidateLayout()
	return ok("/login")
}

// CheckUserResult is the answer of the CheckUser diagnostic.
type CheckUserResult struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

// CheckUser guesses whether email is registered by requesting a password
// reset for it. Any failure other than "not found" counts as existing, so
// the answer is a hint, not a guarantee.
func (a *Actions) CheckUser(ctx context.Context, email string) CheckUserResult {
	err := a.auth.ResetPasswordForEmail(ctx, strings.TrimSpace(email), a.siteURL+"/reset-password")
	if err != nil {
		a.log.Error().Err(err).Msg("check user error")
		msg := err.Error()
		if strings.Contains(strings.ToLower(msg), "not found") || strings.Contains(msg, "does not exist") {
			return CheckUserResult{Exists: false, Error: MsgUserDoesNotExist}
		}
	}
	return CheckUserResult{Exists: true}
}

// ConfirmEmail completes sign-up from the emailed link and signs the user in.
func (a *Actions) ConfirmEmail(ctx context.Context, sess SessionStore, token string) Result {
	res, err := a.auth.VerifyEmail(ctx, token)
	if err != nil {
		return fail(err.Error())
	}
	if err := sess.SetAccessToken(res.Session.AccessToken); err != nil {
		return fail(err.Error())
	}
	a.reval.RevalidateLayout()
	return ok("/")
}

// RequestPasswordReset mails a recovery link. The result does not reveal
// whether the address is registered.
func (a *Actions) RequestPasswordReset(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return fail(MsgCredentialsRequired)
	}
	err := a.auth.ResetPasswordForEmail(ctx, email, a.siteURL+"/reset-password")
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return fail(err.Error())
	}
	return Result{Success: true, Message: MsgResetMailSent}
}

// ResetPassword sets a new password from a recovery token and signs the
// user in.
func (a *Actions) ResetPassword(ctx context.Context, sess SessionStore, token, password, confirm string) Result {
	if password == "" {
		return fail(MsgPasswordRequired)
	}
	if password != confirm {
		return fail(MsgPasswordMismatch)
	}

	res, err := a.auth.UpdatePassword(ctx, token, password)
	if err != nil {
		return fail(err.Error())
	}
	if err := sess.SetAccessToken(res.Session.AccessToken); err != nil {
		return fail(err.Error())
	}
	a.reval.RevalidateLayout()
	return ok("/")
}
