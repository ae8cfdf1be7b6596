package actions

import (
	"context"
	"strings"

	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"
)

// CreatePost publishes a post owned by user.
func (a *Actions) CreatePost(ctx context.Context, user *models.User, title, content string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return fail(MsgTitleContentRequired)
	}

	p := &models.Post{UserID: user.ID, Title: title, Content: content}
	if err := a.store.CreatePost(ctx, p); err != nil {
		a.log.Error().Err(err).Str(logger.UserID, user.ID).Msg("error creating post")
		return fail(err.Error())
	}
	if p.ID == "" {
		a.log.Error().Msg("post created but no id returned")
		return fail(MsgPostCreatedNoData)
	}

	a.reval.RevalidatePath(feed.HomePath)
	a.reval.RevalidatePath(feed.PostPath(p.ID))
	res := ok(feed.HomePath)
	res.ID = p.ID
	return res
}

// UpdatePost edits a post. Only its author may do so; a missing post and a
// foreign post are reported separately and leave the row untouched.
func (a *Actions) UpdatePost(ctx context.Context, user *models.User, id, title, content string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return fail(MsgTitleContentRequired)
	}
	if !models.ValidID(id) {
		return fail(MsgPostNotFound)
	}

	if err := a.store.UpdatePost(ctx, id, user.ID, title, content); err != nil {
		a.log.Warn().Err(err).Str(logger.PostID, id).Str(logger.UserID, user.ID).Msg("update post rejected")
		return fail(storeError(err, MsgPostNotFound, MsgPostForbidden))
	}

	a.reval.RevalidatePath(feed.PostPath(id))
	a.reval.RevalidatePath(feed.HomePath)
	res := ok(feed.PostPath(id))
	res.ID = id
	return res
}

// DeletePost removes a post with its comments and reactions.
func (a *Actions) DeletePost(ctx context.Context, user *models.User, id string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	if !models.ValidID(id) {
		return fail(MsgPostNotFound)
	}

	if err := a.store.DeletePost(ctx, id, user.ID); err != nil {
		a.log.Warn().Err(err).Str(logger.PostID, id).Str(logger.UserID, user.ID).Msg("delete post rejected")
		return fail(storeError(err, MsgPostNotFound, MsgPostForbidden))
	}

	a.reval.RevalidatePath(feed.HomePath)
	a.reval.RevalidatePath(feed.PostPath(id))
	return ok(feed.HomePath)
}
