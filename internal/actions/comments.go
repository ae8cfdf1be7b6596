package actions

import (
	"context"
	"strings"

	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"
)

func (a *Actions) CreateComment(ctx context.Context, user *models.User, postID, content string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fail(MsgCommentRequired)
	}
	if !models.ValidID(postID) {
		return fail(MsgPostNotFound)
	}

	c := &models.Comment{PostID: postID, UserID: user.ID, Content: content}
	if err := a.store.CreateComment(ctx, c); err != nil {
		a.log.Error().Err(err).Str(logger.PostID, postID).Msg("error creating comment")
		return fail(storeError(err, MsgPostNotFound, MsgCommentForbidden))
	}

	// The home listing shows comment counts.
	a.reval.RevalidatePath(feed.PostPath(postID))
	a.reval.RevalidatePath(feed.HomePath)
	res := ok(feed.PostPath(postID) + "#comments")
	res.ID = c.ID
	return res
}

// UpdateComment looks up the parent post first so its page can be
// revalidated, then edits the comment if user wrote it.
func (a *Actions) UpdateComment(ctx context.Context, user *models.User, id, content string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fail(MsgCommentRequired)
	}
	postID, res, found := a.commentParent(ctx, id)
	if !found {
		return res
	}

	if err := a.store.UpdateComment(ctx, id, user.ID, content); err != nil {
		a.log.Warn().Err(err).Str("comment_id", id).Str(logger.UserID, user.ID).Msg("update comment rejected")
		return fail(storeError(err, MsgCommentNotFound, MsgCommentForbidden))
	}

	a.reval.RevalidatePath(feed.PostPath(postID))
	return ok(feed.PostPath(postID) + "#comments")
}

func (a *Actions) DeleteComment(ctx context.Context, user *models.User, id string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	postID, res, found := a.commentParent(ctx, id)
	if !found {
		return res
	}

	if err := a.store.DeleteComment(ctx, id, user.ID); err != nil {
		a.log.Warn().Err(err).Str("comment_id", id).Str(logger.UserID, user.ID).Msg("delete comment rejected")
		return fail(storeError(err, MsgCommentNotFound, MsgCommentForbidden))
	}

	a.reval.RevalidatePath(feed.PostPath(postID))
	a.reval.RevalidatePath(feed.HomePath)
	return ok(feed.PostPath(postID) + "#comments")
}

func (a *Actions) commentParent(ctx context.Context, id string) (string, Result, bool) {
	if !models.ValidID(id) {
		return "", fail(MsgCommentNotFound), false
	}
	c, err := a.store.GetComment(ctx, id)
	if err != nil {
		return "", fail(storeError(err, MsgCommentNotFound, MsgCommentForbidden)), false
	}
	return c.PostID, Result{}, true
}
