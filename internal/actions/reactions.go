package actions

import (
	"context"
	"errors"

	"makecommunity/internal/feed"
	"makecommunity/internal/logger"
	"makecommunity/internal/models"
	"makecommunity/internal/store"
)

// ToggleReaction presses the like or dislike button of postID for user:
// pressing the active reaction clears it, pressing the other one flips it.
func (a *Actions) ToggleReaction(ctx context.Context, user *models.User, postID, reactionType string) Result {
	if user == nil {
		return fail(MsgLoginRequired)
	}
	t := models.ReactionType(reactionType)
	if !t.Valid() {
		return fail(MsgInvalidReaction)
	}
	if !models.ValidID(postID) {
		return fail(MsgPostNotFound)
	}

	state, err := a.store.ToggleReaction(ctx, postID, user.ID, t)
	if err != nil {
		a.log.Error().Err(err).Str(logger.PostID, postID).Str(logger.UserID, user.ID).Msg("toggle reaction failed")
		if errors.Is(err, store.ErrInvalid) {
			return fail(MsgInvalidReaction)
		}
		return fail(storeError(err, MsgPostNotFound, MsgPostForbidden))
	}

	a.reval.RevalidatePath(feed.PostPath(postID))
	a.reval.RevalidatePath(feed.HomePath)
	return Result{Success: true, ID: postID, Reaction: &state}
}
