package feed

import "makecommunity/internal/models"

// PostView is a PostDetail as seen by one viewer.
type PostView struct {
	*PostDetail
	UserReaction    models.ReactionType
	IsOwner         bool
	IsAuthenticated bool
	Comments        []CommentItem
}

type CommentItem struct {
	CommentView
	IsOwner bool
}

// ViewFor adds the viewer-specific fields to d. viewer may be nil.
func ViewFor(d *PostDetail, viewer *models.User) *PostView {
	v := &PostView{PostDetail: d}
	var uid string
	if viewer != nil {
		uid = viewer.ID
		v.IsAuthenticated = true
	}
	v.UserReaction = d.ReactionOf(uid)
	v.IsOwner = uid != "" && uid == d.UserID

	v.Comments = make([]CommentItem, 0, len(d.Comments))
	for _, c := range d.Comments {
		v.Comments = append(v.Comments, CommentItem{
			CommentView: c,
			IsOwner:     uid != "" && uid == c.UserID,
		})
	}
	return v
}
