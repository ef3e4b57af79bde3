package client

import (
	"errors"
	"log"

	"tagblog/models"
)

// ViewPostView renders one post.
type ViewPostView struct {
	api     *Client
	session *Session
	history *History

	Post models.Post
}

func NewViewPostView(api *Client, session *Session, history *History) *ViewPostView {
	return &ViewPostView{api: api, session: session, history: history}
}

// Load fetches the post; anything that can't be shown goes home.
func (v *ViewPostView) Load(id int) Result {
	p, err := v.api.GetPost(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("viewpost: fetch failed: %v", err)
		}
		return Redirect("/")
	}
	v.Post = p
	return Success()
}

// CanModify gates the edit and delete controls. The backend re-checks
// ownership regardless.
func (v *ViewPostView) CanModify() bool {
	user, ok := v.session.CurrentUser()
	return ok && user.ID == v.Post.User.ID
}

// Delete removes the post and navigates back in the trail, or home. A
// rejection for a post that isn't ours is not fatal, just a trip home.
func (v *ViewPostView) Delete() Result {
	if err := v.api.DeletePost(v.Post.ID); err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound) {
			return Redirect("/")
		}
		log.Printf("viewpost: delete failed: %v", err)
		return Success()
	}
	return Redirect(v.history.BackOrHome())
}
