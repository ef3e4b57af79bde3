package client

import (
	"errors"
	"log"

	"tagblog/models"
)

// HomeView is the post listing: tag sidebar, search box, paginated grid.
// Fetch failures degrade to an empty page rather than breaking the view.
type HomeView struct {
	api     *Client
	session *Session

	Tags []models.Tag
	Page models.Page

	search string
	tagID  int
	page   int
}

func NewHomeView(api *Client, session *Session) *HomeView {
	return &HomeView{api: api, session: session, page: 1}
}

// Load fetches the tag list once and the first post page.
func (v *HomeView) Load() Result {
	tags, err := v.api.ListTags()
	if err != nil {
		log.Printf("home: tag fetch failed: %v", err)
		tags = []models.Tag{}
	}
	v.Tags = tags
	return v.fetch()
}

// SetSearch replaces the search text and refetches from page one.
func (v *HomeView) SetSearch(search string) Result {
	v.search = search
	v.page = 1
	return v.fetch()
}

// SetTag filters by tag id; zero clears the filter.
func (v *HomeView) SetTag(tagID int) Result {
	v.tagID = tagID
	v.page = 1
	return v.fetch()
}

// NextPage advances using the page object's own next pointer, so it is a
// no-op on the last page no matter what the current number says.
func (v *HomeView) NextPage() Result {
	if !v.Page.HasNextPage {
		return Success()
	}
	v.page = v.Page.NextPage
	return v.fetch()
}

func (v *HomeView) PrevPage() Result {
	if !v.Page.HasPreviousPage {
		return Success()
	}
	v.page = v.Page.PrePage
	return v.fetch()
}

// CanModify reports whether the logged-in user owns the post, which gates
// the edit and delete controls on each card.
func (v *HomeView) CanModify(p models.Post) bool {
	user, ok := v.session.CurrentUser()
	return ok && user.ID == p.User.ID
}

// Delete removes a post after the modal confirms, then refetches the page
// and the tag list; the refetch only starts once the delete has answered,
// so the new page always reflects it.
func (v *HomeView) Delete(postID int) Result {
	if err := v.api.DeletePost(postID); err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound) {
			return Redirect("/")
		}
		log.Printf("home: delete failed: %v", err)
		return v.fetch()
	}

	tags, err := v.api.ListTags()
	if err != nil {
		log.Printf("home: tag refetch failed: %v", err)
	} else {
		v.Tags = tags
	}
	return v.fetch()
}

func (v *HomeView) fetch() Result {
	page, err := v.api.ListPosts(v.search, v.tagID, v.page)
	if err != nil {
		log.Printf("home: post fetch failed: %v", err)
		page = *models.NewPage(nil, 0, 1, 1)
	}
	v.Page = page
	return Success()
}
