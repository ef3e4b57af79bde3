package client

import (
	"errors"
	"strings"

	"tagblog/models"
)

const (
	maxImageSize = 5 * 1024 * 1024
	maxTitleLen  = 255
)

// EditorView is the create/edit form. Creating and editing share the
// same validation and submit path; editing additionally loads the post
// and verifies it belongs to the logged-in user.
type EditorView struct {
	api     *Client
	session *Session
	history *History

	postID int
	Post   models.Post
}

func NewEditorView(api *Client, session *Session, history *History) *EditorView {
	return &EditorView{api: api, session: session, history: history}
}

// Load prepares the form. Visiting without a session goes to login, an
// expired session is logged out first, and an edit of someone else's post
// (or a missing one) goes home before anything renders.
func (v *EditorView) Load(id int) Result {
	user, ok := v.session.CurrentUser()
	if !ok {
		return Redirect("/login")
	}
	if v.session.Expired() {
		v.session.Logout()
		return Redirect("/login")
	}

	v.postID = id
	if id == 0 {
		v.Post = models.Post{}
		return Success()
	}

	p, err := v.api.GetPost(id)
	if err != nil {
		return Redirect("/")
	}
	if p.User.ID != user.ID {
		return Redirect("/")
	}
	v.Post = p
	return Success()
}

// TagsText flattens the loaded post's tags back into the free-text field.
func (v *EditorView) TagsText() string {
	names := make([]string, len(v.Post.Tags))
	for i, t := range v.Post.Tags {
		names[i] = t.Name
	}
	return strings.Join(names, " ")
}

// Submit validates the form, including the image rule (JPEG or PNG, at
// most 5MB) before any bytes leave the machine, then creates or updates.
// Backend validation answers re-mark the same fields.
func (v *EditorView) Submit(form PostForm) Result {
	form.Title = strings.TrimSpace(form.Title)
	if form.Title == "" {
		return FieldError("title", "Title is required")
	}
	if len(form.Title) > maxTitleLen {
		return FieldError("title", "Title is too long")
	}
	if strings.TrimSpace(form.Content) == "" {
		return FieldError("content", "Content is required")
	}
	form.Tags = normalizeTags(form.Tags)
	if form.Image != nil {
		if form.Image.ContentType != "image/jpeg" && form.Image.ContentType != "image/png" {
			return FieldError("image", "Image type must be JPEG or PNG")
		}
		if form.Image.Size > maxImageSize {
			return FieldError("image", "Image size must be at most 5MB")
		}
	}

	var err error
	if v.postID == 0 {
		_, err = v.api.CreatePost(form)
	} else {
		_, err = v.api.UpdatePost(v.postID, form)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrPayloadTooLarge):
			return FieldError("image", "Image size must be at most 5MB")
		case errors.Is(err, ErrBadRequest):
			return FieldError("image", "Image type must be JPEG or PNG")
		case errors.Is(err, ErrUnauthorized):
			v.session.Clear()
			return Redirect("/login")
		case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound):
			return Redirect("/")
		default:
			return FieldError("title", "Saving the post failed, please try again")
		}
	}

	return Redirect(v.history.BackOrHome())
}

// normalizeTags turns the free-text field into the canonical form the
// backend stores: trimmed, lowercased, single-spaced, duplicates dropped.
func normalizeTags(tags string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(tags)))
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, name := range fields {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return strings.Join(out, " ")
}
