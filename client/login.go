package client

import (
	"errors"
	"strings"
)

// LoginView collects credentials and opens a session.
type LoginView struct {
	api     *Client
	session *Session
	history *History
}

func NewLoginView(api *Client, session *Session, history *History) *LoginView {
	return &LoginView{api: api, session: session, history: history}
}

// Load guards against re-login: an already-authenticated visit goes home.
func (v *LoginView) Load() Result {
	if _, ok := v.session.CurrentUser(); ok {
		return Redirect("/")
	}
	return Success()
}

// Submit validates locally, then posts the credentials. A backend
// credential mismatch marks the password field; success refreshes the
// session and navigates to wherever the user came from.
func (v *LoginView) Submit(username, password string) Result {
	username = strings.TrimSpace(username)
	if username == "" {
		return FieldError("username", "Username is required")
	}
	if password == "" {
		return FieldError("password", "Password is required")
	}

	if err := v.api.Login(username, password); err != nil {
		if errors.Is(err, ErrNotFound) {
			return FieldError("password", "Incorrect username or password")
		}
		return FieldError("password", "Login failed, please try again")
	}

	if err := v.session.Refresh(); err != nil {
		return FieldError("password", "Login failed, please try again")
	}
	return Redirect(v.history.BackOrHome())
}
