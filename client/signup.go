package client

import (
	"errors"
	"strings"
)

// SignUpView registers a new account.
type SignUpView struct {
	api     *Client
	session *Session
	history *History
}

func NewSignUpView(api *Client, session *Session, history *History) *SignUpView {
	return &SignUpView{api: api, session: session, history: history}
}

// Load redirects home when a session already exists, same as login.
func (v *SignUpView) Load() Result {
	if _, ok := v.session.CurrentUser(); ok {
		return Redirect("/")
	}
	return Success()
}

// Submit validates locally first; a confirmation mismatch never reaches
// the network. A taken username comes back as a 409 and marks the field.
func (v *SignUpView) Submit(username, password, confirmPassword string) Result {
	username = strings.TrimSpace(username)
	if username == "" {
		return FieldError("username", "Username is required")
	}
	if password == "" {
		return FieldError("password", "Password is required")
	}
	if password != confirmPassword {
		return FieldError("confirmPassword", "Passwords do not match")
	}

	if _, err := v.api.Signup(username, password); err != nil {
		if errors.Is(err, ErrConflict) {
			return FieldError("username", "Username already exists")
		}
		return FieldError("username", "Signup failed, please try again")
	}

	return Redirect(v.history.BackOrHome())
}
