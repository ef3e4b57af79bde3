package client

import (
	"errors"
	"strings"
)

// HeaderView renders the navigation links and hosts the account modal.
type HeaderView struct {
	api     *Client
	session *Session
}

func NewHeaderView(api *Client, session *Session) *HeaderView {
	return &HeaderView{api: api, session: session}
}

// NavLink is one entry in the navigation bar.
type NavLink struct {
	Label  string
	Target string
}

// Links returns the navigation entries for the current auth state.
func (v *HeaderView) Links() []NavLink {
	links := []NavLink{{Label: "Home", Target: "/"}}
	if _, ok := v.session.CurrentUser(); ok {
		links = append(links,
			NavLink{Label: "New Post", Target: "/edit"},
			NavLink{Label: "Account", Target: "#account"},
			NavLink{Label: "Log Out", Target: "/logout"},
		)
	} else {
		links = append(links,
			NavLink{Label: "Log In", Target: "/login"},
			NavLink{Label: "Sign Up", Target: "/signup"},
		)
	}
	return links
}

// ChangeUsername renames the account. A no-op rename is rejected locally;
// a taken name comes back as a 409. Success refreshes the session so the
// header shows the new name.
func (v *HeaderView) ChangeUsername(newUsername string) Result {
	user, ok := v.session.CurrentUser()
	if !ok {
		return Redirect("/login")
	}

	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return FieldError("username", "Username is required")
	}
	if newUsername == user.Username {
		return FieldError("username", "New username matches the current one")
	}

	if err := v.api.UpdateUsername(user.ID, newUsername); err != nil {
		if errors.Is(err, ErrConflict) {
			return FieldError("username", "Username already exists")
		}
		return FieldError("username", "Username change failed, please try again")
	}

	if err := v.session.Refresh(); err != nil {
		return FieldError("username", "Username change failed, please try again")
	}
	return Success()
}

// ChangePassword changes the account password and forces a re-login on
// success. The backend answers 404 for a wrong current password and 409
// when the new password is no change.
func (v *HeaderView) ChangePassword(currentPassword, newPassword, confirmPassword string) Result {
	user, ok := v.session.CurrentUser()
	if !ok {
		return Redirect("/login")
	}

	if currentPassword == "" {
		return FieldError("currentPassword", "Current password is required")
	}
	if newPassword == "" {
		return FieldError("password", "New password is required")
	}
	if newPassword == currentPassword {
		return FieldError("password", "New password matches the current one")
	}
	if newPassword != confirmPassword {
		return FieldError("confirmPassword", "Passwords do not match")
	}

	if err := v.api.UpdatePassword(user.ID, newPassword, currentPassword); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return FieldError("currentPassword", "Current password is incorrect")
		case errors.Is(err, ErrConflict):
			return FieldError("password", "New password matches the current one")
		default:
			return FieldError("password", "Password change failed, please try again")
		}
	}

	v.session.Logout()
	return Redirect("/login")
}
