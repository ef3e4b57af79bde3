package client

import (
	"errors"

	"tagblog/models"
)

// Session tracks who is logged in. It is established once at startup and
// shared by every view; the backend stays the source of truth and Refresh
// is the only way user state gets in.
type Session struct {
	api  *Client
	user *models.User
}

func NewSession(api *Client) *Session {
	return &Session{api: api}
}

// Refresh re-asks the backend who the cookie belongs to. Being logged out
// is a normal answer, not an error.
func (s *Session) Refresh() error {
	u, err := s.api.CurrentUser()
	if err != nil {
		s.user = nil
		if errors.Is(err, ErrUnauthorized) {
			return nil
		}
		return err
	}
	s.user = &u
	return nil
}

// CurrentUser returns the logged-in user, if any.
func (s *Session) CurrentUser() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Logout ends the backend session and clears local state. Local state is
// cleared even when the backend call fails.
func (s *Session) Logout() error {
	err := s.api.Logout()
	s.user = nil
	return err
}

func (s *Session) Clear() {
	s.user = nil
}

// Expired asks the backend whether the session cookie still holds. A
// network failure counts as not-expired so a blip doesn't log anyone out.
func (s *Session) Expired() bool {
	expired, err := s.api.SessionExpired()
	if err != nil {
		return false
	}
	return expired
}
