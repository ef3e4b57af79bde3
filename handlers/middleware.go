package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tagblog/models"
	"tagblog/services"
)

const (
	SessionCookieName = "session_token"
	CSRFCookieName    = "XSRF-TOKEN"
	CSRFHeaderName    = "X-XSRF-TOKEN"
)

type contextKey string

const userContextKey contextKey = "currentUser"

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func currentUser(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(userContextKey).(models.User)
	return u, ok
}

// RequireAuth resolves the session cookie to a user row and injects it
// into the request context; requests without a live session get a 401.
func RequireAuth(db *sql.DB, sessions *services.SessionStore) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.UserID(r.Context(), sessionToken(r))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var u models.User
			err = db.QueryRow(`SELECT id, username FROM users WHERE id = $1`, userID).
				Scan(&u.ID, &u.Username)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, u)
			next(w, r.WithContext(ctx))
		}
	}
}

// CSRFProtect implements the double-submit cookie scheme: every response
// makes sure a signed XSRF-TOKEN cookie exists, and every mutating request
// must echo that cookie's value in the X-XSRF-TOKEN header.
func CSRFProtect(csrf *services.CSRF) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieVal := ""
			if cookie, err := r.Cookie(CSRFCookieName); err == nil {
				cookieVal = cookie.Value
			}

			if !csrf.Verify(cookieVal) {
				// A fresh or stale cookie cannot authorize this request,
				// but set a valid one for the next.
				cookieVal = ""
				if token, err := csrf.Token(); err == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     CSRFCookieName,
						Value:    token,
						Path:     "/",
						SameSite: http.SameSiteLaxMode,
					})
				}
			}

			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
				header := r.Header.Get(CSRFHeaderName)
				if cookieVal == "" || header != cookieVal {
					http.Error(w, "Invalid anti-forgery token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
