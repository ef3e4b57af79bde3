package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tagblog/models"
	"tagblog/services"
)

func Signup(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u models.User
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		u.Username = strings.TrimSpace(u.Username)
		u.Password = strings.TrimSpace(u.Password)
		if u.Username == "" || u.Password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		var exists bool
		err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, u.Username).
			Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		if exists {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		err = db.QueryRow(`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`,
			u.Username, string(hashedPassword)).Scan(&u.ID)
		if err != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		log.Printf("Registered user %q (ID %d)", u.Username, u.ID)

		u.Password = ""
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(u)
	}
}

// Login checks form-data credentials and opens a session. Bad credentials
// answer 404, which is what the login view expects.
func Login(db *sql.DB, sessions *services.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.FormValue("username"))
		password := strings.TrimSpace(r.FormValue("password"))
		if username == "" || password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		var u models.User
		var hashed string
		err := db.QueryRow(`SELECT id, username, password FROM users WHERE username = $1`, username).
			Scan(&u.ID, &u.Username, &hashed)
		if err == sql.ErrNoRows {
			http.Error(w, "Incorrect username or password", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
			http.Error(w, "Incorrect username or password", http.StatusNotFound)
			return
		}

		token, err := sessions.Create(r.Context(), u.ID)
		if err != nil {
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		setSessionCookie(w, token, sessions.TTL())
		log.Printf("Login successful: id=%d, username=%q", u.ID, u.Username)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Login successful"})
	}
}

// Logout drops the session. Logging out without one is fine; the cookie is
// cleared either way.
func Logout(sessions *services.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessionToken(r); token != "" {
			if err := sessions.Delete(r.Context(), token); err != nil {
				log.Printf("Failed to delete session: %v", err)
			}
		}
		clearSessionCookie(w)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	}
}

// CurrentUser answers who the session cookie belongs to, or 401.
func CurrentUser(db *sql.DB, sessions *services.SessionStore) http.HandlerFunc {
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
			if err == sql.ErrNoRows {
				http.Error(w, "User not found", http.StatusNotFound)
			} else {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println(err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}

// SessionExpired reports whether the caller's session is gone. A request
// without a cookie counts as expired.
func SessionExpired(sessions *services.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expired := false
		token := sessionToken(r)
		if token == "" {
			expired = true
		} else if _, err := sessions.UserID(r.Context(), token); err != nil {
			if err != services.ErrSessionNotFound {
				http.Error(w, "Session lookup failed", http.StatusInternalServerError)
				log.Println(err)
				return
			}
			expired = true
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expired)
	}
}
