package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tagblog/models"
)

// UpdateUsername renames the logged-in account. A rename to a taken name
// answers 409 so the header modal can flag the field inline.
func UpdateUsername(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.User
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, _ := currentUser(r)
		if req.ID != user.ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			http.Error(w, "Username is required", http.StatusBadRequest)
			return
		}

		var exists bool
		err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, req.Username).
			Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		if exists {
			// Covers the no-op rename too: the current name is taken by us.
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}

		if _, err := db.Exec(`UPDATE users SET username = $1 WHERE id = $2`, req.Username, user.ID); err != nil {
			http.Error(w, "Database update failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		log.Printf("user[id=%d] renamed %q to %q", user.ID, user.Username, req.Username)
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdatePassword changes the logged-in account's password. A wrong
// current password answers 404 and a no-change password 409; the account
// modal maps both to inline field errors.
func UpdatePassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.User
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, _ := currentUser(r)
		if req.ID != user.ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		req.Password = strings.TrimSpace(req.Password)
		req.CurrentPassword = strings.TrimSpace(req.CurrentPassword)
		if req.Password == "" || req.CurrentPassword == "" {
			http.Error(w, "Password is required", http.StatusBadRequest)
			return
		}

		var hashed string
		err := db.QueryRow(`SELECT password FROM users WHERE id = $1`, user.ID).Scan(&hashed)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(req.CurrentPassword)) != nil {
			http.Error(w, "Current password is incorrect", http.StatusNotFound)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(req.Password)) == nil {
			http.Error(w, "New password matches the current password", http.StatusConflict)
			return
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		if _, err := db.Exec(`UPDATE users SET password = $1 WHERE id = $2`, string(newHash), user.ID); err != nil {
			http.Error(w, "Database update failed", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		log.Printf("user[id=%d, username=%q] changed password", user.ID, user.Username)
		w.WriteHeader(http.StatusNoContent)
	}
}
