package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"tagblog/handlers"
	"tagblog/services"
)

func CreateUserRoutes(db *sql.DB, sessions *services.SessionStore, router *mux.Router) *mux.Router {
	auth := handlers.RequireAuth(db, sessions)

	router.HandleFunc("/signup", handlers.Signup(db)).Methods("POST")
	router.HandleFunc("/login", handlers.Login(db, sessions)).Methods("POST")
	router.HandleFunc("/logout", handlers.Logout(sessions)).Methods("POST")
	router.HandleFunc("/user", handlers.CurrentUser(db, sessions)).Methods("GET")
	router.HandleFunc("/session-expired", handlers.SessionExpired(sessions)).Methods("GET")

	router.HandleFunc("/user/username", auth(handlers.UpdateUsername(db))).Methods("PUT")
	router.HandleFunc("/user/password", auth(handlers.UpdatePassword(db))).Methods("PUT")

	return router
}
