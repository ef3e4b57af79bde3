package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"tagblog/handlers"
	"tagblog/services"
)

func CreatePostRoutes(db *sql.DB, sessions *services.SessionStore, store *services.ImageStore,
	idx *services.SearchIndex, cache *services.TagCache, router *mux.Router) *mux.Router {
	auth := handlers.RequireAuth(db, sessions)

	router.HandleFunc("/post", handlers.ListPosts(db, idx)).Methods("GET")
	router.HandleFunc("/post/{id}", handlers.GetPost(db)).Methods("GET")
	router.HandleFunc("/post", auth(handlers.CreatePost(db, store, idx, cache))).Methods("POST")
	router.HandleFunc("/post/{id}", auth(handlers.UpdatePost(db, store, idx, cache))).Methods("PUT")
	router.HandleFunc("/post/{id}", auth(handlers.DeletePost(db, store, idx, cache))).Methods("DELETE")

	router.HandleFunc("/tag", handlers.ListTags(db, cache)).Methods("GET")
	router.HandleFunc("/files/{name}", handlers.ServeImage(store)).Methods("GET")

	return router
}
