package handlers

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"tagblog/services"
)

// ServeImage streams a stored post image by its generated name.
func ServeImage(store *services.ImageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := store.Path(mux.Vars(r)["name"])
		if _, err := os.Stat(path); err != nil {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, path)
	}
}
