package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"tagblog/models"
	"tagblog/services"
)

// ListTags serves every tag in use, alphabetically, through the cache.
func ListTags(db *sql.DB, cache *services.TagCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tags, ok := cache.Get(r.Context()); ok {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(tags)
			return
		}

		rows, err := db.Query(`SELECT id, name FROM tags ORDER BY name`)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("ListTags error:", err)
			return
		}
		defer rows.Close()

		tags := []models.Tag{}
		for rows.Next() {
			var t models.Tag
			if err := rows.Scan(&t.ID, &t.Name); err != nil {
				http.Error(w, "Error scanning tags", http.StatusInternalServerError)
				log.Println("ListTags scan error:", err)
				return
			}
			tags = append(tags, t)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating tags", http.StatusInternalServerError)
			log.Println("ListTags rows error:", err)
			return
		}

		cache.Set(r.Context(), tags)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tags)
	}
}
