package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lib/pq"

	"tagblog/models"
	"tagblog/services"
)

const (
	defaultPageSize = 4
	maxPageSize     = 50
	maxImageSize    = 5 * 1024 * 1024
	maxTitleLen     = 255
)

// ListPosts serves the paginated post listing. Free-text search goes to
// elasticsearch when an index is wired, otherwise to ILIKE; either way the
// tag filter and pagination happen in SQL.
func ListPosts(db *sql.DB, idx *services.SearchIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		search := strings.TrimSpace(q.Get("search"))
		tagID, _ := strconv.Atoi(q.Get("tagId"))

		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(q.Get("pageSize"))
		if pageSize < 1 {
			pageSize = defaultPageSize
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		where := []string{}
		args := []interface{}{}
		i := 1

		if search != "" {
			matched := false
			if idx != nil {
				ids, err := idx.MatchingIDs(r.Context(), search)
				if err != nil {
					log.Printf("ListPosts search index error, falling back to SQL: %v", err)
				} else {
					where = append(where, fmt.Sprintf("p.id = ANY($%d)", i))
					args = append(args, pq.Array(ids))
					i++
					matched = true
				}
			}
			if !matched {
				where = append(where, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", i, i))
				args = append(args, "%"+search+"%")
				i++
			}
		}

		if tagID > 0 {
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = $%d)", i))
			args = append(args, tagID)
			i++
		}

		whereSQL := ""
		if len(where) > 0 {
			whereSQL = " WHERE " + strings.Join(where, " AND ")
		}

		var total int
		err := db.QueryRow(`SELECT COUNT(*) FROM posts p`+whereSQL, args...).Scan(&total)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("ListPosts count error:", err)
			return
		}

		listSQL := fmt.Sprintf(`
			SELECT p.id, p.title, p.content, p.image, p.created_at, p.updated_at,
			       p.user_id, u.username
			FROM posts p
			JOIN users u ON p.user_id = u.id
			%s
			ORDER BY p.id DESC
			LIMIT $%d OFFSET $%d`, whereSQL, i, i+1)
		args = append(args, pageSize, (page-1)*pageSize)

		rows, err := db.Query(listSQL, args...)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("ListPosts query error:", err)
			return
		}
		defer rows.Close()

		var posts []models.Post
		for rows.Next() {
			var p models.Post
			if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Image,
				&p.CreatedAt, &p.UpdatedAt, &p.User.ID, &p.User.Username); err != nil {
				http.Error(w, "Error scanning posts", http.StatusInternalServerError)
				log.Println("ListPosts scan error:", err)
				return
			}
			posts = append(posts, p)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating posts", http.StatusInternalServerError)
			log.Println("ListPosts rows error:", err)
			return
		}

		for n := range posts {
			tags, err := loadPostTags(db, posts[n].ID)
			if err != nil {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Println("ListPosts tags error:", err)
				return
			}
			posts[n].Tags = tags
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.NewPage(posts, total, page, pageSize))
	}
}

func GetPost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "Invalid post id", http.StatusBadRequest)
			return
		}

		p, err := getPostByID(db, id)
		if err == sql.ErrNoRows {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("GetPost error:", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

// CreatePost accepts the multipart post form. The image is optional; when
// present its declared type must be JPEG or PNG and its size at most 5MB.
func CreatePost(db *sql.DB, store *services.ImageStore, idx *services.SearchIndex, cache *services.TagCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUser(r)

		if err := r.ParseMultipartForm(maxImageSize + 1<<20); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		title := strings.TrimSpace(r.FormValue("title"))
		content := strings.TrimSpace(r.FormValue("content"))
		if title == "" || content == "" {
			http.Error(w, "Title and content are required", http.StatusBadRequest)
			return
		}
		if len(title) > maxTitleLen {
			http.Error(w, "Title is too long", http.StatusBadRequest)
			return
		}

		imageName := ""
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			if status, msg := validateImage(header.Header.Get("Content-Type"), header.Size); status != 0 {
				http.Error(w, msg, status)
				return
			}
			imageName, err = store.Save(file, header.Filename)
			if err != nil {
				http.Error(w, "Failed to store image", http.StatusInternalServerError)
				log.Println("CreatePost image error:", err)
				return
			}
		} else if err != http.ErrMissingFile {
			http.Error(w, "Invalid image upload", http.StatusBadRequest)
			return
		}

		tx, err := db.Begin()
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		defer tx.Rollback()

		var postID int
		err = tx.QueryRow(`
			INSERT INTO posts (title, content, image, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id`,
			title, content, imageName, user.ID).Scan(&postID)
		if err != nil {
			http.Error(w, "Failed to create post", http.StatusInternalServerError)
			log.Println("CreatePost error:", err)
			return
		}

		if err := syncPostTags(tx, postID, r.FormValue("tags")); err != nil {
			http.Error(w, "Failed to save tags", http.StatusInternalServerError)
			log.Println("CreatePost tags error:", err)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		p, err := getPostByID(db, postID)
		if err != nil {
			http.Error(w, "Failed to fetch created post", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if idx != nil {
			if err := idx.IndexPost(r.Context(), *p); err != nil {
				log.Printf("CreatePost index error: %v", err)
			}
		}
		cache.Invalidate(r.Context())

		log.Printf("user[id=%d, username=%q] created post %d %q", user.ID, user.Username, p.ID, p.Title)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	}
}

// UpdatePost replaces a post's title, content, tags and optionally its
// image. Only the author may update; the check is repeated here no matter
// what the client hid.
func UpdatePost(db *sql.DB, store *services.ImageStore, idx *services.SearchIndex, cache *services.TagCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "Invalid post id", http.StatusBadRequest)
			return
		}

		existing, err := getPostByID(db, id)
		if err == sql.ErrNoRows {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("UpdatePost error:", err)
			return
		}

		user, _ := currentUser(r)
		if existing.User.ID != user.ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if err := r.ParseMultipartForm(maxImageSize + 1<<20); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		title := strings.TrimSpace(r.FormValue("title"))
		content := strings.TrimSpace(r.FormValue("content"))
		if title == "" || content == "" {
			http.Error(w, "Title and content are required", http.StatusBadRequest)
			return
		}
		if len(title) > maxTitleLen {
			http.Error(w, "Title is too long", http.StatusBadRequest)
			return
		}

		imageName := existing.Image
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			if status, msg := validateImage(header.Header.Get("Content-Type"), header.Size); status != 0 {
				http.Error(w, msg, status)
				return
			}
			imageName, err = store.Save(file, header.Filename)
			if err != nil {
				http.Error(w, "Failed to store image", http.StatusInternalServerError)
				log.Println("UpdatePost image error:", err)
				return
			}
		} else if err != http.ErrMissingFile {
			http.Error(w, "Invalid image upload", http.StatusBadRequest)
			return
		}

		tx, err := db.Begin()
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			UPDATE posts SET title = $1, content = $2, image = $3, updated_at = NOW()
			WHERE id = $4`,
			title, content, imageName, id)
		if err != nil {
			http.Error(w, "Failed to update post", http.StatusInternalServerError)
			log.Println("UpdatePost error:", err)
			return
		}

		if err := syncPostTags(tx, id, r.FormValue("tags")); err != nil {
			http.Error(w, "Failed to save tags", http.StatusInternalServerError)
			log.Println("UpdatePost tags error:", err)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if imageName != existing.Image && existing.Image != "" {
			if err := store.Delete(existing.Image); err != nil {
				log.Printf("UpdatePost: failed to delete old image %q: %v", existing.Image, err)
			}
		}

		p, err := getPostByID(db, id)
		if err != nil {
			http.Error(w, "Failed to fetch updated post", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if idx != nil {
			if err := idx.IndexPost(r.Context(), *p); err != nil {
				log.Printf("UpdatePost index error: %v", err)
			}
		}
		cache.Invalidate(r.Context())

		log.Printf("user[id=%d, username=%q] updated post %d", user.ID, user.Username, id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

// DeletePost removes a post, its stored image and any tags the deletion
// leaves without posts.
func DeletePost(db *sql.DB, store *services.ImageStore, idx *services.SearchIndex, cache *services.TagCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "Invalid post id", http.StatusBadRequest)
			return
		}

		existing, err := getPostByID(db, id)
		if err == sql.ErrNoRows {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("DeletePost error:", err)
			return
		}

		user, _ := currentUser(r)
		if existing.User.ID != user.ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		tx, err := db.Begin()
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}
		defer tx.Rollback()

		oldTagIDs, err := postTagIDs(tx, id)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Println("DeletePost tags error:", err)
			return
		}

		if _, err := tx.Exec(`DELETE FROM posts WHERE id = $1`, id); err != nil {
			http.Error(w, "Failed to delete post", http.StatusInternalServerError)
			log.Println("DeletePost error:", err)
			return
		}

		if err := deleteOrphanTags(tx, oldTagIDs); err != nil {
			http.Error(w, "Failed to clean up tags", http.StatusInternalServerError)
			log.Println("DeletePost orphan tags error:", err)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			log.Println(err)
			return
		}

		if err := store.Delete(existing.Image); err != nil {
			log.Printf("DeletePost: failed to delete image %q: %v", existing.Image, err)
		}
		if idx != nil {
			if err := idx.DeletePost(r.Context(), id); err != nil {
				log.Printf("DeletePost index error: %v", err)
			}
		}
		cache.Invalidate(r.Context())

		log.Printf("user[id=%d, username=%q] deleted post %d", user.ID, user.Username, id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Post deleted successfully"})
	}
}

func getPostByID(db *sql.DB, id int) (*models.Post, error) {
	var p models.Post
	err := db.QueryRow(`
		SELECT p.id, p.title, p.content, p.image, p.created_at, p.updated_at,
		       p.user_id, u.username
		FROM posts p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.Image, &p.CreatedAt, &p.UpdatedAt,
			&p.User.ID, &p.User.Username)
	if err != nil {
		return nil, err
	}

	tags, err := loadPostTags(db, p.ID)
	if err != nil {
		return nil, err
	}
	p.Tags = tags
	return &p, nil
}

func loadPostTags(db *sql.DB, postID int) ([]models.Tag, error) {
	rows, err := db.Query(`
		SELECT t.id, t.name
		FROM tags t
		JOIN post_tags pt ON t.id = pt.tag_id
		WHERE pt.post_id = $1
		ORDER BY t.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// validateImage checks the declared content type and size of an upload.
// A zero status means the image is acceptable.
func validateImage(contentType string, size int64) (int, string) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return http.StatusBadRequest, "Image type must be JPEG or PNG"
	}
	if size > maxImageSize {
		return http.StatusRequestEntityTooLarge, "Image size must be at most 5MB"
	}
	return 0, ""
}

// splitTags normalizes the free-text tags field: trimmed, lowercased,
// split on whitespace, duplicates dropped in order.
func splitTags(tags string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(tags)))
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, name := range fields {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// syncPostTags replaces a post's tag links with the given tags string,
// creating tags that don't exist yet and deleting ones that end up with
// no posts at all.
func syncPostTags(tx *sql.Tx, postID int, tags string) error {
	oldTagIDs, err := postTagIDs(tx, postID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return err
	}

	for _, name := range splitTags(tags) {
		var tagID int
		err := tx.QueryRow(`SELECT id FROM tags WHERE name = $1`, name).Scan(&tagID)
		if err == sql.ErrNoRows {
			err = tx.QueryRow(`INSERT INTO tags (name) VALUES ($1) RETURNING id`, name).Scan(&tagID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, postID, tagID); err != nil {
			return err
		}
	}

	return deleteOrphanTags(tx, oldTagIDs)
}

func postTagIDs(tx *sql.Tx, postID int) ([]int, error) {
	rows, err := tx.Query(`SELECT tag_id FROM post_tags WHERE post_id = $1`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deleteOrphanTags(tx *sql.Tx, tagIDs []int) error {
	for _, tagID := range tagIDs {
		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM post_tags WHERE tag_id = $1`, tagID).
			Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			if _, err := tx.Exec(`DELETE FROM tags WHERE id = $1`, tagID); err != nil {
				return err
			}
		}
	}
	return nil
}
