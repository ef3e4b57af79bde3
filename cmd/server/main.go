package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"tagblog/config"
	"tagblog/database"
	"tagblog/handlers"
	"tagblog/routes"
	"tagblog/services"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	defer redisClient.Close()

	sessions := services.NewSessionStore(redisClient, cfg.SessionTTL)
	tagCache := services.NewTagCache(redisClient, cfg.TagCacheTTL)
	csrf := services.NewCSRF(cfg.CSRFSecret)

	store, err := services.NewImageStore(cfg.UploadDir)
	if err != nil {
		log.Fatal("Image store init failed:", err)
	}

	var idx *services.SearchIndex
	if cfg.ESAddr != "" {
		idx, err = services.NewSearchIndex(cfg.ESAddr, cfg.ESIndex)
		if err != nil {
			log.Printf("Search index unavailable, falling back to SQL search: %v", err)
		} else if err := idx.EnsureIndex(context.Background()); err != nil {
			log.Printf("Search index setup failed, falling back to SQL search: %v", err)
			idx = nil
		}
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.Use(handlers.CSRFProtect(csrf))
	routes.CreateUserRoutes(db, sessions, api)
	routes.CreatePostRoutes(db, sessions, store, idx, tagCache, api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Println("Server listening on port", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}
