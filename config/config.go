package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr string
	RedisDB   int

	// Elasticsearch is optional; when ESAddr is empty the post search
	// falls back to SQL ILIKE.
	ESAddr  string
	ESIndex string

	UploadDir string

	SessionTTL  time.Duration
	TagCacheTTL time.Duration
	CSRFSecret  string
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnv("APP_PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "blog"),
		DBPassword:  getEnv("DB_PASSWORD", "blogpass"),
		DBName:      getEnv("DB_NAME", "blogdb"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		ESAddr:      getEnv("ES_ADDR", ""),
		ESIndex:     getEnv("ES_INDEX", "posts"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		SessionTTL:  time.Duration(getEnvInt("SESSION_TTL_SECONDS", 24*60*60)) * time.Second,
		TagCacheTTL: time.Duration(getEnvInt("TAG_CACHE_TTL_SECONDS", 300)) * time.Second,
		CSRFSecret:  getEnv("CSRF_SECRET", ""),
	}

	if cfg.CSRFSecret == "" {
		log.Println("Warning: CSRF_SECRET not set, using an insecure default")
		cfg.CSRFSecret = "insecure-dev-secret-change-me"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
