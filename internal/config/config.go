package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	JWT_SECRET   string
	JWT_ISSUER   string
	JWT_AUDIENCE string
	TokenTTL     time.Duration

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	KAFKA_ADDRESS string

	IMPORT_CSV_URL  string
	IMPORT_SCHEDULE string

	SERVER_PORT string
	LOG_LEVEL   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		JWT_SECRET:   os.Getenv("JWT_SECRET"),
		JWT_ISSUER:   envDefault("JWT_ISSUER", "blog_api"),
		JWT_AUDIENCE: envDefault("JWT_AUDIENCE", "blog_api"),
		TokenTTL:     envDurationDefault("TOKEN_TTL", time.Hour),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),
		ES_INDEX:    envDefault("ES_INDEX", "posts"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		IMPORT_CSV_URL:  os.Getenv("IMPORT_CSV_URL"),
		IMPORT_SCHEDULE: os.Getenv("IMPORT_SCHEDULE"),

		SERVER_PORT: envDefault("SERVER_PORT", "8080"),
		LOG_LEVEL:   envDefault("LOG_LEVEL", "info"),
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.RevokedToken{}); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return db, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}
