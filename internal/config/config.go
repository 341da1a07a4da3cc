// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env when present, then the environment. Missing values fall
// back to development defaults.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[Config] loaded .env")
	}

	cfg := Config{
		Port:          getenv("PORT", "3001"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if raw := os.Getenv("CLIENT_URL"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("[Config] bad REDIS_DB %q, using 0", raw)
		} else {
			cfg.RedisDB = db
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
