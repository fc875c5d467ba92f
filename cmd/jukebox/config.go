package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL   string
	Addr          string
	AllowedOrigin string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string

	SessionSecret string

	LogLevel  string
	LogFormat string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Addr:                fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigin:       os.Getenv("CORS_ALLOWED_ORIGIN"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURL:  os.Getenv("SPOTIFY_REDIRECT_URL"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("LOG_FORMAT", "json"),
	}

	for name, value := range map[string]string{
		"DATABASE_URL":          cfg.DatabaseURL,
		"SPOTIFY_CLIENT_ID":     cfg.SpotifyClientID,
		"SPOTIFY_CLIENT_SECRET": cfg.SpotifyClientSecret,
		"SPOTIFY_REDIRECT_URL":  cfg.SpotifyRedirectURL,
		"SESSION_SECRET":        cfg.SessionSecret,
	} {
		if value == "" {
			return Config{}, errors.New(name + " env var is required")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
