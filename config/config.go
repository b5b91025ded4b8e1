package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	ServerAddr string // listen address (e.g. :8080)

	// PocketBase External Server
	PocketBaseURL   string // PocketBase server URL (e.g. http://127.0.0.1:8090)
	PocketBaseToken string // Auth token for API access

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Notifications
	NotificationWindow int           // top-N window for the admin attendance feed
	PollInterval       time.Duration // PocketBase subscription poll interval

	// Telegram Bot
	TelegramBotToken string
	AuthorizedChatID string
}

var errMissingSecret = errors.New("JWT_SECRET not set")

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("godotenv.Load() error: %v", err)
	}

	pbURL := os.Getenv("POCKETBASE_URL")
	if pbURL == "" {
		pbURL = "http://127.0.0.1:8090"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errMissingSecret
	}

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		PocketBaseURL:      pbURL,
		PocketBaseToken:    os.Getenv("POCKETBASE_TOKEN"),
		JWTSecret:          secret,
		TokenTTL:           getDuration("TOKEN_TTL", 7*24*time.Hour),
		NotificationWindow: getInt("NOTIFICATION_WINDOW", 50),
		PollInterval:       getDuration("POLL_INTERVAL", 5*time.Second),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		AuthorizedChatID:   os.Getenv("AUTHORIZED_CHAT_ID"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
