package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	AdminChatID int64

	DBPath        string
	QuestionsPath string

	ServerAddress   string
	ShutdownTimeout time.Duration

	// WebhookDomain switches update delivery to webhooks when set.
	// Empty means long polling.
	WebhookDomain string

	// ReminderHour is the local hour of the daily study reminder.
	ReminderHour int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		BotToken:        mustGetenv("BOT_TOKEN"),
		AdminChatID:     getenvInt64("ADMIN_CHAT_ID", 0),
		DBPath:          getenvDefault("DB_PATH", "quizbot.db"),
		QuestionsPath:   getenvDefault("QUESTIONS_PATH", "questions.json"),
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WebhookDomain:   os.Getenv("WEBHOOK_DOMAIN"),
		ReminderHour:    getenvInt("REMINDER_HOUR", 18),
	}
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid integer: %v", k, v, err)
	}
	return n
}

func getenvInt64(k string, fallback int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid integer: %v", k, v, err)
	}
	return n
}
