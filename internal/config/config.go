package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"timelog/internal/recovery"
	"timelog/internal/validate"
)

type Config struct {
	Port               string
	DBPath             string
	MigrationsDir      string
	CORSOrigins        []string
	JWTSecret          string
	TokenTTL           time.Duration
	AccessPasswordHash string
	LogLevel           string
	LogFormat          string
	Timezone           string
	ReaperInterval     time.Duration
	Recovery           recovery.Thresholds
	ManualMinDuration  time.Duration
	ManualMaxDuration  time.Duration
}

func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8080"),
		DBPath:             getEnv("DB_PATH", "./data/timelog.db"),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "./migrations"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		JWTSecret:          getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		AccessPasswordHash: getEnv("ACCESS_PASSWORD_HASH", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		Timezone:           getEnv("TIMEZONE", "Local"),
		ReaperInterval:     getEnvDuration("REAPER_INTERVAL", 0),
		Recovery: recovery.Thresholds{
			ConfirmAfter: getEnvDuration("HEARTBEAT_CONFIRM_AFTER", recovery.DefaultConfirmAfter),
			AbandonAfter: getEnvDuration("HEARTBEAT_ABANDON_AFTER", recovery.DefaultAbandonAfter),
			MinDuration:  getEnvDuration("MANUAL_MIN_DURATION", validate.DefaultMinDuration),
		},
		ManualMinDuration: getEnvDuration("MANUAL_MIN_DURATION", validate.DefaultMinDuration),
		ManualMaxDuration: getEnvDuration("MANUAL_MAX_DURATION", validate.DefaultMaxDuration),
	}
}

func (c Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) ManualBounds() validate.Bounds {
	return validate.Bounds{
		MinDuration: c.ManualMinDuration,
		MaxDuration: c.ManualMaxDuration,
		Location:    c.Location(),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
