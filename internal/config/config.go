package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI           string
	DBName             string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	SessionTTL         time.Duration
	ResetTokenTTL      time.Duration
	LockoutMaxAttempts int
	LockoutWindow      time.Duration
	SessionSweep       time.Duration
	Port               string
}

// Load reads .env (if present) and the process environment into a Config.
// Components receive the struct explicitly; nothing reads env vars after this.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "platform"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		SessionTTL:         getDurationEnv("SESSION_TTL", 24, time.Hour),
		ResetTokenTTL:      getDurationEnv("RESET_TOKEN_TTL", 24, time.Hour),
		LockoutMaxAttempts: getIntEnv("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutWindow:      getDurationEnv("LOCKOUT_WINDOW", 60, time.Minute),
		SessionSweep:       getDurationEnv("SESSION_SWEEP_INTERVAL", 10, time.Minute),
		Port:               getEnvOrDefault("PORT", "8080"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
