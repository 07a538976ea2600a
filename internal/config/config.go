package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	DBPath          string
	FrontendDir     string
	OTPWindow       time.Duration
	OTPLength       int
	ActiveWindow    time.Duration
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./classattend.db"),
		FrontendDir:     getEnv("FRONTEND_DIR", "./web"),
		OTPWindow:       durationEnv("OTP_WINDOW", 20*time.Minute),
		OTPLength:       intEnv("OTP_LENGTH", 6),
		ActiveWindow:    durationEnv("ACTIVE_WINDOW", 24*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 240),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
