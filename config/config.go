package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yeremiapane/restaurant-floor/utils"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration
	SyncInterval   time.Duration
	ServiceDate    string

	JWTSecret      []byte
	AllowedOrigins []string
	ActionRate     float64
	ActionBurst    int

	DBDriver          string
	DBDSN             string
	PreferenceBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL   string
	RabbitMQQueue string
}

// Load reads .env (if present) and the environment. Missing values fall
// back to defaults suitable for a local floor terminal.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api"), "/"),
		BackendToken:   os.Getenv("BACKEND_TOKEN"),
		BackendTimeout: getDuration("BACKEND_TIMEOUT", 10*time.Second),
		SyncInterval:   getDuration("SYNC_INTERVAL", 20*time.Second),
		ServiceDate:    os.Getenv("SERVICE_DATE"),

		JWTSecret:      []byte(getEnv("JWT_SECRET", "change-me")),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		ActionRate:     getFloat("ACTION_RATE", 5),
		ActionBurst:    getInt("ACTION_BURST", 10),

		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "floor.db"),
		PreferenceBackend: getEnv("PREFERENCE_BACKEND", "db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue: getEnv("RABBITMQ_QUEUE", "floor.status_changed"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		utils.ErrorLogger.Warnf("invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Warnf("invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		utils.ErrorLogger.Warnf("invalid number for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
