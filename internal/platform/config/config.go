package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBDriver   string // "pgx" or "sqlite"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsCacheTTL         time.Duration
	SubmissionEventsQueue string

	PasswordResetTokenExpireSeconds int64
	PasswordResetSender             string // "log" or "smtp"
	PasswordResetBaseURL            string
	PasswordResetFrom               string
	SMTPHost                        string
	SMTPPort                        int

	BcryptCost int

	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	AppConfig = FromEnv()
}

// FromEnv builds a Config from the process environment without touching
// .env files.
func FromEnv() *Config {
	cfg := &Config{
		Env:                   getEnv("ENV", "dev"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		APIPort:               getEnv("API_PORT", "8080"),
		JWTKey:                []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBDriver:              getEnv("DB_DRIVER", "pgx"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "user"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "oj_account"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		SQLitePath:            getEnv("SQLITE_PATH", "data/oj_account.db"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		StatsCacheTTL:         time.Duration(getEnvAsInt("STATS_CACHE_TTL_SECONDS", 600)) * time.Second,
		SubmissionEventsQueue: getEnv("SUBMISSION_EVENTS_QUEUE", "submission_events"),

		PasswordResetTokenExpireSeconds: int64(getEnvAsInt("PASSWORD_RESET_TOKEN_EXPIRE_SECONDS", 3600)),
		PasswordResetSender:             getEnv("PASSWORD_RESET_SENDER", "log"),
		PasswordResetBaseURL:            getEnv("PASSWORD_RESET_BASE_URL", ""),
		PasswordResetFrom:               getEnv("PASSWORD_RESET_FROM", "noreply@localhost"),
		SMTPHost:                        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:                        getEnvAsInt("SMTP_PORT", 25),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 13),

		AuthRateLimitRequests: getEnvAsInt("AUTH_RATE_LIMIT_REQUESTS", 5),
		AuthRateLimitWindow:   time.Duration(getEnvAsInt("AUTH_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
