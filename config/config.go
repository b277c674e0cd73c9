package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MaxRequestsPerSecond is the default per-IP request rate.
	MaxRequestsPerSecond = 3
	// FingerprintMaxLengthDiff is the default allowed duration difference in seconds.
	FingerprintMaxLengthDiff = 7
	// FingerprintMaxAllowedLengthDiff caps the maxdurationdiff parameter.
	FingerprintMaxAllowedLengthDiff = 30
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDebug    bool

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Fingerprint index (search engine) endpoint
	IndexURL     string
	IndexTimeout time.Duration

	WebsiteSecret string

	MaxRequestsPerSecond   int
	MaxDurationDiffAllowed int
	LookupConcurrency      int
	RateLimitFile          string
	SubmissionWaitMax      time.Duration
	SubmissionWaitInterval time.Duration

	ClusterRole  string // master or slave
	ShutdownFile string

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "acoustid"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "acoustid"),
		DBDebug:    getEnvBool("DB_DEBUG", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IndexURL:     getEnv("INDEX_URL", "http://127.0.0.1:6080"),
		IndexTimeout: time.Duration(getEnvInt("INDEX_TIMEOUT_MS", 5000)) * time.Millisecond,

		WebsiteSecret: os.Getenv("WEBSITE_SECRET"),

		MaxRequestsPerSecond:   getEnvInt("MAX_REQUESTS_PER_SECOND", MaxRequestsPerSecond),
		MaxDurationDiffAllowed: getEnvInt("MAX_DURATION_DIFF_ALLOWED", FingerprintMaxAllowedLengthDiff),
		LookupConcurrency:      getEnvInt("LOOKUP_CONCURRENCY", 4),
		RateLimitFile:          getEnv("RATELIMIT_FILE", ""),
		SubmissionWaitMax:      10 * time.Second,
		SubmissionWaitInterval: 500 * time.Millisecond,

		ClusterRole:  getEnv("CLUSTER_ROLE", "master"),
		ShutdownFile: getEnv("SHUTDOWN_FILE", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
}
