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
	HTTPPort string

	UpstreamBaseURL string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// CartStore selects the durable cart slot: "sqlite" (default) or "mongo".
	CartStore      string
	SQLitePath     string
	MigrationsPath string
	MongoURI       string
	MongoDBName    string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	TokenTTL       time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from the environment, with a .env file honored
// when present. Missing keys fall back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env file: %v", err)
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:3000/api"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		CartStore:      getEnv("CART_STORE", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "storefront.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/cart/repository/migrations"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: getList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "checkout-completed"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "storefront-gateway"),

		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid duration for %s: %v, using default", key, err)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid integer for %s: %v, using default", key, err)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid number for %s: %v, using default", key, err)
		return defaultValue
	}
	return f
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
