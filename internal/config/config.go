package config

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PublicAddr  string
	SiteBaseURL string
	DataDir     string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	StoreTimeout  time.Duration
	DefaultAuthor string

	AdminEmail string
	AdminPass  string
	JWTSecret  string
	SessionTTL time.Duration

	CorsAllowedOrigins []string

	SeedSamplePosts bool
	MigrateFromFile bool

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	publicAddr := getEnv("PUBLIC_ADDR", ":8084")
	siteBaseURL := strings.TrimRight(getEnv("SITE_BASE_URL", ""), "/")
	if siteBaseURL == "" {
		siteBaseURL = baseURLFromAddr(publicAddr)
	}

	return &Config{
		PublicAddr:  publicAddr,
		SiteBaseURL: siteBaseURL,
		DataDir:     getEnv("DATA_DIR", "data"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "file")),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "blog"),
		StoreTimeout:  getDuration("STORE_TIMEOUT", 5*time.Second),
		DefaultAuthor: getEnv("DEFAULT_AUTHOR", "Pranav Nag B"),

		AdminEmail: getEnv("ADMIN_EMAIL", "admin@pranav.blog"),
		AdminPass:  getEnv("ADMIN_PASS", "admin123"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),

		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		SeedSamplePosts: getBool("SEED_SAMPLE_POSTS", true),
		MigrateFromFile: getBool("MIGRATE_FROM_FILE", false),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "blog/posts"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", ""),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
	}
}

func baseURLFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}

	host := ""
	port := ""
	if strings.HasPrefix(addr, ":") {
		host = "localhost"
		port = strings.TrimPrefix(addr, ":")
	} else {
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			port = p
		} else {
			host = addr
		}
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if port != "" {
		return "http://" + host + ":" + port
	}
	return "http://" + host
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("config: ignoring invalid bool", "key", key, "value", raw, "err", err)
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		slog.Warn("config: ignoring invalid duration", "key", key, "value", raw)
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
