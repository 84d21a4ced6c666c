package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	API         APIConfig
	View        ViewConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Diagnostics DiagnosticsConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port         string
	PublicURL    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig points at the REST backend that owns events, categories and users.
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	CategoryFanout int
}

type ViewConfig struct {
	CategoryMatch string
	SuspenseWait  time.Duration
	SessionTTL    time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	ToastTTL time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
	Enabled     bool
}

type DiagnosticsConfig struct {
	DSN string
}

type LogConfig struct {
	Level string
	Dir   string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			PublicURL:    strings.TrimSuffix(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		API: APIConfig{
			BaseURL:        strings.TrimSuffix(getEnv("API_BASE_URL", "http://localhost:3000"), "/"),
			Timeout:        getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
			CategoryFanout: getEnvInt("CATEGORY_FANOUT", 4),
		},
		View: ViewConfig{
			CategoryMatch: getEnv("CATEGORY_MATCH", "exact"),
			SuspenseWait:  getEnvDuration("SUSPENSE_WAIT", 1500*time.Millisecond),
			SessionTTL:    getEnvDuration("SESSION_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			ToastTTL: getEnvDuration("TOAST_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			EventsTopic: getEnv("KAFKA_TOPIC_EVENTS", "events.changes"),
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
		},
		Diagnostics: DiagnosticsConfig{
			DSN: getEnv("DIAGNOSTICS_DSN", "file:diagnostics.db?cache=shared"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dir:   getEnv("LOG_DIR", "logs"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
