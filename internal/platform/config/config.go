package config

import (
	"os"
	"strconv"
	"time"

	platformstrings "driverdesk/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	DatabaseURL    string
	LicenseWarning time.Duration
	Redis          RedisConfig
	Drafts         DraftConfig
	Documents      DocumentConfig
	Audit          AuditConfig
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DraftConfig controls server-side persistence of unsaved edits.
type DraftConfig struct {
	TTL time.Duration
}

// DocumentConfig configures object storage. An empty endpoint keeps
// documents in memory.
type DocumentConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	MaxBytes  int64
}

// AuditConfig selects the audit sink. No brokers keeps events in memory.
type AuditConfig struct {
	Brokers []string
	Topic   string
	Buffer  int
}

// Client configures the record API client used by dashboard tooling.
type Client struct {
	BaseURL        string
	Timeout        time.Duration
	MaxElapsedTime time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getenv("DRIVERDESK_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LicenseWarning: time.Duration(getenvInt("LICENSE_WARNING_DAYS", 60)) * 24 * time.Hour,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Drafts: DraftConfig{
			TTL: getenvDuration("DRAFT_TTL", 24*time.Hour),
		},
		Documents: DocumentConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getenv("MINIO_BUCKET", "driver-documents"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			MaxBytes:  int64(getenvInt("DOCUMENT_MAX_BYTES", 10<<20)),
		},
		Audit: AuditConfig{
			Brokers: platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("AUDIT_TOPIC", "driverdesk.audit"),
			Buffer:  getenvInt("AUDIT_BUFFER", 1024),
		},
	}
}

// ClientFromEnv configures the record API client.
func ClientFromEnv() Client {
	return Client{
		BaseURL:        getenv("RECORD_API_URL", "http://localhost:8080"),
		Timeout:        getenvDuration("RECORD_API_TIMEOUT", 10*time.Second),
		MaxElapsedTime: getenvDuration("RECORD_API_RETRY_MAX", 15*time.Second),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

