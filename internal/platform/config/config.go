package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean. Everything
// comes from the environment; unset backends (Postgres, Redis, Kafka) fall
// back to in-memory implementations suitable for development and tests.
type Config struct {
	Addr string

	// ChainID identifies this deployment among the chains exchanging
	// governance messages. It is stamped on every outbound envelope.
	ChainID string

	// Admin is the administrator address allowed to change the creation fee
	// and withdraw collected fees.
	Admin string

	// AdminJWTKey signs/verifies tokens for admin-gated HTTP routes.
	AdminJWTKey string

	// CreationFee is the initial fee charged on DAO registration, in token
	// base units. Mutable at runtime by the administrator.
	CreationFee uint64

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig holds connection settings for the inbound-message dedup store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the cross-chain message transport.
type KafkaConfig struct {
	Brokers []string
	// TopicPrefix namespaces per-chain topics: <prefix>.<chain>.messages.
	TopicPrefix string
	// Group is the consumer group for this chain's inbound topic.
	Group string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:        getenv("CROSSGOV_ADDR", ":8080"),
		ChainID:     getenv("CROSSGOV_CHAIN_ID", "local"),
		Admin:       os.Getenv("CROSSGOV_ADMIN_ADDRESS"),
		AdminJWTKey: getenv("CROSSGOV_ADMIN_JWT_KEY", "dev-secret-key-change-in-production"),
		CreationFee: getenvUint("CROSSGOV_CREATION_FEE", 0),
		PostgresURL: os.Getenv("CROSSGOV_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CROSSGOV_REDIS_URL"),
			PoolSize:     int(getenvUint("CROSSGOV_REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(getenvUint("CROSSGOV_REDIS_MIN_IDLE", 2)),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			TopicPrefix: getenv("CROSSGOV_KAFKA_TOPIC_PREFIX", "crossgov"),
			Group:       getenv("CROSSGOV_KAFKA_GROUP", "crossgov-engine"),
		},
	}
	if brokers := os.Getenv("CROSSGOV_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
