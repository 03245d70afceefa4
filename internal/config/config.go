package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the slip exchange.
type Config struct {
	Port     int
	LogLevel string

	ExpirationInterval      time.Duration
	SessionTick             time.Duration
	CollectionDuration      time.Duration
	MaxSuspension           time.Duration
	SuspensionSweepInterval time.Duration

	FeeRateBP          int64
	TradeRetryAttempts int
	TradeRetryBackoff  time.Duration

	RiskURL           string
	RiskTimeout       time.Duration
	RiskRetryAttempts int
	RiskRetryBackoff  time.Duration

	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DepthCacheTTL time.Duration
	KafkaBrokers  []string
	KafkaTopic    string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
//
// POSTGRES_DSN, REDIS_ADDR, KAFKA_BROKERS, and RISK_URL are optional:
// an empty value disables that integration and the server runs with
// in-memory state only.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	expirationInterval, err := getDuration("EXPIRATION_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRATION_INTERVAL: %w", err)
	}

	sessionTick, err := getDuration("SESSION_TICK", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TICK: %w", err)
	}

	collectionDuration, err := getDuration("COLLECTION_DURATION", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTION_DURATION: %w", err)
	}

	maxSuspension, err := getDuration("MAX_SUSPENSION", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SUSPENSION: %w", err)
	}

	suspensionSweepInterval, err := getDuration("SUSPENSION_SWEEP_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SUSPENSION_SWEEP_INTERVAL: %w", err)
	}

	feeRateBP, err := getInt("FEE_BPS", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_BPS: %w", err)
	}
	if feeRateBP < 0 || feeRateBP > 10000 {
		return nil, fmt.Errorf("invalid FEE_BPS: %d, must be between 0 and 10000", feeRateBP)
	}

	tradeRetryAttempts, err := getInt("TRADE_RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid TRADE_RETRY_ATTEMPTS: %w", err)
	}
	if tradeRetryAttempts < 1 {
		return nil, fmt.Errorf("invalid TRADE_RETRY_ATTEMPTS: %d, must be at least 1", tradeRetryAttempts)
	}

	tradeRetryBackoff, err := getDuration("TRADE_RETRY_BACKOFF", 10*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TRADE_RETRY_BACKOFF: %w", err)
	}

	riskTimeout, err := getDuration("RISK_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_TIMEOUT: %w", err)
	}

	riskRetryAttempts, err := getInt("RISK_RETRY_ATTEMPTS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_RETRY_ATTEMPTS: %w", err)
	}

	riskRetryBackoff, err := getDuration("RISK_RETRY_BACKOFF", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_RETRY_BACKOFF: %w", err)
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	depthCacheTTL, err := getDuration("DEPTH_CACHE_TTL", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid DEPTH_CACHE_TTL: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                    port,
		LogLevel:                logLevel,
		ExpirationInterval:      expirationInterval,
		SessionTick:             sessionTick,
		CollectionDuration:      collectionDuration,
		MaxSuspension:           maxSuspension,
		SuspensionSweepInterval: suspensionSweepInterval,
		FeeRateBP:               int64(feeRateBP),
		TradeRetryAttempts:      tradeRetryAttempts,
		TradeRetryBackoff:       tradeRetryBackoff,
		RiskURL:                 getStr("RISK_URL", ""),
		RiskTimeout:             riskTimeout,
		RiskRetryAttempts:       riskRetryAttempts,
		RiskRetryBackoff:        riskRetryBackoff,
		PostgresDSN:             getStr("POSTGRES_DSN", ""),
		RedisAddr:               getStr("REDIS_ADDR", ""),
		RedisPassword:           getStr("REDIS_PASSWORD", ""),
		RedisDB:                 redisDB,
		DepthCacheTTL:           depthCacheTTL,
		KafkaBrokers:            getList("KAFKA_BROKERS"),
		KafkaTopic:              getStr("KAFKA_TOPIC", "slipexchange.trades"),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		IdleTimeout:             idleTimeout,
		ShutdownTimeout:         shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
