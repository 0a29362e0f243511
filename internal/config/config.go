// Package config resolves the service configuration from SRQL_*
// environment keys.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/srql/internal/srqlerrors"
)

const (
	defaultListenHost   = "0.0.0.0"
	defaultListenPort   = 8480
	defaultPoolSize     = 10
	defaultLimit        = 100
	defaultMaxLimit     = 500
	defaultTimeoutSecs  = 30
	defaultDualRunMS    = 2000
	defaultRateRequests = 1
	defaultRateWindow   = time.Second
	defaultNATSURL      = "nats://127.0.0.1:4222"
)

// DualRun configures the shadow comparator.
type DualRun struct {
	URL     string
	Timeout time.Duration
}

// AppConfig is the resolved process configuration.
type AppConfig struct {
	ListenAddr     string
	DatabaseURL    string
	MaxPoolSize    int32
	APIKey         string
	APIKeyKVKey    string
	NATSURL        string
	AllowedOrigins []string
	DefaultLimit   int64
	MaxLimit       int64
	RequestTimeout time.Duration
	DualRun        *DualRun

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// FromEnv reads and validates the SRQL_* environment. Startup fails on a
// missing database URL or a malformed listen address.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	addr, err := resolveListenAddr(
		os.Getenv("SRQL_LISTEN_ADDR"),
		os.Getenv("SRQL_LISTEN_HOST"),
		os.Getenv("SRQL_LISTEN_PORT"),
	)
	if err != nil {
		return nil, err
	}
	cfg.ListenAddr = addr

	cfg.DatabaseURL = firstNonEmpty(os.Getenv("SRQL_DATABASE_URL"), os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return nil, srqlerrors.NewConfig("SRQL_DATABASE_URL or DATABASE_URL must be set")
	}

	poolSize, err := envInt("SRQL_MAX_POOL_SIZE", defaultPoolSize)
	if err != nil {
		return nil, err
	}
	cfg.MaxPoolSize = int32(max(poolSize, 1))

	cfg.APIKey = os.Getenv("SRQL_API_KEY")
	cfg.APIKeyKVKey = os.Getenv("SRQL_API_KEY_KV_KEY")
	cfg.NATSURL = firstNonEmpty(os.Getenv("SRQL_NATS_URL"), defaultNATSURL)

	if csv := os.Getenv("SRQL_ALLOWED_ORIGINS"); csv != "" {
		for _, part := range strings.Split(csv, ",") {
			if origin := strings.TrimSpace(part); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	defLimit, err := envInt("SRQL_DEFAULT_LIMIT", defaultLimit)
	if err != nil {
		return nil, err
	}
	maxLimit, err := envInt("SRQL_MAX_LIMIT", defaultMaxLimit)
	if err != nil {
		return nil, err
	}
	cfg.DefaultLimit = max(int64(defLimit), 1)
	cfg.MaxLimit = max(int64(maxLimit), cfg.DefaultLimit)

	timeoutSecs, err := envInt("SRQL_REQUEST_TIMEOUT_SECS", defaultTimeoutSecs)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(max(timeoutSecs, 1)) * time.Second

	if url := os.Getenv("SRQL_DUAL_RUN_URL"); url != "" {
		timeoutMS, err := envInt("SRQL_DUAL_RUN_TIMEOUT_MS", defaultDualRunMS)
		if err != nil {
			return nil, err
		}
		cfg.DualRun = &DualRun{
			URL:     url,
			Timeout: time.Duration(max(timeoutMS, 1)) * time.Millisecond,
		}
	}

	maxRequests, err := envInt("SRQL_RATE_LIMIT_MAX_REQUESTS", defaultRateRequests)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitMaxRequests = max(maxRequests, 1)

	cfg.RateLimitWindow = defaultRateWindow
	if raw := os.Getenv("SRQL_RATE_LIMIT_WINDOW"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil || window <= 0 {
			return nil, srqlerrors.NewConfig("invalid SRQL_RATE_LIMIT_WINDOW '%s'", raw)
		}
		cfg.RateLimitWindow = window
	}

	return cfg, nil
}

func resolveListenAddr(addr, host, port string) (string, error) {
	if addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return "", srqlerrors.NewConfig("invalid SRQL_LISTEN_ADDR '%s': %v", addr, err)
		}
		return addr, nil
	}

	if host == "" {
		host = defaultListenHost
	}
	p := defaultListenPort
	if port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil || parsed < 1 || parsed > 65535 {
			return "", srqlerrors.NewConfig("invalid SRQL_LISTEN_PORT '%s'", port)
		}
		p = parsed
	}
	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, srqlerrors.NewConfig("invalid %s '%s'", key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
