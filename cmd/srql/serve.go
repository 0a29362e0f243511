package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/apikey"
	"github.com/carverauto/srql/internal/config"
	"github.com/carverauto/srql/internal/dualrun"
	"github.com/carverauto/srql/internal/query"
	"github.com/carverauto/srql/internal/ratelimit"
	"github.com/carverauto/srql/internal/server"
	"github.com/carverauto/srql/internal/storage"
)

// SRQLServerOptions holds the resolved configuration for the serve
// command. Everything comes from SRQL_* environment keys; Complete
// resolves them and Validate checks the result before Run.
type SRQLServerOptions struct {
	Config *config.AppConfig
}

// NewSRQLServerOptions creates empty options for the serve command.
func NewSRQLServerOptions() *SRQLServerOptions {
	return &SRQLServerOptions{}
}

// Complete resolves the SRQL_* environment into the config.
func (o *SRQLServerOptions) Complete() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	o.Config = cfg
	return nil
}

// Validate checks the completed configuration for consistency.
func (o *SRQLServerOptions) Validate() error {
	if o.Config == nil {
		return fmt.Errorf("options not completed")
	}
	if o.Config.DatabaseURL == "" {
		return fmt.Errorf("database URL must be set")
	}
	if o.Config.MaxLimit < o.Config.DefaultLimit {
		return fmt.Errorf("max limit %d below default limit %d", o.Config.MaxLimit, o.Config.DefaultLimit)
	}
	if o.Config.APIKeyKVKey != "" && o.Config.NATSURL == "" {
		return fmt.Errorf("SRQL_NATS_URL must be set when SRQL_API_KEY_KV_KEY is configured")
	}
	return nil
}

// NewServeCommand starts the query service.
func NewServeCommand() *cobra.Command {
	options := NewSRQLServerOptions()

	return &cobra.Command{
		Use:   "serve",
		Short: "Start the SRQL HTTP service",
		Long: `Start the SRQL HTTP service.

Connects to PostgreSQL and serves /api/query, /translate, /healthz, and
/metrics. Recognized environment keys include SRQL_LISTEN_ADDR,
SRQL_DATABASE_URL, SRQL_MAX_POOL_SIZE, SRQL_API_KEY,
SRQL_API_KEY_KV_KEY, SRQL_NATS_URL, SRQL_ALLOWED_ORIGINS,
SRQL_DEFAULT_LIMIT, SRQL_MAX_LIMIT, SRQL_REQUEST_TIMEOUT_SECS,
SRQL_DUAL_RUN_URL, SRQL_DUAL_RUN_TIMEOUT_MS,
SRQL_RATE_LIMIT_MAX_REQUESTS, and SRQL_RATE_LIMIT_WINDOW.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := options.Complete(); err != nil {
				return err
			}
			if err := options.Validate(); err != nil {
				return err
			}
			return Run(options, cmd.Context())
		},
	}
}

// Run starts the service and blocks until shutdown.
func Run(options *SRQLServerOptions, ctx context.Context) error {
	cfg := options.Config
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.MaxPoolSize)
	if err != nil {
		return err
	}
	defer db.Close()

	keys := apikey.NewStore(cfg.APIKey)
	if cfg.APIKeyKVKey != "" {
		watcher, err := apikey.NewWatcher(cfg.NATSURL, cfg.APIKeyKVKey, keys)
		if err != nil {
			return err
		}
		defer watcher.Close()
		klog.InfoS("SRQL API key managed via KV", "key", cfg.APIKeyKVKey)
	} else if _, enabled := keys.Current(); enabled {
		klog.InfoS("SRQL API key configured via environment")
	} else {
		klog.InfoS("SRQL_API_KEY not set; API key authentication disabled")
	}

	limiter := ratelimit.NewFixedWindow(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	defer limiter.Close()

	var dual *dualrun.Comparator
	if cfg.DualRun != nil {
		dual = dualrun.New(cfg.DualRun.URL, cfg.DualRun.Timeout)
		klog.InfoS("dual-run comparison enabled", "url", cfg.DualRun.URL, "timeout", cfg.DualRun.Timeout)
	}

	engine := query.NewEngine(db, query.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxLimit})
	srv := server.New(cfg, engine, keys, limiter, dual)
	return srv.Run(ctx)
}
