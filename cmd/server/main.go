package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/origin-guard/internal/config"
	"github.com/benvon/origin-guard/internal/handlers"
	"github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/middleware"
	"github.com/benvon/origin-guard/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "origin-guard"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverFlags struct {
	configPath  string
	mode        string
	allowOrigin []string
	port        string
	debug       bool
	upstream    string
}

func newRootCmd() *cobra.Command {
	var flags serverFlags

	cmd := &cobra.Command{
		Use:          "origin-guard-server",
		Short:        "Origin allowlist gateway for local HTTP engines",
		Long:         "Serves HTTP behind an origin allowlist with CORS headers and a JSON error boundary, optionally proxying to an upstream engine.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath, flags.overrides(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	flags.bind(cmd)

	return cmd
}

func (sf *serverFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.configPath, "config", "", "Path to a YAML config file (default $"+config.ConfigPathEnv+")")
	f.StringVar(&sf.mode, "cors-policy-mode", "", `CORS policy mode: "all" or "localapps"`)
	f.StringArrayVar(&sf.allowOrigin, "allow-origin", nil, "Additional allowed origin (repeatable, localapps mode only)")
	f.StringVar(&sf.port, "port", "", "Port to listen on")
	f.BoolVar(&sf.debug, "debug", false, "Enable debug logging")
	f.StringVar(&sf.upstream, "upstream", "", "Upstream engine URL to proxy unrouted paths to")
}

// overrides applies only the flags set on the command line so they win over
// file and environment values without clobbering them with zero values.
func (sf *serverFlags) overrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		changed := cmd.Flags().Changed
		if changed("cors-policy-mode") {
			cfg.CorsPolicyMode = sf.mode
		}
		if changed("allow-origin") {
			var origins []string
			for _, v := range sf.allowOrigin {
				origins = append(origins, config.SplitOrigins(v)...)
			}
			cfg.AllowOrigin = origins
		}
		if changed("port") {
			cfg.ServerPort = sf.port
		}
		if changed("debug") {
			cfg.ServerDebugMode = sf.debug
		}
		if changed("upstream") {
			cfg.UpstreamURL = sf.upstream
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	zapLogger, err := logger.New(cfg.LogFormat, cfg.ServerDebugMode)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", cfg.ServerDebugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("cors_policy_mode", cfg.CorsPolicyMode),
		zap.Bool("upstream_configured", cfg.UpstreamURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	policy, err := cfg.OriginPolicy(zapLogger)
	if err != nil {
		return fmt.Errorf("resolve origin policy: %w", err)
	}
	zapLogger.Info("origin_policy_resolved",
		zap.String("cors_policy_mode", string(policy.Mode())),
		zap.Strings("allowed_origins", policy.AllowedOrigins()),
	)

	deps := dependencies{
		cfg:    cfg,
		logger: zapLogger,
		policy: policy,
	}

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Options{
				ServiceName:    serviceName,
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
				Insecure:       true,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				deps.tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	if cfg.RedisURL != "" {
		rc, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer func() {
			if err := rc.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		deps.redis = rc
		zapLogger.Info("connected_to_redis")
	}

	if cfg.UpstreamURL != "" {
		proxy, err := handlers.NewUpstreamProxy(cfg.UpstreamURL, zapLogger)
		if err != nil {
			return fmt.Errorf("configure upstream proxy: %w", err)
		}
		deps.upstream = proxy
	}

	handler, err := newHandler(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server_failed_to_start", zap.Error(err))
			return fmt.Errorf("listen on :%s: %w", cfg.ServerPort, err)
		}
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	zapLogger.Info("server_exited")
	return nil
}
