package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/stylist/internal/adapters/http/api"
	"github.com/okian/stylist/internal/adapters/http/swagger"
	"github.com/okian/stylist/internal/adapters/wardrobe"
	service "github.com/okian/stylist/internal/app"
	"github.com/okian/stylist/internal/config"
	"github.com/okian/stylist/pkg/logger"
	"github.com/okian/stylist/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Loads configuration from defaults, the YAML file named by STYLIST_CONFIG and STYLIST_* variables, then serves the API until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides STYLIST_ADDR")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	registerRuntimeCollectors()

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithSource(src),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithMatchSeed(cfg.MatchSeed),
		service.WithMatchLimit(cfg.DefaultMatchLimit),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	apiOpts := []api.Option{
		api.WithMaxLimit(cfg.MaxRankLimit),
		api.WithRecommendLimit(cfg.DefaultRecommendLimit),
		api.WithRateLimiter(api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
	}
	if cfg.AuthSecret != "" {
		auth, err := api.NewAuthenticator(cfg.AuthSecret)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithAuthenticator(auth))
	} else {
		log.Warn(ctx, "auth_secret not set; trusting the X-User-ID header")
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, apiOpts...).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openSource picks the wardrobe backend. With a database URL the Postgres
// source runs behind a circuit breaker; otherwise wardrobes live in memory,
// optionally seeded from a fixture file.
func openSource(ctx context.Context, cfg *config.Config) (wardrobe.Source, func(), error) {
	if cfg.DatabaseURL == "" {
		if cfg.FixturePath == "" {
			return wardrobe.NewMemorySource(), func() {}, nil
		}
		src, err := wardrobe.LoadFile(cfg.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Get().Info(ctx, "loaded wardrobe fixture",
			logger.String("path", cfg.FixturePath), logger.Int("users", len(src.Users())))
		return src, func() {}, nil
	}

	pg, err := wardrobe.NewPostgresSource(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	bcfg := wardrobe.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		bcfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerTimeoutMS > 0 {
		bcfg.Timeout = time.Duration(cfg.BreakerTimeoutMS) * time.Millisecond
	}
	return wardrobe.NewBreakerSource(pg, bcfg), pg.Close, nil
}

// registerRuntimeCollectors adds Go runtime and process metrics to the
// service registry. Repeat registration is ignored.
func registerRuntimeCollectors() {
	reg := metrics.GetRegistry()
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logger.Get().Warn(context.Background(), "register collector failed", logger.Error(err))
			}
		}
	}
}

// startServiceMetricsUpdater refreshes pipeline gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the queue, ranking and worker gauges.
			_ = svc.GetStats()
		}
	}
}
