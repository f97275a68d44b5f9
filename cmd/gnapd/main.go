// gnapd runs the grant negotiation service as a standalone HTTP daemon.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-gnap/cache"
	"github.com/goliatone/go-gnap/core"
	"github.com/goliatone/go-gnap/httpapi"
	gnaprepo "github.com/goliatone/go-gnap/repository"
	memstore "github.com/goliatone/go-gnap/store/memory"
	sqlstore "github.com/goliatone/go-gnap/store/sql"
)

const shutdownTimeout = 10 * time.Second

type daemonConfig struct {
	Listen        string
	ServiceName   string
	BaseURL       string
	GrantEndpoint string
	StoreBackend  string
	StoreDSN      string
	CacheBackend  string
	RedisAddr     string
	CacheTTL      int
	LogLevel      string
}

func main() {
	os.Exit(submain())
}

func submain() int {
	cmd := newRootCommand()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gnapd",
		Short:         "GNAP grant negotiation server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := resolveConfig()
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":8000", "listen address")
	flags.String("service-name", "gnap", "service name used in logs")
	flags.String("base-url", "http://localhost:8000", "external base URL")
	flags.String("grant-endpoint", "", "grant request endpoint (defaults to <base-url>/gnap/tx)")
	flags.String("store", "memory", "store backend: memory, sqlite, postgres")
	flags.String("dsn", "", "store DSN (sqlite path or postgres connection string)")
	flags.String("cache", "memory", "cache backend: memory, redis")
	flags.String("redis-addr", "localhost:6379", "redis address when cache=redis")
	flags.Int("cache-ttl", 3600, "cache TTL in seconds")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	viper.SetEnvPrefix("GNAPD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	return cmd
}

func resolveConfig() daemonConfig {
	cfg := daemonConfig{
		Listen:        viper.GetString("listen"),
		ServiceName:   viper.GetString("service-name"),
		BaseURL:       strings.TrimRight(viper.GetString("base-url"), "/"),
		GrantEndpoint: viper.GetString("grant-endpoint"),
		StoreBackend:  viper.GetString("store"),
		StoreDSN:      viper.GetString("dsn"),
		CacheBackend:  viper.GetString("cache"),
		RedisAddr:     viper.GetString("redis-addr"),
		CacheTTL:      viper.GetInt("cache-ttl"),
		LogLevel:      viper.GetString("log-level"),
	}
	if strings.TrimSpace(cfg.GrantEndpoint) == "" {
		cfg.GrantEndpoint = cfg.BaseURL + "/gnap/tx"
	}
	return cfg
}

func run(ctx context.Context, cfg daemonConfig) error {
	logger := newLogger(cfg.LogLevel, cfg.ServiceName)

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	entityCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}

	repositories := gnaprepo.NewProvider(gnaprepo.ProviderConfig{
		Store:         store,
		Cache:         entityCache,
		TTL:           time.Duration(cfg.CacheTTL) * time.Second,
		Logger:        logger,
		GrantEndpoint: cfg.GrantEndpoint,
		BaseURL:       cfg.BaseURL,
	})

	sweepQueue := core.NewMemoryJobQueue()

	service, err := core.NewService(core.Config{
		ServiceName:   cfg.ServiceName,
		BaseURL:       cfg.BaseURL,
		GrantEndpoint: cfg.GrantEndpoint,
		Cache:         core.CacheConfig{TTLSeconds: cfg.CacheTTL},
	},
		core.WithLogger(logger),
		core.WithRepositoryProvider(repositories),
		core.WithSweepEnqueuer(sweepQueue),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	sweeper := core.NewTransactionSweeper(store, sweepQueue, logger)
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go func() {
		if err := sweeper.Run(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("transaction sweeper stopped", "error", err)
		}
	}()

	handler := httpapi.New(httpapi.Config{Service: service, Logger: logger})
	mux := http.NewServeMux()
	handler.Register(mux)

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Listen, "store", cfg.StoreBackend, "cache", cfg.CacheBackend)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

func buildStore(ctx context.Context, cfg daemonConfig) (core.EntityStore, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", "memory":
		return memstore.New(), noop, nil
	case "sqlite":
		dsn := cfg.StoreDSN
		if strings.TrimSpace(dsn) == "" {
			dsn = "gnapd.db"
		}
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite store: %w", err)
		}
		return buildSQLStore(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	case "postgres":
		if strings.TrimSpace(cfg.StoreDSN) == "" {
			return nil, noop, fmt.Errorf("postgres store requires --dsn")
		}
		sqldb, err := sql.Open("postgres", cfg.StoreDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres store: %w", err)
		}
		return buildSQLStore(ctx, bun.NewDB(sqldb, pgdialect.New()))
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildSQLStore(ctx context.Context, db *bun.DB) (core.EntityStore, func(), error) {
	cleanup := func() { _ = db.Close() }
	factory, err := sqlstore.NewStoreFactoryFromDB(db)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("build store factory: %w", err)
	}
	store := factory.Store()
	if err := store.EnsureSchema(ctx); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("ensure schema: %w", err)
	}
	return store, cleanup, nil
}

func buildCache(ctx context.Context, cfg daemonConfig) (core.ExpiringCache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CacheBackend)) {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		redisCache := cache.NewRedisFromAddr(cfg.RedisAddr)
		if err := redisCache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
