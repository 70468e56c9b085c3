package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sm "github.com/flopp/go-staticmaps"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jengzang/measurement-map-go/internal/api"
	"github.com/jengzang/measurement-map-go/internal/artifact"
	"github.com/jengzang/measurement-map-go/internal/config"
	"github.com/jengzang/measurement-map-go/internal/database"
	"github.com/jengzang/measurement-map-go/internal/events"
	"github.com/jengzang/measurement-map-go/internal/handler"
	"github.com/jengzang/measurement-map-go/internal/logging"
	"github.com/jengzang/measurement-map-go/internal/middleware"
	"github.com/jengzang/measurement-map-go/internal/observability"
	"github.com/jengzang/measurement-map-go/internal/render"
	"github.com/jengzang/measurement-map-go/internal/repository"
	"github.com/jengzang/measurement-map-go/internal/service"
	"github.com/jengzang/measurement-map-go/internal/tiles"
)

var version = "dev"
var appName = "measurement-map"

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	// 加载配置
	cfg := config.Load()

	if *issueToken != "" {
		token, err := middleware.IssueToken(cfg.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logger := logging.Setup(cfg, version, appName)
	logger.Info("starting",
		"version", version,
		"env", cfg.Env,
		"log_level", cfg.LogLevel,
		"auth", cfg.AuthEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 链路追踪
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg, appName), logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	// Prometheus 指标
	metrics, err := observability.NewRenderCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 初始化数据库
	dbConfig := database.Config{
		Path: cfg.DBPath,
	}
	if err := database.Init(dbConfig); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	// 瓦片底图
	fetcher := newTileFetcher(cfg, metrics)

	// MQTT 事件
	publisher := newPublisher(ctx, cfg, logger)
	defer publisher.Close()

	mapService := service.NewMapService(
		render.NewRenderer(fetcher, render.WithMaxTiles(cfg.MaxTiles)),
		artifact.NewWriter(os.Stdout),
		repository.NewRenderJobRepository(database.GetDB()),
		publisher,
		metrics,
		cfg.OutputDir,
	)

	// 初始化路由
	router := api.SetupRouter(cfg, handler.NewMapHandler(mapService), metrics)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func newTileFetcher(cfg *config.Config, metrics *observability.RenderCollector) *tiles.HTTPFetcher {
	provider := tiles.DefaultProvider()
	if cfg.TileURL != "" {
		provider = tiles.NewProvider("custom", cfg.TileURL, "")
	}

	opts := []tiles.HTTPOption{tiles.WithObserver(metrics)}
	if cfg.TileCacheDir != "" {
		opts = append(opts, tiles.WithCache(sm.NewTileCache(cfg.TileCacheDir, 0o755)))
	}
	if cfg.TileUserAgent != "" {
		opts = append(opts, tiles.WithUserAgent(cfg.TileUserAgent))
	}
	return tiles.NewHTTPFetcher(provider, opts...)
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.MQTTBroker == "" {
		return events.NopPublisher{}
	}

	p := events.NewMQTTPublisher(cfg, logger)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.Connect(connectCtx); err != nil {
		logger.Warn("mqtt unavailable, job events disabled", "broker", cfg.MQTTBroker, "error", err)
		return events.NopPublisher{}
	}
	return p
}
