package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/config"
	"github.com/hitoshi/storefront/internal/database"
	"github.com/hitoshi/storefront/internal/handler"
	"github.com/hitoshi/storefront/internal/logger"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/storage"
	"github.com/hitoshi/storefront/internal/storefront"
	"github.com/hitoshi/storefront/internal/worker/cleanup"
	"github.com/hitoshi/storefront/internal/worker/refresh"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefaultWithLevel(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("BRIDGE_PORT")
		if port == "" {
			port = "3001"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("storage_backend", string(cfg.StorageBackend)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// services は起動モード間で共有する組み立て済みの依存関係。
type services struct {
	app      *storefront.App
	worker   *refresh.Worker
	registry *prometheus.Registry
	db       *sql.DB // postgresバックエンドの場合のみ
	closers  []func() error
}

// Close はAppを停止し、ストレージ接続を閉じる。
func (rt *services) Close() {
	rt.app.Close()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			slog.Warn("failed to close resource", slog.String("error", err.Error()))
		}
	}
}

// newServices は設定から永続ストレージ・APIクライアント・Appを組み立てる。
// 起動時のセッション復元と初回同期（Bootstrap）もここで行う。
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	rt := &services{registry: prometheus.NewRegistry()}
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 1. 永続ストレージ
	store, err := rt.openStorage(ctx, cfg)
	if err != nil {
		rt.closeResources()
		return nil, err
	}

	// 2. メトリクスとAPIクライアント
	collector := metrics.NewCollector(rt.registry)
	log := slog.Default()
	client, err := api.NewClient(api.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
	}, storage.NewTokens(store), log, collector)
	if err != nil {
		rt.closeResources()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	// 3. アプリケーションルートと同期ワーカー
	rt.app = storefront.NewFromClient(client, store, log, collector)
	rt.worker = refresh.NewWorker(rt.app.Session, rt.app.Cart, rt.app.Wishlist, log, collector)

	if err := rt.app.Bootstrap(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	return rt, nil
}

func (rt *services) closeResources() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
}

// openStorage はSTORAGE_BACKENDに応じた永続ストレージを開く。
func (rt *services) openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryStorage(), nil

	case config.StoragePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		rt.db = db
		return storage.NewPostgresStorage(db, cfg.StorageNamespace), nil

	case config.StorageRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis connection established")
		return storage.NewRedisStorage(client, cfg.StorageNamespace), nil

	default:
		slog.Info("using file storage", slog.String("path", cfg.StoragePath))
		return storage.NewFileStorage(cfg.StoragePath), nil
	}
}

// newBridgeRouter はブリッジのルーターを組み立てる。
func newBridgeRouter(cfg *config.Config, rt *services, limiter *middleware.RateLimiter) http.Handler {
	return handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		Gatherer:          rt.registry,

		Session:  rt.app.Session,
		Cart:     rt.app.Cart,
		Wishlist: rt.app.Wishlist,
		Catalog:  rt.app.Catalog,
		Checkout: rt.app.Checkout,
		Admin:    rt.app.Admin,
	})
}

// runServe はブリッジサーバーモードで起動する。
// 依存関係をワイヤリングし、同期ワーカーとHTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	rt, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer limiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.BridgePort,
		Handler:      newBridgeRouter(cfg, rt, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		rt.worker.Start(workerCtx, cfg.SyncInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("bridge server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down bridge server...")

	stopWorker()
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("bridge server stopped gracefully")
	return nil
}

// runWorker はヘッドレスモードで起動する。
// 永続化されたセッションを復元し、同期ワーカーのみを実行する。
// メトリクスはBRIDGE_PORTの/metricsで公開する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	rt, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.BridgePort,
		Handler:           metrics.SetupMetricsRoute(rt.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.Duration("sync_interval", cfg.SyncInterval),
		slog.Bool("authenticated", rt.app.Session.IsAuthenticated()),
	)

	// 共有PostgreSQLの古いnamespaceを日次で削除
	if rt.db != nil {
		job := cleanup.NewCleanupJob(rt.db, cfg.StorageNamespace, slog.Default())
		if cfg.RetentionDays > 0 {
			job.RetentionDays = cfg.RetentionDays
		}
		go job.Start(ctx, 24*time.Hour)
	}

	// 同期ワーカーをメインgoroutineで実行（ブロッキング）
	rt.worker.Start(ctx, cfg.SyncInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate は永続ストレージのマイグレーションを実行する。
// PostgreSQLバックエンドでのみ意味を持つ。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
