package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/anglerclub/internal/auth"
	"github.com/hitoshi/anglerclub/internal/comment"
	"github.com/hitoshi/anglerclub/internal/config"
	"github.com/hitoshi/anglerclub/internal/contact"
	"github.com/hitoshi/anglerclub/internal/database"
	"github.com/hitoshi/anglerclub/internal/handler"
	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/logger"
	"github.com/hitoshi/anglerclub/internal/memberevent"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/news"
	"github.com/hitoshi/anglerclub/internal/registration"
	"github.com/hitoshi/anglerclub/internal/rental"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
	"github.com/hitoshi/anglerclub/internal/training"
	"github.com/hitoshi/anglerclub/internal/web"
	"github.com/hitoshi/anglerclub/internal/worker/cleanup"
	fetchpkg "github.com/hitoshi/anglerclub/internal/worker/fetch"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// cleanupInterval はクリーンアップジョブの実行間隔。
const cleanupInterval = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, "info")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newMetrics はプロセス単位のレジストリとCollectorを生成する。
func newMetrics() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// newAuthorCache はREDIS_URLが設定されていればRedisの投稿者名キャッシュを返す。
// 未設定または接続できない場合はキャッシュなしで動作する。
func newAuthorCache(ctx context.Context, cfg *config.Config) (comment.AuthorCache, func()) {
	if cfg.RedisURL == "" {
		return nil, func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("invalid REDIS_URL, author cache disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, author cache disabled", slog.String("error", err.Error()))
		client.Close()
		return nil, func() {}
	}

	slog.Info("author cache enabled", slog.Duration("ttl", cfg.AuthorCacheTTL))
	return comment.NewRedisAuthorCache(client, cfg.AuthorCacheTTL), func() { client.Close() }
}

// runServe はWebサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database connection established")

	// 2. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	memberEventRepo := repository.NewPostgresMemberEventRepo(db)
	registrationRepo := repository.NewPostgresRegistrationRepo(db)
	rentalRepo := repository.NewPostgresRentalRepo(db)
	trainingRepo := repository.NewPostgresTrainingRepo(db)
	inboxRepo := repository.NewPostgresInboxRepo(db)
	newsItemRepo := repository.NewPostgresNewsItemRepo(db)

	// 3. 共通コンポーネント
	reg, collector := newMetrics()
	sanitizer := security.NewSanitizer()
	hub := live.NewHub()

	authorCache, closeCache := newAuthorCache(ctx, cfg)
	defer closeCache()

	// 別プロセスからの書き込みもライブ一覧に届くよう、トリガー通知をHubへ流す
	if pgSource, err := live.NewPGSource(cfg.DatabaseURL, database.ChangeChannel, hub, slog.Default()); err != nil {
		slog.Warn("change notifications unavailable, live lists follow this process only",
			slog.String("error", err.Error()),
		)
	} else {
		go pgSource.Run(ctx)
	}

	// 4. ドメインサービス
	authService := auth.NewService(
		auth.NewPasswordProvider(identRepo, 0),
		userRepo, sessionRepo, collector,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	commentService := comment.NewService(commentRepo, comment.NewAuthorResolver(userRepo, authorCache), sanitizer, hub, collector)
	memberEventService := memberevent.NewService(memberEventRepo, sanitizer, hub, collector)
	registrationService := registration.NewService(registrationRepo, hub, collector)
	rentalService := rental.NewService(rentalRepo, sanitizer, hub, collector)
	trainingService := training.NewService(trainingRepo, sanitizer, hub, collector)
	contactService := contact.NewService(inboxRepo, inboxRepo.Consultations(), sanitizer, collector)
	newsService := news.NewService(newsItemRepo)

	pages, err := web.NewHandler(newsService, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}

	// 5. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(
		cfg.RateLimitGeneral, cfg.RateLimitSubmit, cfg.RateLimitAuth,
	))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		IdentityResolver:  authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:    rateLimiter,
		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),
		Subscriber:     hub,
		StreamRecorder: collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		CommentService:      commentService,
		MemberEventService:  memberEventService,
		RegistrationService: registrationService,
		RentalService:       rentalService,
		TrainingService:     trainingService,
		ContactService:      contactService,
		NewsService:         newsService,

		Pages: pages,
	})

	// 6. HTTPサーバー
	return serveHTTP(ctx, ":"+cfg.ServerPort, router)
}

// serveHTTP はctxがキャンセルされるまでHTTPサーバーを動かし、グレースフルシャットダウンする。
// SSEの購読はリクエストのコンテキストで終了するため、シャットダウン開始時にベースコンテキストを
// キャンセルして購読を閉じる。
func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// SSEは長時間の接続になるため書き込みタイムアウトは設けない
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server...")
	cancelBase()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 設定された配信元を登録し、ニュースのフェッチとクリーンアップを定期実行する。
// /health と /metrics を公開する小さなHTTPサーバーも同時に動かす。
func runWorker(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database connection established (worker)")

	sourceRepo := repository.NewPostgresNewsSourceRepo(db)
	itemRepo := repository.NewPostgresNewsItemRepo(db)

	reg, collector := newMetrics()
	guard := security.NewURLGuard()

	discoverer := fetchpkg.NewDiscoverer(guard, cfg.FetchTimeout)
	registered := fetchpkg.RegisterSources(ctx, sourceRepo, guard, discoverer, cfg.NewsFeedURLs, slog.Default())
	slog.Info("news sources registered",
		slog.Int("configured", len(cfg.NewsFeedURLs)),
		slog.Int("registered", registered),
	)

	fetcher := fetchpkg.NewFetcher(
		sourceRepo, itemRepo, security.NewSanitizer(), guard, collector, slog.Default(),
		fetchpkg.Config{
			Timeout:     cfg.FetchTimeout,
			MaxBodySize: cfg.FetchMaxSize,
			Interval:    cfg.FetchInterval,
		},
	)
	scheduler := fetchpkg.NewScheduler(sourceRepo, fetcher, slog.Default(), cfg.FetchMaxConcurrent)

	cleanupJob := cleanup.NewCleanupJob(repository.NewPostgresSessionRepo(db), itemRepo, slog.Default())
	cleanupJob.NewsRetentionDays = cfg.NewsRetentionDays

	ops := chi.NewRouter()
	ops.Get("/health", handler.NewHealthHandler(db))
	ops.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- serveHTTP(ctx, ":"+cfg.ServerPort, ops)
	}()

	go cleanupJob.Start(ctx, cleanupInterval)

	slog.Info("worker starting",
		slog.Duration("fetch_interval", cfg.FetchInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// フェッチスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.FetchInterval)

	if err := <-serverErr; err != nil {
		return err
	}
	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
