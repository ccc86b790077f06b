package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
)

// PageHandler はHTMLページを描画するハンドラー。
type PageHandler interface {
	Home(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)
	Training(w http.ResponseWriter, r *http.Request)
	Equipment(w http.ResponseWriter, r *http.Request)
	// Static は/static/配下の静的ファイルを配信する。
	Static() http.Handler
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nilの場合/metricsは公開しない

	// ライブ一覧
	Subscriber     live.Subscriber
	StreamRecorder metrics.StreamRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	CommentService      CommentServiceInterface
	MemberEventService  MemberEventServiceInterface
	RegistrationService RegistrationServiceInterface
	RentalService       RentalServiceInterface
	TrainingService     TrainingServiceInterface
	ContactService      ContactServiceInterface
	NewsService         NewsServiceInterface

	// HTMLページ（nilの場合はAPIのみ）
	Pages PageHandler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → SecurityHeaders → CORS → Identity → Logging → CSRF → RateLimit(General)
//
// /health と /metrics はRecoveryのみを通す。
// 投稿系エンドポイントには投稿専用のレート制限、/auth/signup と /auth/signin にはIP単位の制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	catalogHandler := NewCatalogHandler()
	commentHandler := NewCommentHandler(deps.CommentService, deps.Subscriber, deps.StreamRecorder)
	eventHandler := NewMemberEventHandler(deps.MemberEventService, deps.Subscriber, deps.StreamRecorder)
	regHandler := NewRegistrationHandler(deps.RegistrationService, deps.Subscriber, deps.StreamRecorder)
	rentalHandler := NewRentalHandler(deps.RentalService, deps.Subscriber, deps.StreamRecorder)
	trainingHandler := NewTrainingHandler(deps.TrainingService, deps.Subscriber, deps.StreamRecorder)
	contactHandler := NewContactHandler(deps.ContactService)
	newsHandler := NewNewsHandler(deps.NewsService)

	submit := deps.RateLimiter.SubmitMiddleware()

	r.Group(func(r chi.Router) {
		r.Use(chimw.RealIP)
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		// Loggingがuser_idを記録できるよう、IdentityをLoggingより外側に置く
		r.Use(middleware.NewIdentityMiddleware(deps.IdentityResolver))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// --- HTMLページ ---
		if deps.Pages != nil {
			r.Get("/", deps.Pages.Home)
			r.Get("/events", deps.Pages.Events)
			r.Get("/training", deps.Pages.Training)
			r.Get("/equipment", deps.Pages.Equipment)
			r.Handle("/static/*", deps.Pages.Static())
		}

		// --- 認証 ---
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.SignUp)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/api", func(r chi.Router) {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

			// カタログ
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/events", catalogHandler.Events)
				r.Get("/courses", catalogHandler.Courses)
				r.Get("/equipment", catalogHandler.Equipment)
				r.Get("/equipment/{id}/quote", catalogHandler.Quote)
				r.Get("/options", catalogHandler.Options)
			})

			r.Get("/news", newsHandler.List)

			// トップページのコメント欄
			r.Route("/comments", func(r chi.Router) {
				r.Get("/", commentHandler.List)
				r.Get("/stream", commentHandler.Stream)
				r.With(submit).Post("/", commentHandler.Create)
				r.Delete("/{id}", commentHandler.Delete)
			})

			// 会員イベント
			r.Route("/member-events", func(r chi.Router) {
				r.Get("/", eventHandler.List)
				r.Get("/stream", eventHandler.Stream)
				r.With(submit).Post("/", eventHandler.Create)
				r.Delete("/{id}", eventHandler.Delete)
			})

			// 公式イベントへの参加登録
			r.Route("/events/{eventID}", func(r chi.Router) {
				r.Get("/registration", regHandler.Status)
				r.With(submit).Post("/registrations", regHandler.Register)
			})

			// 申し込みフォーム（未ログインはサービス層で401）
			r.With(submit).Post("/rentals", rentalHandler.Submit)
			r.With(submit).Post("/applications", trainingHandler.Apply)
			r.With(submit).Post("/contact", contactHandler.SendMessage)
			r.With(submit).Post("/consultations", contactHandler.RequestConsultation)

			// プロフィールのタブ
			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.RequireIdentity)

				r.Route("/registrations", func(r chi.Router) {
					r.Get("/", regHandler.List)
					r.Get("/stream", regHandler.Stream)
					r.Delete("/{id}", regHandler.Delete)
				})
				r.Route("/rentals", func(r chi.Router) {
					r.Get("/", rentalHandler.List)
					r.Get("/stream", rentalHandler.Stream)
					r.Delete("/{id}", rentalHandler.Cancel)
				})
				r.Route("/applications", func(r chi.Router) {
					r.Get("/", trainingHandler.List)
					r.Get("/stream", trainingHandler.Stream)
					r.Delete("/{id}", trainingHandler.Cancel)
				})
			})
		})
	})

	return r
}
