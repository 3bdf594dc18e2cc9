package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/access"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Gatherer          prometheus.Gatherer // nilの場合は /metrics を公開しない

	Session  SessionServiceInterface
	Cart     CartServiceInterface
	Wishlist WishlistServiceInterface
	Catalog  CatalogServiceInterface
	Checkout CheckoutServiceInterface
	Admin    AdminServiceInterface
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

// NewRouter はブリッジの全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Session → Logging → Recovery → SecurityHeaders → CORS → OriginGuard → RateLimit(General)
//
// ヘルスチェックとメトリクスはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.Session))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewOriginGuardMiddleware(deps.CORSAllowedOrigin))

	sessionHandler := NewSessionHandler(deps.Session)
	cartHandler := NewCartHandler(deps.Cart)
	wishlistHandler := NewWishlistHandler(deps.Wishlist)
	catalogHandler := NewCatalogHandler(deps.Catalog)
	checkoutHandler := NewCheckoutHandler(deps.Checkout)
	adminHandler := NewAdminHandler(deps.Admin)

	guard := func(rule access.Rule) func(http.Handler) http.Handler {
		return middleware.NewAccessMiddleware(deps.Session, rule)
	}

	// --- レート制限の外 ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			Authenticated: deps.Session.Snapshot().IsAuthenticated,
		})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- ブリッジAPI ---
	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/logout", sessionHandler.Logout)

			r.With(guard(access.Guest)).Post("/login", sessionHandler.Login)
			r.With(guard(access.Guest)).Post("/register", sessionHandler.Register)

			r.With(guard(access.Protected)).Put("/profile", sessionHandler.UpdateProfile)
			r.With(guard(access.Protected)).Put("/password", sessionHandler.ChangePassword)
		})

		// カートとウィッシュリストはログイン要否をバックエンドに委ねる
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Post("/", cartHandler.Add)
			r.Delete("/", cartHandler.Clear)
			r.Get("/summary", cartHandler.Summary)
			r.Put("/{productId}", cartHandler.UpdateQuantity)
			r.Delete("/{productId}", cartHandler.Remove)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.Get)
			r.Post("/", wishlistHandler.Add)
			r.Delete("/", wishlistHandler.Clear)
			r.Get("/{productId}", wishlistHandler.Contains)
			r.Delete("/{productId}", wishlistHandler.Remove)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Get("/featured", catalogHandler.Featured)
			r.Get("/new-arrivals", catalogHandler.NewArrivals)
			r.Get("/best-sellers", catalogHandler.BestSellers)
			r.Get("/search", catalogHandler.Search)
			r.Get("/{id}", catalogHandler.Get)
			r.Get("/{id}/reviews", catalogHandler.Reviews)
		})
		r.Get("/categories", catalogHandler.Categories)

		r.Group(func(r chi.Router) {
			r.Use(guard(access.Protected))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", checkoutHandler.Preview)
				if deps.RateLimiter != nil {
					r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/", checkoutHandler.PlaceOrder)
				} else {
					r.Post("/", checkoutHandler.PlaceOrder)
				}
				r.Post("/addresses", checkoutHandler.AddAddress)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", checkoutHandler.Orders)
				r.Get("/{id}", checkoutHandler.Order)
				r.Post("/{id}/cancel", checkoutHandler.Cancel)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard(access.AdminOnly))

			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/users", adminHandler.Users)
			r.Get("/users/{id}", adminHandler.User)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Get("/orders", adminHandler.Orders)
			r.Put("/orders/{id}/status", adminHandler.UpdateOrderStatus)
			r.Delete("/products/{id}", adminHandler.DeleteProduct)
		})
	})

	return r
}
