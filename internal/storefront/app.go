// Package storefront はストアフロントクライアントのアプリケーションルートを提供する。
// 各ストアはAppごとに生成され、パッケージレベルの状態は持たない。
package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/session"
	"github.com/hitoshi/storefront/internal/storage"
	"github.com/hitoshi/storefront/internal/wishlist"
)

// AdminBackend は管理画面が使用するバックエンドAPI。*api.AdminAPI がこれを満たす。
type AdminBackend interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	Users(ctx context.Context, role model.Role) (*api.Page[model.User], error)
	User(ctx context.Context, id string) (*model.AdminUserDetail, error)
	UpdateUser(ctx context.Context, id string, in model.AdminUserUpdate) (*model.User, error)
	Orders(ctx context.Context, status model.OrderStatus) (*api.Page[model.Order], error)
	UpdateOrderStatus(ctx context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Deps はAppの依存関係。
type Deps struct {
	Auth      session.Backend
	Cart      cart.Backend
	Wishlist  wishlist.Backend
	Products  catalog.Backend
	Orders    checkout.OrdersBackend
	Admin     AdminBackend
	Tokens    session.TokenStore
	Persist   storage.Storage // nilの場合はセッションを永続化しない
	Sanitizer security.ContentSanitizer
	Logger    *slog.Logger
	Metrics   metrics.MetricsCollector
}

// App はストアとサービスをまとめたアプリケーションルート。
type App struct {
	Session  *session.Store
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Admin    AdminBackend

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New はAppを生成する。
// ログイン・会員登録で認証済みになるとカートとウィッシュリストを取得し、
// 匿名状態に戻るとそれらのローカル状態を破棄する。
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = security.NewContentSanitizer()
	}

	sess := session.NewStore(deps.Auth, deps.Tokens, deps.Persist, logger, deps.Metrics)
	c := cart.NewStore(deps.Cart, logger, deps.Metrics)
	w := wishlist.NewStore(deps.Wishlist, logger, deps.Metrics)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Session:  sess,
		Cart:     c,
		Wishlist: w,
		Catalog:  catalog.NewService(deps.Products, sanitizer, logger),
		Checkout: checkout.NewService(deps.Orders, c, sess, logger),
		Admin:    deps.Admin,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	sess.Subscribe(a.onSessionChange)
	return a
}

// NewFromClient はAPIクライアントと永続ストレージからAppを生成する。
func NewFromClient(client *api.Client, store storage.Storage, logger *slog.Logger, m metrics.MetricsCollector) *App {
	return New(Deps{
		Auth:     api.NewAuthAPI(client),
		Cart:     api.NewCartAPI(client),
		Wishlist: api.NewWishlistAPI(client),
		Products: api.NewProductsAPI(client),
		Orders:   api.NewOrdersAPI(client),
		Admin:    api.NewAdminAPI(client),
		Tokens:   storage.NewTokens(store),
		Persist:  store,
		Logger:   logger,
		Metrics:  m,
	})
}

func (a *App) onSessionChange(c session.Change) {
	switch {
	case !c.Prev.IsAuthenticated && c.Next.IsAuthenticated:
		if c.Op != session.OpLogin && c.Op != session.OpRegister {
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Sync(a.ctx)
		}()
	case c.Prev.IsAuthenticated && !c.Next.IsAuthenticated:
		a.Cart.Reset()
		a.Wishlist.Reset()
		a.logger.Debug("匿名状態に戻ったためカートとウィッシュリストを破棄しました",
			slog.String("op", c.Op),
		)
	}
}

// Bootstrap は起動時の初期化を行う。
// 永続化されたセッションを復元し、トークンがあればプロフィールで検証する。
// 認証済みであればカートとウィッシュリストを取得する。
func (a *App) Bootstrap(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	a.Session.FetchProfile(ctx)

	if !a.Session.IsAuthenticated() {
		a.logger.Info("匿名状態で起動しました")
		return nil
	}
	a.Sync(ctx)
	a.logger.Info("セッションを復元しました",
		slog.Int("cart_items", a.Cart.ItemCount()),
		slog.Int("wishlist_items", len(a.Wishlist.Items())),
	)
	return nil
}

// Sync はカートとウィッシュリストを並行して取得する。
// 両者は独立しており、一方の失敗は他方に影響しない。
func (a *App) Sync(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		a.Cart.FetchCart(ctx)
		return nil
	})
	g.Go(func() error {
		a.Wishlist.FetchWishlist(ctx)
		return nil
	})
	_ = g.Wait()
}

// Close は実行中のバックグラウンド取得をキャンセルし、終了を待つ。
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()
}
