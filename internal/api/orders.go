package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// OrdersAPI は /orders 配下のエンドポイントのラッパー。
type OrdersAPI struct {
	c *Client
}

// NewOrdersAPI はOrdersAPIを生成する。
func NewOrdersAPI(c *Client) *OrdersAPI {
	return &OrdersAPI{c: c}
}

// List はログイン中のユーザーの注文履歴を取得する。
func (a *OrdersAPI) List(ctx context.Context) ([]model.Order, error) {
	return callList[model.Order](ctx, a.c, request{
		method: http.MethodGet, path: "/orders", endpoint: "orders.list",
	})
}

// Get は注文詳細を取得する。
func (a *OrdersAPI) Get(ctx context.Context, id string) (*model.Order, error) {
	return require(call[model.Order](ctx, a.c, request{
		method: http.MethodGet, path: resourcePath("/orders", id), endpoint: "orders.get",
	}))
}

// Create は現在のカートから注文を作成する。
func (a *OrdersAPI) Create(ctx context.Context, in model.CreateOrderInput) (*model.Order, error) {
	return require(call[model.Order](ctx, a.c, request{
		method: http.MethodPost, path: "/orders", endpoint: "orders.create", body: in,
	}))
}

// Cancel は注文をキャンセルする。
func (a *OrdersAPI) Cancel(ctx context.Context, id, reason string) error {
	return a.c.exec(ctx, request{
		method:   http.MethodPost,
		path:     resourcePath("/orders", id, "cancel"),
		endpoint: "orders.cancel",
		body:     map[string]string{"reason": reason},
	})
}

// ReviewsAPI は /reviews 配下のエンドポイントのラッパー。
type ReviewsAPI struct {
	c *Client
}

// NewReviewsAPI はReviewsAPIを生成する。
func NewReviewsAPI(c *Client) *ReviewsAPI {
	return &ReviewsAPI{c: c}
}

// Create はレビューを投稿する。
func (a *ReviewsAPI) Create(ctx context.Context, in model.ReviewInput) error {
	return a.c.exec(ctx, request{
		method: http.MethodPost, path: "/reviews", endpoint: "reviews.create", body: in,
	})
}

// Update はレビューを更新する。
func (a *ReviewsAPI) Update(ctx context.Context, id string, in model.ReviewInput) error {
	return a.c.exec(ctx, request{
		method: http.MethodPut, path: resourcePath("/reviews", id), endpoint: "reviews.update", body: in,
	})
}

// Delete はレビューを削除する。
func (a *ReviewsAPI) Delete(ctx context.Context, id string) error {
	return a.c.exec(ctx, request{
		method: http.MethodDelete, path: resourcePath("/reviews", id), endpoint: "reviews.delete",
	})
}
