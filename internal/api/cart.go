package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// CartAPI は /cart 配下のエンドポイントのラッパー。
// 更新系はすべて更新後のカート全体を返す（ClearCartを除く）。
type CartAPI struct {
	c *Client
}

// NewCartAPI はCartAPIを生成する。
func NewCartAPI(c *Client) *CartAPI {
	return &CartAPI{c: c}
}

// Get はカートを取得する。カートが未作成の場合は nil を返す。
func (a *CartAPI) Get(ctx context.Context) (*model.Cart, error) {
	return call[model.Cart](ctx, a.c, request{
		method: http.MethodGet, path: "/cart", endpoint: "cart.get",
	})
}

// Add は商品をカートに追加する。
func (a *CartAPI) Add(ctx context.Context, in model.AddToCartInput) (*model.Cart, error) {
	return require(call[model.Cart](ctx, a.c, request{
		method: http.MethodPost, path: "/cart", endpoint: "cart.add", body: in,
	}))
}

// UpdateQuantity は明細の数量を更新する。
func (a *CartAPI) UpdateQuantity(ctx context.Context, productID string, quantity int) (*model.Cart, error) {
	return require(call[model.Cart](ctx, a.c, request{
		method:   http.MethodPut,
		path:     resourcePath("/cart", productID),
		endpoint: "cart.update",
		body:     map[string]int{"quantity": quantity},
	}))
}

// Remove は明細を削除する。
func (a *CartAPI) Remove(ctx context.Context, productID string) (*model.Cart, error) {
	return require(call[model.Cart](ctx, a.c, request{
		method: http.MethodDelete, path: resourcePath("/cart", productID), endpoint: "cart.remove",
	}))
}

// Clear はカートを空にする。レスポンスのdataは使用しない。
func (a *CartAPI) Clear(ctx context.Context) error {
	return a.c.exec(ctx, request{
		method: http.MethodDelete, path: "/cart", endpoint: "cart.clear",
	})
}
