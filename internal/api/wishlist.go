package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// WishlistAPI は /wishlist 配下のエンドポイントのラッパー。
type WishlistAPI struct {
	c *Client
}

// NewWishlistAPI はWishlistAPIを生成する。
func NewWishlistAPI(c *Client) *WishlistAPI {
	return &WishlistAPI{c: c}
}

// Get はウィッシュリストの商品一覧を取得する。
func (a *WishlistAPI) Get(ctx context.Context) ([]model.WishlistProduct, error) {
	w, err := call[model.Wishlist](ctx, a.c, request{
		method: http.MethodGet, path: "/wishlist", endpoint: "wishlist.get",
	})
	if err != nil {
		return nil, err
	}
	if w == nil || w.Products == nil {
		return []model.WishlistProduct{}, nil
	}
	return w.Products, nil
}

// Add は商品をウィッシュリストに追加する。レスポンスのdataは使用しない。
func (a *WishlistAPI) Add(ctx context.Context, productID string) error {
	return a.c.exec(ctx, request{
		method:   http.MethodPost,
		path:     "/wishlist",
		endpoint: "wishlist.add",
		body:     map[string]string{"productId": productID},
	})
}

// Remove は商品をウィッシュリストから削除する。
func (a *WishlistAPI) Remove(ctx context.Context, productID string) error {
	return a.c.exec(ctx, request{
		method: http.MethodDelete, path: resourcePath("/wishlist", productID), endpoint: "wishlist.remove",
	})
}

// Clear はウィッシュリストを空にする。
func (a *WishlistAPI) Clear(ctx context.Context) error {
	return a.c.exec(ctx, request{
		method: http.MethodDelete, path: "/wishlist", endpoint: "wishlist.clear",
	})
}
