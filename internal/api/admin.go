package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/storefront/internal/model"
)

// AdminAPI は管理者向け /admin 配下のエンドポイントのラッパー。
// 権限のないユーザーが呼び出した場合、バックエンドは403を返す。
type AdminAPI struct {
	c *Client
}

// NewAdminAPI はAdminAPIを生成する。
func NewAdminAPI(c *Client) *AdminAPI {
	return &AdminAPI{c: c}
}

// Dashboard はダッシュボードの集計を取得する。
func (a *AdminAPI) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	return require(call[model.DashboardStats](ctx, a.c, request{
		method: http.MethodGet, path: "/admin/dashboard", endpoint: "admin.dashboard",
	}))
}

// Users はユーザー一覧を取得する。roleが空の場合は全ロールを対象とする。
func (a *AdminAPI) Users(ctx context.Context, role model.Role) (*Page[model.User], error) {
	q := url.Values{}
	if role != "" {
		q.Set("role", string(role))
	}
	return callPage[model.User](ctx, a.c, request{
		method: http.MethodGet, path: "/admin/users", endpoint: "admin.users", query: q,
	})
}

// User はユーザー詳細と注文履歴を取得する。
func (a *AdminAPI) User(ctx context.Context, id string) (*model.AdminUserDetail, error) {
	return require(call[model.AdminUserDetail](ctx, a.c, request{
		method: http.MethodGet, path: resourcePath("/admin/users", id), endpoint: "admin.user",
	}))
}

// UpdateUser はユーザーのロール・有効状態を更新する。
func (a *AdminAPI) UpdateUser(ctx context.Context, id string, in model.AdminUserUpdate) (*model.User, error) {
	return require(call[model.User](ctx, a.c, request{
		method: http.MethodPut, path: resourcePath("/admin/users", id), endpoint: "admin.update_user", body: in,
	}))
}

// Orders は全ユーザーの注文一覧を取得する。statusが空の場合は全ステータスを対象とする。
func (a *AdminAPI) Orders(ctx context.Context, status model.OrderStatus) (*Page[model.Order], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	return callPage[model.Order](ctx, a.c, request{
		method: http.MethodGet, path: "/admin/orders", endpoint: "admin.orders", query: q,
	})
}

// UpdateOrderStatus は注文ステータスを更新する。
func (a *AdminAPI) UpdateOrderStatus(ctx context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error) {
	if !in.Status.Valid() {
		return nil, model.NewInvalidRequestError("unknown order status " + string(in.Status))
	}
	return require(call[model.Order](ctx, a.c, request{
		method: http.MethodPut, path: resourcePath("/admin/orders", id, "status"), endpoint: "admin.update_order_status", body: in,
	}))
}

// DeleteProduct は商品を削除する。
func (a *AdminAPI) DeleteProduct(ctx context.Context, id string) error {
	return a.c.exec(ctx, request{
		method: http.MethodDelete, path: resourcePath("/admin/products", id), endpoint: "admin.delete_product",
	})
}
