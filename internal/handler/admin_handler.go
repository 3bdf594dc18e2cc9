package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/model"
)

// AdminServiceInterface は管理画面ハンドラーが必要とするサービスインターフェース。
// *api.AdminAPI がこれを満たす。
type AdminServiceInterface interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	Users(ctx context.Context, role model.Role) (*api.Page[model.User], error)
	User(ctx context.Context, id string) (*model.AdminUserDetail, error)
	UpdateUser(ctx context.Context, id string, in model.AdminUserUpdate) (*model.User, error)
	Orders(ctx context.Context, status model.OrderStatus) (*api.Page[model.Order], error)
	UpdateOrderStatus(ctx context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error)
	DeleteProduct(ctx context.Context, id string) error
}

// AdminHandler は管理画面のHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// Dashboard はダッシュボードの集計値を返す。
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to load dashboard"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Users はユーザー一覧を返す。
// GET /api/admin/users?role=customer
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Users(r.Context(), model.Role(r.URL.Query().Get("role")))
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to load users"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// User はユーザー詳細と注文履歴を返す。
// GET /api/admin/users/{id}
func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.User(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to load user"))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateUser はユーザーのロール・有効状態を更新する。
// PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req model.AdminUserUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to update user"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Orders は全ユーザーの注文一覧を返す。
// GET /api/admin/orders?status=pending
func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeInvalidRequest(w, "unknown order status "+string(status))
		return
	}

	page, err := h.service.Orders(r.Context(), status)
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to load orders"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateOrderStatus は注文ステータスを更新する。
// PUT /api/admin/orders/{id}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateOrderStatusInput
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to update order status"))
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// DeleteProduct は商品を削除する。
// DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, model.WithFallback(err, "Failed to delete product"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
