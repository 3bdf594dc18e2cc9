package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
// *checkout.Service がこれを満たす。
type CheckoutServiceInterface interface {
	Preview() pricing.Breakdown
	PlaceOrder(ctx context.Context, req checkout.Request) (*model.Order, error)
	AddAddress(ctx context.Context, addr model.Address) error
	Orders(ctx context.Context) ([]model.Order, error)
	Order(ctx context.Context, id string) (*model.Order, error)
	CancelOrder(ctx context.Context, id, reason string) error
}

// CheckoutHandler は注文のHTTPハンドラー。
type CheckoutHandler struct {
	service CheckoutServiceInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Preview は現在のカートの価格内訳を返す。
// GET /api/checkout
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Preview())
}

// PlaceOrder は注文を確定する。
// POST /api/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// AddAddress は配送先住所を追加する。
// POST /api/checkout/addresses
func (h *CheckoutHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req model.Address
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AddAddress(r.Context(), req); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orders は注文履歴を返す。
// GET /api/orders
func (h *CheckoutHandler) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Order は注文詳細を返す。
// GET /api/orders/{id}
func (h *CheckoutHandler) Order(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel は注文をキャンセルする。ボディは省略できる。
// POST /api/orders/{id}/cancel
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
