package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/pricing"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
// *cart.Store がこれを満たす。
type CartServiceInterface interface {
	Snapshot() cart.Snapshot
	FetchCart(ctx context.Context)
	AddToCart(ctx context.Context, productID string, quantity int, variantID string) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	VariantID string `json:"variantId,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartSummaryResponse は価格内訳と表示用の文字列。
type cartSummaryResponse struct {
	pricing.Breakdown
	ItemCount         int    `json:"itemCount"`
	FreeShipping      bool   `json:"freeShipping"`
	FreeShippingGap   string `json:"freeShippingGap"`
	FormattedSubtotal string `json:"formattedSubtotal"`
	FormattedTax      string `json:"formattedTax"`
	FormattedShipping string `json:"formattedShipping"`
	FormattedTotal    string `json:"formattedTotal"`
}

// Get はカートを返す。refresh=trueの場合はバックエンドから取り直す。
// GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.service.FetchCart(r.Context())
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Add は商品をカートに追加する。数量が未指定の場合は1。
// POST /api/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeInvalidRequest(w, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.service.AddToCart(r.Context(), req.ProductID, req.Quantity, req.VariantID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// UpdateQuantity は明細の数量を更新する。
// PUT /api/cart/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "productId"), req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Remove は明細を削除する。
// DELETE /api/cart/{productId}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveFromCart(r.Context(), chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Clear はカートを空にする。
// DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary はカートの価格内訳を返す。
// GET /api/cart/summary
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Snapshot()
	var subtotal float64
	if snap.Cart != nil {
		subtotal = snap.Cart.Total
	}
	b := pricing.Calculate(subtotal)
	writeJSON(w, http.StatusOK, cartSummaryResponse{
		Breakdown:         b,
		ItemCount:         snap.ItemCount,
		FreeShipping:      b.FreeShipping(),
		FreeShippingGap:   pricing.FormatINR(pricing.FreeShippingGap(subtotal)),
		FormattedSubtotal: pricing.FormatINR(b.Subtotal),
		FormattedTax:      pricing.FormatINR(b.Tax),
		FormattedShipping: pricing.FormatINR(b.Shipping),
		FormattedTotal:    pricing.FormatINR(b.Total),
	})
}
