package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/wishlist"
)

// WishlistServiceInterface はウィッシュリストハンドラーが必要とするサービスインターフェース。
// *wishlist.Store がこれを満たす。
type WishlistServiceInterface interface {
	Snapshot() wishlist.Snapshot
	FetchWishlist(ctx context.Context)
	IsInWishlist(productID string) bool
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
	ClearWishlist(ctx context.Context) error
}

// WishlistHandler はウィッシュリストのHTTPハンドラー。
type WishlistHandler struct {
	service WishlistServiceInterface
}

// NewWishlistHandler はWishlistHandlerを生成する。
func NewWishlistHandler(service WishlistServiceInterface) *WishlistHandler {
	return &WishlistHandler{service: service}
}

type addToWishlistRequest struct {
	ProductID string `json:"productId"`
}

type membershipResponse struct {
	ProductID  string `json:"productId"`
	InWishlist bool   `json:"inWishlist"`
}

// Get は一覧を返す。refresh=trueの場合はバックエンドから取り直す。
// GET /api/wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.service.FetchWishlist(r.Context())
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Add は商品を追加する。
// POST /api/wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToWishlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeInvalidRequest(w, "productId is required")
		return
	}

	if err := h.service.AddToWishlist(r.Context(), req.ProductID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Contains は商品が一覧に含まれるかどうかを返す。
// GET /api/wishlist/{productId}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	writeJSON(w, http.StatusOK, membershipResponse{ProductID: id, InWishlist: h.service.IsInWishlist(id)})
}

// Remove は商品を削除する。
// DELETE /api/wishlist/{productId}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveFromWishlist(r.Context(), chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Clear は一覧を空にする。
// DELETE /api/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearWishlist(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
