package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/model"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
// *catalog.Service がこれを満たす。
type CatalogServiceInterface interface {
	List(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error)
	Product(ctx context.Context, id string) (*model.Product, error)
	Featured(ctx context.Context) ([]model.Product, error)
	NewArrivals(ctx context.Context) ([]model.Product, error)
	BestSellers(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, query string) ([]model.Product, error)
	Reviews(ctx context.Context, productID string) (*model.ProductReviews, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// CatalogHandler は商品閲覧のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// List は絞り込み条件に一致する商品を返す。
// GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), catalog.ParseFilter(r.URL.Query()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get は商品詳細を返す。
// GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Reviews は商品のレビューを返す。
// GET /api/products/{id}/reviews
func (h *CatalogHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.Reviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Search はキーワードで商品を検索する。
// GET /api/products/search?q=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	h.writeCollection(w, items, err)
}

// Featured はおすすめ商品を返す。
// GET /api/products/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Featured(r.Context())
	h.writeCollection(w, items, err)
}

// NewArrivals は新着商品を返す。
// GET /api/products/new-arrivals
func (h *CatalogHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.NewArrivals(r.Context())
	h.writeCollection(w, items, err)
}

// BestSellers は売れ筋商品を返す。
// GET /api/products/best-sellers
func (h *CatalogHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.BestSellers(r.Context())
	h.writeCollection(w, items, err)
}

// Categories はカテゴリ一覧を返す。
// GET /api/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) writeCollection(w http.ResponseWriter, items []model.Product, err error) {
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if items == nil {
		items = []model.Product{}
	}
	writeJSON(w, http.StatusOK, items)
}
