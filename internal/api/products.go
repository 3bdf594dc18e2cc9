package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/storefront/internal/model"
)

// ProductsAPI は /products と /categories 配下のエンドポイントのラッパー。
type ProductsAPI struct {
	c *Client
}

// NewProductsAPI はProductsAPIを生成する。
func NewProductsAPI(c *Client) *ProductsAPI {
	return &ProductsAPI{c: c}
}

// FilterQuery は絞り込み条件をクエリパラメータに変換する。
// 空文字列・ゼロのフィールドは含めない。
func FilterQuery(f model.ProductFilter) url.Values {
	q := url.Values{}
	setString := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	setFloat := func(key string, v float64) {
		if v > 0 {
			q.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	setInt := func(key string, v int) {
		if v > 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}

	setString("metalType", f.MetalType)
	setString("categoryId", f.CategoryID)
	setFloat("minPrice", f.MinPrice)
	setFloat("maxPrice", f.MaxPrice)
	setString("purity", f.Purity)
	setString("search", f.Search)
	setString("isFeatured", f.IsFeatured)
	setString("sortBy", f.SortBy)
	setString("sortOrder", f.SortOrder)
	setInt("page", f.Page)
	setInt("limit", f.Limit)
	return q
}

// List は絞り込み条件に一致する商品をページ単位で取得する。
func (a *ProductsAPI) List(ctx context.Context, f model.ProductFilter) (*Page[model.Product], error) {
	return callPage[model.Product](ctx, a.c, request{
		method: http.MethodGet, path: "/products", endpoint: "products.list", query: FilterQuery(f),
	})
}

// Get は商品詳細を取得する。
func (a *ProductsAPI) Get(ctx context.Context, id string) (*model.Product, error) {
	return require(call[model.Product](ctx, a.c, request{
		method: http.MethodGet, path: resourcePath("/products", id), endpoint: "products.get",
	}))
}

// Featured はおすすめ商品を取得する。
func (a *ProductsAPI) Featured(ctx context.Context) ([]model.Product, error) {
	return callList[model.Product](ctx, a.c, request{
		method: http.MethodGet, path: "/products/featured", endpoint: "products.featured",
	})
}

// NewArrivals は新着商品を取得する。
func (a *ProductsAPI) NewArrivals(ctx context.Context) ([]model.Product, error) {
	return callList[model.Product](ctx, a.c, request{
		method: http.MethodGet, path: "/products/new-arrivals", endpoint: "products.new_arrivals",
	})
}

// BestSellers は売れ筋商品を取得する。
func (a *ProductsAPI) BestSellers(ctx context.Context) ([]model.Product, error) {
	return callList[model.Product](ctx, a.c, request{
		method: http.MethodGet, path: "/products/best-sellers", endpoint: "products.best_sellers",
	})
}

// Search はキーワードで商品を検索する。
func (a *ProductsAPI) Search(ctx context.Context, query string) ([]model.Product, error) {
	return callList[model.Product](ctx, a.c, request{
		method:   http.MethodGet,
		path:     "/products/search",
		endpoint: "products.search",
		query:    url.Values{"q": {query}},
	})
}

// Reviews は商品のレビュー一覧を取得する。
func (a *ProductsAPI) Reviews(ctx context.Context, productID string) (*model.ProductReviews, error) {
	r, err := call[model.ProductReviews](ctx, a.c, request{
		method: http.MethodGet, path: resourcePath("/products", productID, "reviews"), endpoint: "products.reviews",
	})
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &model.ProductReviews{Reviews: []model.Review{}}, nil
	}
	return r, nil
}

// Categories はカテゴリ一覧を取得する。
func (a *ProductsAPI) Categories(ctx context.Context) ([]model.Category, error) {
	return callList[model.Category](ctx, a.c, request{
		method: http.MethodGet, path: "/categories", endpoint: "categories.list",
	})
}

// Category はカテゴリを取得する。
func (a *ProductsAPI) Category(ctx context.Context, id string) (*model.Category, error) {
	return require(call[model.Category](ctx, a.c, request{
		method: http.MethodGet, path: resourcePath("/categories", id), endpoint: "categories.get",
	}))
}
