// Package catalog は商品の閲覧（一覧・絞り込み・検索・詳細・レビュー・カテゴリ）を提供する。
// ビューに渡す前に商品説明とレビュー本文を無害化する。
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
)

// Backend はカタログが使用するバックエンドAPI。
// *api.ProductsAPI がこれを満たす。
type Backend interface {
	List(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Featured(ctx context.Context) ([]model.Product, error)
	NewArrivals(ctx context.Context) ([]model.Product, error)
	BestSellers(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, query string) ([]model.Product, error)
	Reviews(ctx context.Context, productID string) (*model.ProductReviews, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Category(ctx context.Context, id string) (*model.Category, error)
}

// Service はカタログのサービス。状態を持たない。
type Service struct {
	backend   Backend
	sanitizer security.ContentSanitizer
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(backend Backend, sanitizer security.ContentSanitizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, sanitizer: sanitizer, logger: logger}
}

// List は絞り込み条件に一致する商品をページ単位で返す。
func (s *Service) List(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error) {
	page, err := s.backend.List(ctx, Normalize(f))
	if err != nil {
		return nil, model.WithFallback(err, "Failed to load products")
	}
	s.sanitizeAll(page.Items)
	return page, nil
}

// Product は商品詳細を返す。
func (s *Service) Product(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, model.WithFallback(err, "Product not found")
	}
	s.sanitizeProduct(p)
	return p, nil
}

// Featured はおすすめ商品を返す。
func (s *Service) Featured(ctx context.Context) ([]model.Product, error) {
	return s.collection(ctx, s.backend.Featured, "Failed to load featured products")
}

// NewArrivals は新着商品を返す。
func (s *Service) NewArrivals(ctx context.Context) ([]model.Product, error) {
	return s.collection(ctx, s.backend.NewArrivals, "Failed to load new arrivals")
}

// BestSellers は売れ筋商品を返す。
func (s *Service) BestSellers(ctx context.Context) ([]model.Product, error) {
	return s.collection(ctx, s.backend.BestSellers, "Failed to load best sellers")
}

// Search はキーワードで商品を検索する。空のキーワードではバックエンドを呼び出さない。
func (s *Service) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}
	return s.collection(ctx, func(ctx context.Context) ([]model.Product, error) {
		return s.backend.Search(ctx, query)
	}, "Search failed")
}

// Reviews は商品のレビューを返す。タイトルと本文からタグを除去する。
func (s *Service) Reviews(ctx context.Context, productID string) (*model.ProductReviews, error) {
	r, err := s.backend.Reviews(ctx, productID)
	if err != nil {
		return nil, model.WithFallback(err, "Failed to load reviews")
	}
	for i := range r.Reviews {
		r.Reviews[i].Title = s.sanitizer.StripTags(r.Reviews[i].Title)
		r.Reviews[i].Comment = s.sanitizer.StripTags(r.Reviews[i].Comment)
	}
	return r, nil
}

// Categories はカテゴリ一覧を返す。
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	c, err := s.backend.Categories(ctx)
	if err != nil {
		return nil, model.WithFallback(err, "Failed to load categories")
	}
	return c, nil
}

// Category はカテゴリを返す。
func (s *Service) Category(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.backend.Category(ctx, id)
	if err != nil {
		return nil, model.WithFallback(err, "Category not found")
	}
	return c, nil
}

func (s *Service) collection(ctx context.Context, fetch func(context.Context) ([]model.Product, error), fallback string) ([]model.Product, error) {
	items, err := fetch(ctx)
	if err != nil {
		return nil, model.WithFallback(err, fallback)
	}
	s.sanitizeAll(items)
	return items, nil
}

func (s *Service) sanitizeAll(items []model.Product) {
	for i := range items {
		s.sanitizeProduct(&items[i])
	}
}

func (s *Service) sanitizeProduct(p *model.Product) {
	p.Description = s.sanitizer.Sanitize(p.Description)
	p.ShortDesc = s.sanitizer.StripTags(p.ShortDesc)
}
