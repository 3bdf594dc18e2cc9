package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
)

// mockBackend はBackendのモック実装。未設定のメソッドはエラーを返す。
type mockBackend struct {
	listFn       func(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error)
	getFn        func(ctx context.Context, id string) (*model.Product, error)
	featuredFn   func(ctx context.Context) ([]model.Product, error)
	searchFn     func(ctx context.Context, q string) ([]model.Product, error)
	reviewsFn    func(ctx context.Context, id string) (*model.ProductReviews, error)
	categoriesFn func(ctx context.Context) ([]model.Category, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockBackend) List(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error) {
	return m.listFn(ctx, f)
}
func (m *mockBackend) Get(ctx context.Context, id string) (*model.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockBackend) Featured(ctx context.Context) ([]model.Product, error) {
	return m.featuredFn(ctx)
}
func (m *mockBackend) NewArrivals(context.Context) ([]model.Product, error) {
	return nil, errNotMocked
}
func (m *mockBackend) BestSellers(context.Context) ([]model.Product, error) {
	return nil, errNotMocked
}
func (m *mockBackend) Search(ctx context.Context, q string) ([]model.Product, error) {
	return m.searchFn(ctx, q)
}
func (m *mockBackend) Reviews(ctx context.Context, id string) (*model.ProductReviews, error) {
	return m.reviewsFn(ctx, id)
}
func (m *mockBackend) Categories(ctx context.Context) ([]model.Category, error) {
	return m.categoriesFn(ctx)
}
func (m *mockBackend) Category(context.Context, string) (*model.Category, error) {
	return nil, errNotMocked
}

var _ Backend = (*mockBackend)(nil)

func newTestService(b Backend) *Service {
	return NewService(b, security.NewContentSanitizer(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestList_NormalizesFilterAndSanitizes(t *testing.T) {
	var got model.ProductFilter
	s := newTestService(&mockBackend{
		listFn: func(_ context.Context, f model.ProductFilter) (*api.Page[model.Product], error) {
			got = f
			return &api.Page[model.Product]{
				Items: []model.Product{{ID: "p1", Description: `<p>Gold</p><script>x()</script>`}},
				Page:  1,
			}, nil
		},
	})

	page, err := s.List(context.Background(), model.ProductFilter{MetalType: "gold"})
	if err != nil {
		t.Fatalf("List がエラーを返した: %v", err)
	}
	if got.SortBy != DefaultSortBy || got.Limit != DefaultLimit || got.Page != 1 {
		t.Errorf("backend received un-normalized filter: %+v", got)
	}
	if strings.Contains(page.Items[0].Description, "script") {
		t.Errorf("description not sanitized: %q", page.Items[0].Description)
	}
	if !strings.Contains(page.Items[0].Description, "<p>Gold</p>") {
		t.Errorf("allowed markup was removed: %q", page.Items[0].Description)
	}
}

func TestList_ErrorFallback(t *testing.T) {
	s := newTestService(&mockBackend{
		listFn: func(context.Context, model.ProductFilter) (*api.Page[model.Product], error) {
			return nil, model.NewTransportError(errors.New("offline"))
		},
	})
	_, err := s.List(context.Background(), model.ProductFilter{})
	if apiErr, ok := model.AsAPIError(err); !ok || apiErr.Message != "Failed to load products" {
		t.Errorf("error = %v", err)
	}
}

func TestProduct_Sanitizes(t *testing.T) {
	s := newTestService(&mockBackend{
		getFn: func(_ context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Description: `<img src="https://cdn.example.com/a.jpg" onerror="x()">`, ShortDesc: "<b>Bold</b> ring"}, nil
		},
	})

	p, err := s.Product(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(p.Description, "onerror") {
		t.Errorf("description = %q", p.Description)
	}
	if p.ShortDesc != "Bold ring" {
		t.Errorf("ShortDesc = %q, want tags stripped", p.ShortDesc)
	}
}

func TestSearch_EmptyQuerySkipsBackend(t *testing.T) {
	s := newTestService(&mockBackend{
		searchFn: func(context.Context, string) ([]model.Product, error) {
			t.Error("backend should not be called for empty query")
			return nil, nil
		},
	})
	items, err := s.Search(context.Background(), "   ")
	if err != nil || len(items) != 0 {
		t.Errorf("Search(empty) = %v, %v", items, err)
	}
}

func TestSearch_TrimsQuery(t *testing.T) {
	var got string
	s := newTestService(&mockBackend{
		searchFn: func(_ context.Context, q string) ([]model.Product, error) {
			got = q
			return []model.Product{{ID: "p1"}}, nil
		},
	})
	if _, err := s.Search(context.Background(), "  jhumka "); err != nil {
		t.Fatal(err)
	}
	if got != "jhumka" {
		t.Errorf("query = %q, want jhumka", got)
	}
}

func TestReviews_StripsTags(t *testing.T) {
	s := newTestService(&mockBackend{
		reviewsFn: func(context.Context, string) (*model.ProductReviews, error) {
			return &model.ProductReviews{
				Reviews:   []model.Review{{Title: "<i>Lovely</i>", Comment: "<script>x()</script>Great finish"}},
				Count:     1,
				AvgRating: 5,
			}, nil
		},
	})

	r, err := s.Reviews(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Reviews[0].Title != "Lovely" || r.Reviews[0].Comment != "Great finish" {
		t.Errorf("review = %+v", r.Reviews[0])
	}
}

func TestFeaturedAndCategories(t *testing.T) {
	s := newTestService(&mockBackend{
		featuredFn: func(context.Context) ([]model.Product, error) {
			return []model.Product{{ID: "p1", IsFeatured: true}}, nil
		},
		categoriesFn: func(context.Context) ([]model.Category, error) {
			return []model.Category{{ID: "c1", Name: "Rings"}}, nil
		},
	})

	featured, err := s.Featured(context.Background())
	if err != nil || len(featured) != 1 {
		t.Errorf("Featured = %v, %v", featured, err)
	}
	cats, err := s.Categories(context.Background())
	if err != nil || len(cats) != 1 || cats[0].Name != "Rings" {
		t.Errorf("Categories = %v, %v", cats, err)
	}

	if _, err := s.NewArrivals(context.Background()); err == nil {
		t.Error("expected error from unmocked backend")
	}
}
