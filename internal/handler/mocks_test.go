package handler

import (
	"context"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
	"github.com/hitoshi/storefront/internal/session"
	"github.com/hitoshi/storefront/internal/wishlist"
)

// --- モック定義 ---

type mockSessionService struct {
	snap             session.Snapshot
	loginFn          func(ctx context.Context, email, password string) error
	registerFn       func(ctx context.Context, in model.RegisterInput) error
	logoutCalled     bool
	updateProfileFn  func(ctx context.Context, in model.ProfileUpdate) error
	changePasswordFn func(ctx context.Context, cur, next string) error
}

func (m *mockSessionService) Snapshot() session.Snapshot { return m.snap }
func (m *mockSessionService) Login(ctx context.Context, email, password string) error {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil
}
func (m *mockSessionService) Register(ctx context.Context, in model.RegisterInput) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil
}
func (m *mockSessionService) Logout(context.Context) { m.logoutCalled = true }
func (m *mockSessionService) UpdateProfile(ctx context.Context, in model.ProfileUpdate) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, in)
	}
	return nil
}
func (m *mockSessionService) ChangePassword(ctx context.Context, cur, next string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, cur, next)
	}
	return nil
}

type mockCartService struct {
	snap     cart.Snapshot
	fetched  bool
	addFn    func(ctx context.Context, productID string, quantity int, variantID string) error
	updateFn func(ctx context.Context, productID string, quantity int) error
	removeFn func(ctx context.Context, productID string) error
	clearFn  func(ctx context.Context) error
}

func (m *mockCartService) Snapshot() cart.Snapshot   { return m.snap }
func (m *mockCartService) FetchCart(context.Context) { m.fetched = true }
func (m *mockCartService) AddToCart(ctx context.Context, productID string, quantity int, variantID string) error {
	if m.addFn != nil {
		return m.addFn(ctx, productID, quantity, variantID)
	}
	return nil
}
func (m *mockCartService) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, productID, quantity)
	}
	return nil
}
func (m *mockCartService) RemoveFromCart(ctx context.Context, productID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, productID)
	}
	return nil
}
func (m *mockCartService) ClearCart(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type mockWishlistService struct {
	snap     wishlist.Snapshot
	fetched  bool
	addFn    func(ctx context.Context, productID string) error
	removeFn func(ctx context.Context, productID string) error
	clearFn  func(ctx context.Context) error
}

func (m *mockWishlistService) Snapshot() wishlist.Snapshot   { return m.snap }
func (m *mockWishlistService) FetchWishlist(context.Context) { m.fetched = true }
func (m *mockWishlistService) IsInWishlist(productID string) bool {
	for _, item := range m.snap.Items {
		if item.ID == productID {
			return true
		}
	}
	return false
}
func (m *mockWishlistService) AddToWishlist(ctx context.Context, productID string) error {
	if m.addFn != nil {
		return m.addFn(ctx, productID)
	}
	return nil
}
func (m *mockWishlistService) RemoveFromWishlist(ctx context.Context, productID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, productID)
	}
	return nil
}
func (m *mockWishlistService) ClearWishlist(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type mockCatalogService struct {
	listFn    func(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error)
	productFn func(ctx context.Context, id string) (*model.Product, error)
	searchFn  func(ctx context.Context, q string) ([]model.Product, error)
	reviewsFn func(ctx context.Context, id string) (*model.ProductReviews, error)
}

func (m *mockCatalogService) List(ctx context.Context, f model.ProductFilter) (*api.Page[model.Product], error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return &api.Page[model.Product]{Items: []model.Product{}}, nil
}
func (m *mockCatalogService) Product(ctx context.Context, id string) (*model.Product, error) {
	if m.productFn != nil {
		return m.productFn(ctx, id)
	}
	return &model.Product{ID: id}, nil
}
func (m *mockCatalogService) Featured(context.Context) ([]model.Product, error)    { return nil, nil }
func (m *mockCatalogService) NewArrivals(context.Context) ([]model.Product, error) { return nil, nil }
func (m *mockCatalogService) BestSellers(context.Context) ([]model.Product, error) { return nil, nil }
func (m *mockCatalogService) Search(ctx context.Context, q string) ([]model.Product, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}
func (m *mockCatalogService) Reviews(ctx context.Context, id string) (*model.ProductReviews, error) {
	if m.reviewsFn != nil {
		return m.reviewsFn(ctx, id)
	}
	return &model.ProductReviews{}, nil
}
func (m *mockCatalogService) Categories(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: "rings", Name: "Rings"}}, nil
}

type mockCheckoutService struct {
	preview   pricing.Breakdown
	placeFn   func(ctx context.Context, req checkout.Request) (*model.Order, error)
	addAddrFn func(ctx context.Context, addr model.Address) error
	ordersFn  func(ctx context.Context) ([]model.Order, error)
	orderFn   func(ctx context.Context, id string) (*model.Order, error)
	cancelFn  func(ctx context.Context, id, reason string) error
}

func (m *mockCheckoutService) Preview() pricing.Breakdown { return m.preview }
func (m *mockCheckoutService) PlaceOrder(ctx context.Context, req checkout.Request) (*model.Order, error) {
	if m.placeFn != nil {
		return m.placeFn(ctx, req)
	}
	return &model.Order{ID: "o1"}, nil
}
func (m *mockCheckoutService) AddAddress(ctx context.Context, addr model.Address) error {
	if m.addAddrFn != nil {
		return m.addAddrFn(ctx, addr)
	}
	return nil
}
func (m *mockCheckoutService) Orders(ctx context.Context) ([]model.Order, error) {
	if m.ordersFn != nil {
		return m.ordersFn(ctx)
	}
	return nil, nil
}
func (m *mockCheckoutService) Order(ctx context.Context, id string) (*model.Order, error) {
	if m.orderFn != nil {
		return m.orderFn(ctx, id)
	}
	return &model.Order{ID: id}, nil
}
func (m *mockCheckoutService) CancelOrder(ctx context.Context, id, reason string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id, reason)
	}
	return nil
}

type mockAdminService struct {
	dashboardFn         func(ctx context.Context) (*model.DashboardStats, error)
	usersFn             func(ctx context.Context, role model.Role) (*api.Page[model.User], error)
	updateUserFn        func(ctx context.Context, id string, in model.AdminUserUpdate) (*model.User, error)
	ordersFn            func(ctx context.Context, status model.OrderStatus) (*api.Page[model.Order], error)
	updateOrderStatusFn func(ctx context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error)
	deleteProductFn     func(ctx context.Context, id string) error
}

func (m *mockAdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return &model.DashboardStats{}, nil
}
func (m *mockAdminService) Users(ctx context.Context, role model.Role) (*api.Page[model.User], error) {
	if m.usersFn != nil {
		return m.usersFn(ctx, role)
	}
	return &api.Page[model.User]{}, nil
}
func (m *mockAdminService) User(_ context.Context, id string) (*model.AdminUserDetail, error) {
	return &model.AdminUserDetail{User: model.User{ID: id}}, nil
}
func (m *mockAdminService) UpdateUser(ctx context.Context, id string, in model.AdminUserUpdate) (*model.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, id, in)
	}
	return &model.User{ID: id}, nil
}
func (m *mockAdminService) Orders(ctx context.Context, status model.OrderStatus) (*api.Page[model.Order], error) {
	if m.ordersFn != nil {
		return m.ordersFn(ctx, status)
	}
	return &api.Page[model.Order]{}, nil
}
func (m *mockAdminService) UpdateOrderStatus(ctx context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, id, in)
	}
	return &model.Order{ID: id, Status: in.Status}, nil
}
func (m *mockAdminService) DeleteProduct(ctx context.Context, id string) error {
	if m.deleteProductFn != nil {
		return m.deleteProductFn(ctx, id)
	}
	return nil
}

var (
	_ SessionServiceInterface  = (*mockSessionService)(nil)
	_ CartServiceInterface     = (*mockCartService)(nil)
	_ WishlistServiceInterface = (*mockWishlistService)(nil)
	_ CatalogServiceInterface  = (*mockCatalogService)(nil)
	_ CheckoutServiceInterface = (*mockCheckoutService)(nil)
	_ AdminServiceInterface    = (*mockAdminService)(nil)

	_ SessionServiceInterface  = (*session.Store)(nil)
	_ CartServiceInterface     = (*cart.Store)(nil)
	_ WishlistServiceInterface = (*wishlist.Store)(nil)
	_ CatalogServiceInterface  = (*catalog.Service)(nil)
	_ CheckoutServiceInterface = (*checkout.Service)(nil)
	_ AdminServiceInterface    = (*api.AdminAPI)(nil)
)

func customerSnapshot() session.Snapshot {
	return session.Snapshot{
		User:            &model.User{ID: "user-123", Role: model.RoleCustomer},
		IsAuthenticated: true,
		State:           session.StateAuthenticated,
	}
}

func adminSnapshot() session.Snapshot {
	return session.Snapshot{
		User:            &model.User{ID: "admin-1", Role: model.RoleAdmin},
		IsAuthenticated: true,
		State:           session.StateAuthenticated,
	}
}
