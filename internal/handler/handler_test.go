package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/api"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// withURLParam はchiのURLパラメータをリクエストに注入する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v\nraw: %s", err, w.Body.String())
	}
	return v
}

// --- セッション ---

func TestSessionHandler_Login_Success(t *testing.T) {
	svc := &mockSessionService{}
	svc.loginFn = func(_ context.Context, email, password string) error {
		if email != "a@example.com" || password != "secret" {
			t.Errorf("credentials = %q/%q", email, password)
		}
		svc.snap = customerSnapshot()
		return nil
	}
	h := NewSessionHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{"email":"a@example.com","password":"secret"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	snap := decodeBody[session.Snapshot](t, w)
	if !snap.IsAuthenticated || snap.User.ID != "user-123" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSessionHandler_Login_FailureUsesServerMessage(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{
		loginFn: func(context.Context, string, string) error {
			return model.NewServerError(401, "Invalid credentials")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{"email":"a@example.com","password":"bad"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if body.Message != "Invalid credentials" || body.Code != model.ErrCodeUnauthorized {
		t.Errorf("body = %+v", body)
	}
}

func TestSessionHandler_Login_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{})

	for _, body := range []string{`{`, `{"email":"a@example.com"}`} {
		w := httptest.NewRecorder()
		h.Login(w, httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSessionHandler_Register(t *testing.T) {
	var got model.RegisterInput
	svc := &mockSessionService{}
	svc.registerFn = func(_ context.Context, in model.RegisterInput) error {
		got = in
		svc.snap = customerSnapshot()
		return nil
	}
	w := httptest.NewRecorder()
	NewSessionHandler(svc).Register(w, httptest.NewRequest(http.MethodPost, "/api/session/register",
		strings.NewReader(`{"email":"n@example.com","password":"pw123456","firstName":"Asha","lastName":"Rao"}`)))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if got.FirstName != "Asha" || got.Email != "n@example.com" {
		t.Errorf("input = %+v", got)
	}
}

func TestSessionHandler_Logout_AlwaysSucceeds(t *testing.T) {
	svc := &mockSessionService{snap: customerSnapshot()}
	w := httptest.NewRecorder()
	NewSessionHandler(svc).Logout(w, httptest.NewRequest(http.MethodPost, "/api/session/logout", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if !svc.logoutCalled {
		t.Error("Logout should be called")
	}
}

func TestSessionHandler_UpdateProfile_FailureKeepsMessage(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{
		updateProfileFn: func(context.Context, model.ProfileUpdate) error {
			return model.WithFallback(model.NewTransportError(errors.New("offline")), "Update failed")
		},
	})
	w := httptest.NewRecorder()
	h.UpdateProfile(w, httptest.NewRequest(http.MethodPut, "/api/session/profile", strings.NewReader(`{"firstName":"A"}`)))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Message != "Update failed" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestSessionHandler_ChangePassword(t *testing.T) {
	var cur, next string
	h := NewSessionHandler(&mockSessionService{
		changePasswordFn: func(_ context.Context, c, n string) error {
			cur, next = c, n
			return nil
		},
	})
	w := httptest.NewRecorder()
	h.ChangePassword(w, httptest.NewRequest(http.MethodPut, "/api/session/password",
		strings.NewReader(`{"currentPassword":"old","newPassword":"new-secret"}`)))

	if w.Code != http.StatusNoContent || cur != "old" || next != "new-secret" {
		t.Errorf("status = %d, cur = %q, next = %q", w.Code, cur, next)
	}
}

// --- カート ---

func sampleCart() *model.Cart {
	return &model.Cart{ID: "c1", Total: 4999, Items: []model.CartItem{{ProductID: "p1", Quantity: 1, Price: 4999}}}
}

func TestCartHandler_Get_Refresh(t *testing.T) {
	svc := &mockCartService{snap: cart.Snapshot{Cart: sampleCart(), ItemCount: 1}}
	h := NewCartHandler(svc)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if svc.fetched {
		t.Error("plain GET should not refetch")
	}
	if snap := decodeBody[cart.Snapshot](t, w); snap.ItemCount != 1 {
		t.Errorf("ItemCount = %d", snap.ItemCount)
	}

	h.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart?refresh=true", nil))
	if !svc.fetched {
		t.Error("refresh=true should refetch")
	}
}

func TestCartHandler_Add_DefaultsQuantity(t *testing.T) {
	var gotQty int
	var gotVariant string
	h := NewCartHandler(&mockCartService{
		addFn: func(_ context.Context, productID string, quantity int, variantID string) error {
			gotQty, gotVariant = quantity, variantID
			return nil
		},
	})

	w := httptest.NewRecorder()
	h.Add(w, httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"productId":"p1","variantId":"v-7"}`)))
	if w.Code != http.StatusOK || gotQty != 1 || gotVariant != "v-7" {
		t.Errorf("status = %d, qty = %d, variant = %q", w.Code, gotQty, gotVariant)
	}

	w = httptest.NewRecorder()
	h.Add(w, httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"quantity":2}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing productId status = %d, want 400", w.Code)
	}
}

func TestCartHandler_UpdateAndRemove(t *testing.T) {
	var updated, removed string
	var qty int
	h := NewCartHandler(&mockCartService{
		updateFn: func(_ context.Context, productID string, quantity int) error {
			updated, qty = productID, quantity
			return nil
		},
		removeFn: func(_ context.Context, productID string) error {
			removed = productID
			return model.WithFallback(model.NewServerError(404, ""), "Failed to remove item")
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/cart/p1", strings.NewReader(`{"quantity":3}`)), "productId", "p1")
	w := httptest.NewRecorder()
	h.UpdateQuantity(w, req)
	if w.Code != http.StatusOK || updated != "p1" || qty != 3 {
		t.Errorf("update: status = %d, id = %q, qty = %d", w.Code, updated, qty)
	}

	req = withURLParam(httptest.NewRequest(http.MethodDelete, "/api/cart/p2", nil), "productId", "p2")
	w = httptest.NewRecorder()
	h.Remove(w, req)
	if w.Code != http.StatusNotFound || removed != "p2" {
		t.Errorf("remove: status = %d, id = %q", w.Code, removed)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Message != "Failed to remove item" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCartHandler_Summary(t *testing.T) {
	h := NewCartHandler(&mockCartService{snap: cart.Snapshot{Cart: sampleCart(), ItemCount: 1}})
	w := httptest.NewRecorder()
	h.Summary(w, httptest.NewRequest(http.MethodGet, "/api/cart/summary", nil))

	body := decodeBody[map[string]any](t, w)
	if body["total"] != 6097.82 || body["shippingCost"] != float64(199) {
		t.Errorf("breakdown = %v", body)
	}
	if body["formattedTotal"] != "₹6,098" || body["freeShipping"] != false {
		t.Errorf("formatted = %v", body)
	}
	if body["freeShippingGap"] != "₹1" {
		t.Errorf("freeShippingGap = %v", body["freeShippingGap"])
	}
}

func TestCartHandler_Summary_EmptyCart(t *testing.T) {
	h := NewCartHandler(&mockCartService{})
	w := httptest.NewRecorder()
	h.Summary(w, httptest.NewRequest(http.MethodGet, "/api/cart/summary", nil))

	body := decodeBody[map[string]any](t, w)
	if body["total"] != float64(199) || body["itemCount"] != float64(0) {
		t.Errorf("body = %v", body)
	}
}

// --- ウィッシュリスト ---

func TestWishlistHandler_ContainsAndAdd(t *testing.T) {
	svc := &mockWishlistService{}
	svc.addFn = func(_ context.Context, productID string) error {
		svc.snap.Items = append(svc.snap.Items, model.WishlistProduct{ID: productID})
		return nil
	}
	h := NewWishlistHandler(svc)

	w := httptest.NewRecorder()
	h.Add(w, httptest.NewRequest(http.MethodPost, "/api/wishlist", strings.NewReader(`{"productId":"p9"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Contains(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/wishlist/p9", nil), "productId", "p9"))
	if got := decodeBody[membershipResponse](t, w); !got.InWishlist || got.ProductID != "p9" {
		t.Errorf("membership = %+v", got)
	}
}

func TestWishlistHandler_ClearFailure(t *testing.T) {
	h := NewWishlistHandler(&mockWishlistService{
		clearFn: func(context.Context) error {
			return model.WithFallback(model.NewServerError(500, ""), "Failed to clear wishlist")
		},
	})
	w := httptest.NewRecorder()
	h.Clear(w, httptest.NewRequest(http.MethodDelete, "/api/wishlist", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

// --- カタログ ---

func TestCatalogHandler_List_ParsesQuery(t *testing.T) {
	var got model.ProductFilter
	h := NewCatalogHandler(&mockCatalogService{
		listFn: func(_ context.Context, f model.ProductFilter) (*api.Page[model.Product], error) {
			got = f
			return &api.Page[model.Product]{Items: []model.Product{{ID: "p1"}}, Page: f.Page, Total: 1, TotalPages: 1}, nil
		},
	})

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/products?metalType=gold&minPrice=abc&sortOrder=asc&page=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.MetalType != "gold" || got.MinPrice != 0 || got.SortOrder != "asc" || got.Page != 2 {
		t.Errorf("filter = %+v", got)
	}
}

func TestCatalogHandler_Get_NotFound(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{
		productFn: func(context.Context, string) (*model.Product, error) {
			return nil, model.WithFallback(model.NewServerError(404, ""), "Product not found")
		},
	})
	w := httptest.NewRecorder()
	h.Get(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/x", nil), "id", "x"))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCatalogHandler_EmptyCollectionsAreArrays(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})
	w := httptest.NewRecorder()
	h.Featured(w, httptest.NewRequest(http.MethodGet, "/api/products/featured", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

// --- チェックアウト ---

func TestCheckoutHandler_PlaceOrder(t *testing.T) {
	var got checkout.Request
	h := NewCheckoutHandler(&mockCheckoutService{
		placeFn: func(_ context.Context, req checkout.Request) (*model.Order, error) {
			got = req
			return &model.Order{ID: "o1", OrderNumber: "ORD-1"}, nil
		},
	})

	w := httptest.NewRecorder()
	h.PlaceOrder(w, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"addressId":"a1","paymentMethod":"upi"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got.AddressID != "a1" || got.PaymentMethod != model.PaymentUPI {
		t.Errorf("request = %+v", got)
	}
}

func TestCheckoutHandler_PlaceOrder_LocalRejection(t *testing.T) {
	h := NewCheckoutHandler(&mockCheckoutService{
		placeFn: func(context.Context, checkout.Request) (*model.Order, error) {
			return nil, model.NewAddressRequiredError()
		},
	})
	w := httptest.NewRecorder()
	h.PlaceOrder(w, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if body.Code != model.ErrCodeAddressRequired || body.Message != "Please select a delivery address" {
		t.Errorf("body = %+v", body)
	}
}

func TestCheckoutHandler_Cancel_OptionalBody(t *testing.T) {
	var gotID, gotReason string
	h := NewCheckoutHandler(&mockCheckoutService{
		cancelFn: func(_ context.Context, id, reason string) error {
			gotID, gotReason = id, reason
			return nil
		},
	})

	w := httptest.NewRecorder()
	h.Cancel(w, withURLParam(httptest.NewRequest(http.MethodPost, "/api/orders/o1/cancel", nil), "id", "o1"))
	if w.Code != http.StatusNoContent || gotID != "o1" || gotReason != "" {
		t.Errorf("status = %d, id = %q, reason = %q", w.Code, gotID, gotReason)
	}

	w = httptest.NewRecorder()
	h.Cancel(w, withURLParam(httptest.NewRequest(http.MethodPost, "/api/orders/o2/cancel", strings.NewReader(`{"reason":"late"}`)), "id", "o2"))
	if gotReason != "late" {
		t.Errorf("reason = %q, want late", gotReason)
	}
}

func TestCheckoutHandler_Orders_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	NewCheckoutHandler(&mockCheckoutService{}).Orders(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q", w.Body.String())
	}
}

// --- 管理画面 ---

func TestAdminHandler_Dashboard_Fallback(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{
		dashboardFn: func(context.Context) (*model.DashboardStats, error) {
			return nil, model.NewTransportError(errors.New("offline"))
		},
	})
	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))

	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Message != "Failed to load dashboard" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestAdminHandler_Orders(t *testing.T) {
	t.Run("ステータスで絞り込む", func(t *testing.T) {
		var got model.OrderStatus
		h := NewAdminHandler(&mockAdminService{
			ordersFn: func(_ context.Context, status model.OrderStatus) (*api.Page[model.Order], error) {
				got = status
				return &api.Page[model.Order]{Items: []model.Order{{ID: "ord-1"}}, Total: 1}, nil
			},
		})
		w := httptest.NewRecorder()
		h.Orders(w, httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=pending", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if got != model.OrderPending {
			t.Errorf("status filter = %q, want pending", got)
		}
		if page := decodeBody[api.Page[model.Order]](t, w); len(page.Items) != 1 || page.Total != 1 {
			t.Errorf("page = %+v", page)
		}
	})

	t.Run("不明なステータスは400", func(t *testing.T) {
		called := false
		h := NewAdminHandler(&mockAdminService{
			ordersFn: func(context.Context, model.OrderStatus) (*api.Page[model.Order], error) {
				called = true
				return nil, nil
			},
		})
		w := httptest.NewRecorder()
		h.Orders(w, httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=lost", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if called {
			t.Error("backend should not be called for an unknown status")
		}
	})
}

func TestAdminHandler_UpdateUser_Forbidden(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{
		updateUserFn: func(context.Context, string, model.AdminUserUpdate) (*model.User, error) {
			return nil, model.NewServerError(http.StatusForbidden, "")
		},
	})
	w := httptest.NewRecorder()
	h.UpdateUser(w, httptest.NewRequest(http.MethodPut, "/api/admin/users/u1", strings.NewReader(`{"isActive":false}`)))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Message != "Failed to update user" {
		t.Errorf("message = %q", body.Message)
	}
}
