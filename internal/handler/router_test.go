package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

const testOrigin = "http://localhost:5173"

func newTestRouter(snap session.Snapshot, mutate func(*RouterDeps)) http.Handler {
	deps := &RouterDeps{
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSAllowedOrigin: testOrigin,
		Session:           &mockSessionService{snap: snap},
		Cart:              &mockCartService{},
		Wishlist:          &mockWishlistService{},
		Catalog:           &mockCatalogService{},
		Checkout:          &mockCheckoutService{},
		Admin:             &mockAdminService{},
	}
	if mutate != nil {
		mutate(deps)
	}
	return NewRouter(deps)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(customerSnapshot(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody[healthResponse](t, w); got.Status != "ok" || !got.Authenticated {
		t.Errorf("health = %+v", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be set")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be applied")
	}
}

func TestRouter_AccessRules(t *testing.T) {
	tests := []struct {
		name       string
		snap       session.Snapshot
		method     string
		path       string
		wantStatus int
		wantTarget string
	}{
		{"anonymous orders", session.Snapshot{}, http.MethodGet, "/api/orders", http.StatusUnauthorized, "/login"},
		{"anonymous checkout", session.Snapshot{}, http.MethodGet, "/api/checkout", http.StatusUnauthorized, "/login"},
		{"anonymous profile", session.Snapshot{}, http.MethodPut, "/api/session/profile", http.StatusUnauthorized, "/login"},
		{"customer orders", customerSnapshot(), http.MethodGet, "/api/orders", http.StatusOK, ""},
		{"customer admin", customerSnapshot(), http.MethodGet, "/api/admin/dashboard", http.StatusForbidden, "/"},
		{"admin dashboard", adminSnapshot(), http.MethodGet, "/api/admin/dashboard", http.StatusOK, ""},
		{"anonymous admin", session.Snapshot{}, http.MethodGet, "/api/admin/dashboard", http.StatusUnauthorized, "/login"},
		{"customer admin orders", customerSnapshot(), http.MethodGet, "/api/admin/orders", http.StatusForbidden, "/"},
		{"customer admin product delete", customerSnapshot(), http.MethodDelete, "/api/admin/products/p1", http.StatusForbidden, "/"},
		{"admin users", adminSnapshot(), http.MethodGet, "/api/admin/users", http.StatusOK, ""},
		{"admin user detail", adminSnapshot(), http.MethodGet, "/api/admin/users/u1", http.StatusOK, ""},
		{"customer login page", customerSnapshot(), http.MethodPost, "/api/session/login", http.StatusForbidden, "/"},
		{"anonymous products", session.Snapshot{}, http.MethodGet, "/api/products", http.StatusOK, ""},
		{"anonymous cart", session.Snapshot{}, http.MethodGet, "/api/cart", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.snap, nil)

			var body io.Reader
			if tt.method != http.MethodGet {
				body = strings.NewReader(`{"email":"a@example.com","password":"x"}`)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Origin", testOrigin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := w.Header().Get("X-Redirect-To"); got != tt.wantTarget {
				t.Errorf("X-Redirect-To = %q, want %q", got, tt.wantTarget)
			}
		})
	}
}

func TestRouter_CrossSiteMutationRejected(t *testing.T) {
	router := newTestRouter(customerSnapshot(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"productId":"p1"}`))
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Code != "CROSS_SITE_REQUEST" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestRouter_CheckoutRateLimited(t *testing.T) {
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.CheckoutBurst = 1
	limiter := middleware.NewRateLimiter(cfg)
	defer limiter.Stop()

	var placed int
	router := newTestRouter(customerSnapshot(), func(d *RouterDeps) {
		d.RateLimiter = limiter
		d.Checkout = &mockCheckoutService{
			placeFn: func(context.Context, checkout.Request) (*model.Order, error) {
				placed++
				return &model.Order{ID: "o1"}, nil
			},
		}
	})

	for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{}`))
		req.Header.Set("Origin", testOrigin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, want)
		}
	}
	if placed != 1 {
		t.Errorf("PlaceOrder called %d times, want 1", placed)
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordSyncRun("ok")

	router := newTestRouter(session.Snapshot{}, func(d *RouterDeps) { d.Gatherer = reg })
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "storefront_sync_runs_total") {
		t.Errorf("metrics output missing sync counter:\n%s", w.Body.String())
	}
}

func TestRouter_MetricsDisabled(t *testing.T) {
	router := newTestRouter(session.Snapshot{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRouter_AdminOrderStatusUpdate(t *testing.T) {
	var gotID string
	var gotInput model.UpdateOrderStatusInput
	router := newTestRouter(adminSnapshot(), func(d *RouterDeps) {
		d.Admin = &mockAdminService{
			updateOrderStatusFn: func(_ context.Context, id string, in model.UpdateOrderStatusInput) (*model.Order, error) {
				gotID, gotInput = id, in
				return &model.Order{ID: id, Status: in.Status}, nil
			},
		}
	})

	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/ord-1/status",
		strings.NewReader(`{"status":"shipped","trackingId":"TRK1","carrier":"BlueDart"}`))
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotID != "ord-1" || gotInput.Status != model.OrderShipped || gotInput.TrackingID != "TRK1" {
		t.Errorf("UpdateOrderStatus called with id=%q input=%+v", gotID, gotInput)
	}
}

func TestRouter_AdminDeleteProduct(t *testing.T) {
	var deleted string
	router := newTestRouter(adminSnapshot(), func(d *RouterDeps) {
		d.Admin = &mockAdminService{
			deleteProductFn: func(_ context.Context, id string) error {
				deleted = id
				return nil
			},
		}
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/p-42", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if deleted != "p-42" {
		t.Errorf("deleted = %q, want p-42", deleted)
	}
}
