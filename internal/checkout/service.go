// Package checkout は注文の確定・注文履歴・キャンセルを提供する。
//
// 注文ステータスはサーバーが報告した値を表示するだけで、ローカルでは遷移させない。
package checkout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
)

// ShippingMethod は注文時に指定する配送方法。
const ShippingMethod = "standard"

// OrdersBackend はチェックアウトが使用するバックエンドAPI。
// *api.OrdersAPI がこれを満たす。
type OrdersBackend interface {
	List(ctx context.Context) ([]model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	Create(ctx context.Context, in model.CreateOrderInput) (*model.Order, error)
	Cancel(ctx context.Context, id, reason string) error
}

// CartStore は注文対象のカート。*cart.Store がこれを満たす。
type CartStore interface {
	Cart() *model.Cart
	ClearCart(ctx context.Context) error
}

// SessionStore は注文者のセッション。*session.Store がこれを満たす。
type SessionStore interface {
	User() *model.User
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) error
}

// Request は注文確定の入力。
type Request struct {
	// AddressID が空の場合はユーザーの既定の住所を使用する
	AddressID     string              `json:"addressId"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Notes         string              `json:"notes,omitempty"`
}

// Service はチェックアウトのサービス。
type Service struct {
	orders  OrdersBackend
	cart    CartStore
	session SessionStore
	logger  *slog.Logger
}

// NewService はServiceを生成する。
func NewService(orders OrdersBackend, cart CartStore, session SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, cart: cart, session: session, logger: logger}
}

// DefaultAddress は既定の住所のIDを返す。既定がなければ先頭の住所、住所がなければ空文字列とfalse。
func DefaultAddress(u *model.User) (string, bool) {
	if u == nil || len(u.Addresses) == 0 {
		return "", false
	}
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a.ID, true
		}
	}
	return u.Addresses[0].ID, true
}

// Preview は現在のカートの価格内訳を返す。
func (s *Service) Preview() pricing.Breakdown {
	return pricing.FromCart(s.cart.Cart())
}

// PlaceOrder は注文を確定する。
// 空のカートと住所未選択はバックエンドを呼び出さずに拒否する。
// 成功後はカートを空にするが、その失敗は注文の結果に影響させない。
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*model.Order, error) {
	c := s.cart.Cart()
	if c == nil || len(c.Items) == 0 {
		return nil, model.NewEmptyCartError()
	}

	addressID := req.AddressID
	if addressID == "" {
		addressID, _ = DefaultAddress(s.session.User())
	}
	if addressID == "" {
		return nil, model.NewAddressRequiredError()
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentCOD
	}
	if !method.Valid() {
		return nil, model.NewInvalidPaymentMethodError(string(method))
	}

	order, err := s.orders.Create(ctx, model.CreateOrderInput{
		AddressID:      addressID,
		PaymentMethod:  method,
		ShippingMethod: ShippingMethod,
		CouponCode:     req.CouponCode,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, model.WithFallback(err, "Failed to place order")
	}

	if err := s.cart.ClearCart(ctx); err != nil {
		s.logger.Warn("注文後のカートのクリアに失敗しました",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.Info("注文を確定しました",
		slog.String("order_id", order.ID),
		slog.String("payment_method", string(method)),
	)
	return order, nil
}

// AddAddress は住所を追加してプロフィールを更新する。
// 新しい住所のIDはクライアントで採番する。
func (s *Service) AddAddress(ctx context.Context, addr model.Address) error {
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" || strings.TrimSpace(addr.ZipCode) == "" ||
		strings.TrimSpace(addr.Phone) == "" {
		return model.NewInvalidRequestError("Please fill all required fields")
	}
	if addr.Type == "" {
		addr.Type = "home"
	}
	if addr.Country == "" {
		addr.Country = "India"
	}
	addr.ID = uuid.NewString()

	var addresses []model.Address
	if u := s.session.User(); u != nil {
		addresses = append(addresses, u.Addresses...)
	}
	addresses = append(addresses, addr)
	return s.session.UpdateProfile(ctx, model.ProfileUpdate{Addresses: addresses})
}

// Orders は注文履歴を返す。
func (s *Service) Orders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, model.WithFallback(err, "Failed to load orders")
	}
	return orders, nil
}

// Order は注文詳細を返す。
func (s *Service) Order(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, model.WithFallback(err, "Order not found")
	}
	return order, nil
}

// CancelOrder は注文をキャンセルする。キャンセル可否はバックエンドが判断する。
func (s *Service) CancelOrder(ctx context.Context, id, reason string) error {
	if err := s.orders.Cancel(ctx, id, reason); err != nil {
		return model.WithFallback(err, "Failed to cancel order")
	}
	return nil
}
