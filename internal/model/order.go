package model

import "time"

// OrderStatus は注文ステータス。
// クライアントはサーバーが報告した値を表示するだけで、ローカルで遷移させない。
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// OrderStatuses は定義済みの注文ステータスを表示順に並べたもの。
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
	OrderRefunded,
}

// Valid は定義済みのステータスかどうかを返す。
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// PaymentStatus は支払いステータス。
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod は支払い方法。
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

// Valid は定義済みの支払い方法かどうかを返す。
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}

// OrderItem は注文明細を表す。
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Thumbnail   string  `json:"thumbnail"`
	VariantID   string  `json:"variantId,omitempty"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	TotalPrice  float64 `json:"totalPrice"`
}

// ShippingInfo は注文の配送情報。
type ShippingInfo struct {
	Address       Address   `json:"address"`
	Method        string    `json:"method"`
	Cost          float64   `json:"cost"`
	TrackingID    string    `json:"trackingId"`
	Carrier       string    `json:"carrier"`
	EstimatedDate time.Time `json:"estimatedDate"`
}

// PaymentInfo は注文の支払い情報。
type PaymentInfo struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId"`
	PaidAt        time.Time     `json:"paidAt"`
}

// Order は注文を表す。クライアントからは読み取り専用。
type Order struct {
	ID           string       `json:"id"`
	OrderNumber  string       `json:"orderNumber"`
	UserID       string       `json:"userId"`
	UserEmail    string       `json:"userEmail"`
	UserName     string       `json:"userName"`
	Items        []OrderItem  `json:"items"`
	Subtotal     float64      `json:"subtotal"`
	Tax          float64      `json:"tax"`
	Discount     float64      `json:"discount"`
	CouponCode   string       `json:"couponCode"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
	Total        float64      `json:"total"`
	Status       OrderStatus  `json:"status"`
	Notes        string       `json:"notes"`
	CancelReason string       `json:"cancelReason"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// CreateOrderInput は注文作成APIのリクエストボディ。
type CreateOrderInput struct {
	AddressID      string        `json:"addressId"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	ShippingMethod string        `json:"shippingMethod,omitempty"`
	CouponCode     string        `json:"couponCode,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

// UpdateOrderStatusInput は管理者による注文ステータス更新APIのリクエストボディ。
type UpdateOrderStatusInput struct {
	Status       OrderStatus `json:"status"`
	TrackingID   string      `json:"trackingId,omitempty"`
	Carrier      string      `json:"carrier,omitempty"`
	CancelReason string      `json:"cancelReason,omitempty"`
}
