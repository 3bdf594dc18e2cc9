package model

import "time"

// CartItem はカートの明細行を表す。
// 更新・削除時の識別キーはProductIDのみで、VariantIDは表示用の情報に過ぎない。
type CartItem struct {
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Thumbnail   string    `json:"thumbnail"`
	VariantID   string    `json:"variantId,omitempty"`
	Size        string    `json:"size,omitempty"`
	Price       float64   `json:"price"` // 追加時点の単価
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"addedAt"`
}

// Cart はサーバーが所有するカート集約。
// Totalはサーバーが計算した小計（税・送料抜き）で、クライアントは再計算しない。
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// AddToCartInput はカート追加APIのリクエストボディ。
type AddToCartInput struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// WishlistProduct はウィッシュリストに保持する商品サマリー。
type WishlistProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Thumbnail     string    `json:"thumbnail"`
	BasePrice     float64   `json:"basePrice"`
	DiscountPrice float64   `json:"discountPrice"`
	MetalType     MetalType `json:"metalType"`
	IsActive      bool      `json:"isActive"`
	Stock         int       `json:"stock"`
}

// Wishlist はウィッシュリスト取得APIのレスポンス。
type Wishlist struct {
	Products []WishlistProduct `json:"products"`
}
