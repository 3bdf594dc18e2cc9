package model

import "time"

// MetalType は商品の地金の種類を表す。
type MetalType string

const (
	MetalGold     MetalType = "gold"
	MetalSilver   MetalType = "silver"
	MetalPlatinum MetalType = "platinum"
	MetalRoseGold MetalType = "rose_gold"
)

// ProductVariant はサイズ・重量ごとの商品バリエーション。
type ProductVariant struct {
	ID        string  `json:"id"`
	Size      string  `json:"size"`
	Weight    float64 `json:"weight"` // グラム
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	SKU       string  `json:"sku"`
	IsDefault bool    `json:"isDefault"`
}

// Product はカタログ上の商品を表す。
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description"`
	ShortDesc       string           `json:"shortDesc"`
	MetalType       MetalType        `json:"metalType"`
	Purity          string           `json:"purity"`
	CategoryID      string           `json:"categoryId"`
	CategoryName    string           `json:"categoryName"`
	Images          []string         `json:"images"`
	Thumbnail       string           `json:"thumbnail"`
	BasePrice       float64          `json:"basePrice"`
	DiscountPrice   float64          `json:"discountPrice"`
	DiscountPercent float64          `json:"discountPercent"`
	Variants        []ProductVariant `json:"variants"`
	Tags            []string         `json:"tags"`
	Features        []string         `json:"features"`
	IsFeatured      bool             `json:"isFeatured"`
	IsNewArrival    bool             `json:"isNewArrival"`
	IsBestSeller    bool             `json:"isBestSeller"`
	IsActive        bool             `json:"isActive"`
	Stock           int              `json:"stock"`
	Rating          float64          `json:"rating"`
	ReviewCount     int              `json:"reviewCount"`
	SellerID        string           `json:"sellerId"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// EffectivePrice は割引価格があればそれを、なければ基本価格を返す。
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice > 0 && p.DiscountPrice < p.BasePrice {
		return p.DiscountPrice
	}
	return p.BasePrice
}

// Category は商品カテゴリを表す。
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Icon        string `json:"icon"`
	ParentID    string `json:"parentId,omitempty"`
	IsActive    bool   `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
}

// Review は商品レビューを表す。
type Review struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserAvatar   string    `json:"userAvatar"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Comment      string    `json:"comment"`
	Images       []string  `json:"images"`
	IsVerified   bool      `json:"isVerified"`
	HelpfulCount int       `json:"helpfulCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductReviews は商品レビュー一覧APIのレスポンス。
type ProductReviews struct {
	Reviews   []Review `json:"reviews"`
	Count     int      `json:"count"`
	AvgRating float64  `json:"avgRating"`
}

// ReviewInput はレビュー投稿・更新APIのリクエストボディ。
type ReviewInput struct {
	ProductID string   `json:"productId,omitempty"`
	Rating    int      `json:"rating,omitempty"`
	Title     string   `json:"title,omitempty"`
	Comment   string   `json:"comment,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// ProductFilter は商品一覧の絞り込み条件。
// ゼロ値のフィールドはクエリパラメータに含めない。
type ProductFilter struct {
	MetalType  string
	CategoryID string
	MinPrice   float64
	MaxPrice   float64
	Purity     string
	Search     string
	IsFeatured string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}
