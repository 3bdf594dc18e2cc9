package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/storefront/internal/model"
)

// 商品一覧の既定値
const (
	DefaultSortBy    = "newest"
	DefaultSortOrder = "desc"
	DefaultLimit     = 12
)

// DefaultFilter は絞り込みなしの一覧条件を返す。
func DefaultFilter() model.ProductFilter {
	return model.ProductFilter{
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Page:      1,
		Limit:     DefaultLimit,
	}
}

// ParseFilter はクエリパラメータを絞り込み条件に変換する。
// 数値として解釈できない価格は未指定として扱い、ページは1未満なら1にする。
// 1ページあたりの件数はクエリでは変更できない。
func ParseFilter(v url.Values) model.ProductFilter {
	f := DefaultFilter()
	f.MetalType = strings.TrimSpace(v.Get("metalType"))
	f.CategoryID = strings.TrimSpace(v.Get("categoryId"))
	f.MinPrice = parsePrice(v.Get("minPrice"))
	f.MaxPrice = parsePrice(v.Get("maxPrice"))
	f.Purity = strings.TrimSpace(v.Get("purity"))
	f.Search = strings.TrimSpace(v.Get("search"))
	f.IsFeatured = strings.TrimSpace(v.Get("isFeatured"))

	if s := v.Get("sortBy"); s != "" {
		f.SortBy = s
	}
	if s := v.Get("sortOrder"); s == "asc" || s == "desc" {
		f.SortOrder = s
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 1 {
		f.Page = p
	}
	return f
}

// Normalize は未指定の並び順・ページ・件数に既定値を補う。
func Normalize(f model.ProductFilter) model.ProductFilter {
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if f.SortOrder == "" {
		f.SortOrder = DefaultSortOrder
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	return f
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}
