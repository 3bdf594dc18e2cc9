// Package pricing はカートの小計から税・送料・合計を算出する。
//
// 小計はサーバーが返したカートの合計をそのまま使い、クライアントでは再計算しない。
// 算出結果は表示のたびに求め直し、保存しない。
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
)

var (
	// TaxRate はGSTの税率（一律18%）。
	TaxRate = decimal.RequireFromString("0.18")
	// FreeShippingThreshold は送料無料になる小計の下限。
	FreeShippingThreshold = decimal.NewFromInt(5000)
	// ShippingFee は送料無料に満たない場合の一律送料。
	ShippingFee = decimal.NewFromInt(199)
)

func init() {
	// 金額はJSONの数値として出力する（例: "tax":899.82）。
	decimal.MarshalJSONWithoutQuotes = true
}

// Breakdown は価格の内訳。金額はすべてINR。
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shippingCost"`
	Total    decimal.Decimal `json:"total"`
}

// FreeShipping は送料無料かどうかを返す。
func (b Breakdown) FreeShipping() bool {
	return b.Shipping.IsZero()
}

// Calculate は小計から内訳を求める。
// 途中で丸めを行わず、10進数で正確に計算する。
func Calculate(subtotal float64) Breakdown {
	sub := decimal.NewFromFloat(subtotal)
	tax := sub.Mul(TaxRate)

	shipping := ShippingFee
	if sub.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Breakdown{
		Subtotal: sub,
		Tax:      tax,
		Shipping: shipping,
		Total:    sub.Add(tax).Add(shipping),
	}
}

// FromCart はカートの合計を小計として内訳を求める。カートがnilの場合は小計0として扱う。
func FromCart(c *model.Cart) Breakdown {
	if c == nil {
		return Calculate(0)
	}
	return Calculate(c.Total)
}

// FreeShippingGap は送料無料まであといくら必要かを返す。達している場合は0。
func FreeShippingGap(subtotal float64) decimal.Decimal {
	gap := FreeShippingThreshold.Sub(decimal.NewFromFloat(subtotal))
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap
}
