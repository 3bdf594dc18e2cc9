package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indianEnglish = language.MustParse("en-IN")

// FormatINR は金額を表示用の文字列に変換する（例: ₹6,098）。
// 小数部は表示せず、インド式の桁区切りを使用する。
func FormatINR(amount decimal.Decimal) string {
	p := message.NewPrinter(indianEnglish)
	v, _ := amount.Round(0).Float64()
	return "₹" + p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}
