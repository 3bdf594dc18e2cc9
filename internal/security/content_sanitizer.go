// Package security はビューに渡すコンテンツの無害化を提供する。
//
// 商品説明はバックエンドの管理画面から入力されたHTMLで、レビュー本文は利用者が
// 投稿したテキスト。いずれもビューに渡す前に許可リスト方式で無害化する。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はHTMLコンテンツの無害化のインターフェース。
type ContentSanitizer interface {
	// Sanitize は商品説明のHTMLを無害化する。
	// 許可タグ（p, br, ul, ol, li, strong, em, b, i, h3, h4, blockquote, a, img）のみを通過させる。
	// imgのsrcとaのhrefはhttpsのみ許可し、aには target="_blank" と rel="noopener noreferrer" を付与する。
	Sanitize(rawHTML string) string
	// StripTags はすべてのタグを除去してテキストのみを返す。レビュー本文に使用する。
	StripTags(text string) string
}

type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
// ポリシーは生成時に一度だけ構築し、以降はスレッドセーフに使用できる。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style と on* 属性は許可リストに含めないことで除去される
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "b", "i",
		"h3", "h4", "blockquote",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(*url.URL) bool {
		return true
	})

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.rich.Sanitize(rawHTML)
}

func (s *contentSanitizer) StripTags(text string) string {
	return s.strict.Sanitize(text)
}
