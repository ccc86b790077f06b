// Package security は投稿テキストのサニタイズと外部取得時のSSRF防止を提供する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextSanitizer は会員が入力したテキストとニュース要約を安全な形に整える。
type TextSanitizer interface {
	// PlainText はタグをすべて除去し、前後の空白を落としたプレーンテキストを返す。
	// 戻り値はエスケープされていない文字列で、表示側のテンプレートでエスケープする。
	PlainText(input string) string
	// Summary はニュース要約HTMLを許可リストで絞り込んだHTMLを返す。
	Summary(rawHTML string) string
}

// Sanitizer はbluemondayのポリシーを保持するTextSanitizerの実装。
// ポリシーは生成後に変更しないため、複数goroutineから安全に使える。
type Sanitizer struct {
	strict  *bluemonday.Policy
	summary *bluemonday.Policy
}

// NewSanitizer はSanitizerを生成する。
//
// 要約ポリシー:
//   - 許可タグ: p, br, a, ul, ol, li, strong, em
//   - aのhrefは絶対URLのみ。target="_blank"とrel="noopener noreferrer"を付与
//   - 画像・埋め込みは許可しない
func NewSanitizer() *Sanitizer {
	summary := bluemonday.NewPolicy()
	summary.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")
	summary.AllowAttrs("href").OnElements("a")
	summary.AllowRelativeURLs(false)
	summary.AllowURLSchemeWithCustomPolicy("https", func(*url.URL) bool { return true })
	summary.AllowURLSchemeWithCustomPolicy("http", func(*url.URL) bool { return true })
	summary.AddTargetBlankToFullyQualifiedLinks(true)
	summary.RequireNoReferrerOnLinks(true)

	return &Sanitizer{
		strict:  bluemonday.StrictPolicy(),
		summary: summary,
	}
}

// PlainText はタグを除去したテキストを返す。
// StrictPolicyは特殊文字を実体参照に変換するため、保存前に元へ戻す。
// HTMLで定義された名前のタグだけを除去対象とし、"x<zz и yy>w" のような文中の山括弧は残す。
func (s *Sanitizer) PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(escapeUnknownTags(input))))
}

// escapeUnknownTags はatomに登録のない名前(要素名・属性名のどちらでもないもの)の
// タグ風の並びを文字としてエスケープする。"<b и c>" はタグとして扱われる。
func escapeUnknownTags(input string) string {
	if !strings.Contains(input, "<") {
		return input
	}

	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return b.String()
		}
		raw := string(z.Raw())
		switch tt {
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == 0 {
				raw = html.EscapeString(raw)
			}
		}
		b.WriteString(raw)
	}
}

// Summary はニュース要約HTMLをサニタイズする。
func (s *Sanitizer) Summary(rawHTML string) string {
	return strings.TrimSpace(s.summary.Sanitize(rawHTML))
}

// compile-time interface check
var _ TextSanitizer = (*Sanitizer)(nil)
