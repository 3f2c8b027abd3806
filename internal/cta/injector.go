// Package cta は記事末尾への販促ブロック挿入を提供する。
package cta

import (
	"regexp"
	"strings"
)

// purchaseButtonRe は購入ボタンのHTMLパターン。
// class属性にpurchase-buttonを持つアンカータグ全体と照合する。
var purchaseButtonRe = regexp.MustCompile(`(?is)<a\b[^>]*class="[^"]*purchase-button[^"]*"[^>]*>.*?</a>`)

// separator は最後の購入ボタンの直後に挿入する視覚的な区切り。
const separator = `<hr class="cta-separator" />`

// promoBlock は記事末尾へ無条件に追加する固定の販促ブロック。
// チャット招待リンクとQRコードの開閉表示を含む。
const promoBlock = `
<div class="cta-promo">
<p>最新情報をいち早く受け取りたい方は、公式チャットにご参加ください。</p>
<p><a href="https://line.me/ti/g2/blogpilot-official" rel="nofollow">チャットに参加する</a></p>
<details>
<summary>QRコードで参加する</summary>
<p><img src="/images/cta-qr.png" alt="チャット参加用QRコード" /></p>
</details>
</div>`

// Injector は商品記事への販促ブロック挿入を行う。
type Injector struct{}

// NewInjector はInjectorを生成する。
func NewInjector() *Injector {
	return &Injector{}
}

// IntegrateWithProductArticle は本文中の最後の購入ボタンの直後に区切りを
// 挿入し、末尾に固定の販促ブロックを追加する。購入ボタンが見つからない
// 場合は区切りの挿入だけを省略する。純粋な文字列変換で失敗しない。
func (i *Injector) IntegrateWithProductArticle(content string) string {
	out := content

	if locs := purchaseButtonRe.FindAllStringIndex(out, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		out = out[:last[1]] + "\n" + separator + out[last[1]:]
	}

	return strings.TrimRight(out, "\n") + "\n" + promoBlock
}
