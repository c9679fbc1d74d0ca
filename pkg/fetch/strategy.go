package fetch

import (
	"fmt"
	"time"
)

// 利用可能なフェッチ戦略の識別子
const (
	StrategyHTTP     = "http"
	StrategyChromedp = "chromedp"
	StrategyRod      = "rod"
)

// Options は、戦略の構築に必要な設定を保持します。
type Options struct {
	Timeout time.Duration // 1ページあたりの取得タイムアウト
	Cookie  string        // セッションCookieの値 (HTTP戦略のみ必須)
}

// New は、識別子に対応するフェッチ戦略を構築します。
// ブラウザ戦略の場合はヘッドレスブラウザが起動されるため、利用後に
// Close (実装されていれば) を呼び出してリソースを解放する必要があります。
func New(strategy string, opts Options) (Fetcher, error) {
	switch strategy {
	case StrategyHTTP:
		if opts.Cookie == "" {
			return nil, fmt.Errorf("http戦略にはセッションCookieが必要です。ブラウザでログインして --cookie で渡してください")
		}
		return NewHTTPFetcher(opts.Timeout, opts.Cookie), nil

	case StrategyChromedp:
		return NewChromeFetcher(opts.Timeout)

	case StrategyRod:
		return NewRodFetcher(opts.Timeout)

	default:
		return nil, fmt.Errorf("不明なフェッチ戦略です: %s (http / chromedp / rod のいずれかを指定してください)", strategy)
	}
}
