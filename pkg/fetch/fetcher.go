package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// ----------------------------------------------------------------------
// フェッチ戦略のインターフェース定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、作品IDに対応するページのHTMLを取得する機能のインターフェースを定義します。
// Crawler は、この抽象に依存します。具象実装は三種類あります:
//   - HTTPFetcher:   認証Cookie付きの直接HTTPリクエスト
//   - ChromeFetcher: chromedp によるヘッドレスブラウザ自動操作
//   - RodFetcher:    go-rod によるヘッドレスブラウザ自動操作
type Fetcher interface {
	// Name は戦略の識別子を返します (例: "http", "chromedp", "rod")。
	Name() string

	// Fetch は、作品IDに対応するページのHTMLを取得します。
	Fetch(ctx context.Context, id string) (html string, err error)
}

// ----------------------------------------------------------------------
// エラー定義
// ----------------------------------------------------------------------

// ChallengeError は、ボット対策のチャレンジページが返されたことを示すカスタムエラー型です。
// ページの再読み込みで解消することがあるため、リトライ対象として扱われます。
type ChallengeError struct {
	ID string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("ボット対策のチャレンジページが返されました (ID: %s)", e.ID)
}

// IsChallengeError は与えられたエラーがチャレンジページ起因であるかを判断します。
func IsChallengeError(err error) bool {
	var ce *ChallengeError
	return errors.As(err, &ce)
}

// isRetryableFetchError はエラーがリトライ対象かどうかを判定します。
// この関数は retry.ShouldRetryFunc 型のシグネチャを満たします。
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	// 4xx 系の非リトライ対象エラーはリトライしない
	if httpkit.IsNonRetryableError(err) {
		return false
	}

	// ネットワークエラー、5xxエラー、ブラウザ障害、チャレンジページはすべてリトライ対象
	return true
}
