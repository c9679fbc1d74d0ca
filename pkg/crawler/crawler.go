package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shouni/go-imdb-crawl/pkg/fetch"
	"github.com/shouni/go-imdb-crawl/pkg/imdb"
	"github.com/shouni/go-imdb-crawl/pkg/storage"
	"github.com/shouni/go-imdb-crawl/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列クロールのデフォルトの最大同時実行数を定義します。
	DefaultMaxConcurrency = 6
	// DefaultCrawlRateLimit は、リクエスト間隔のレートリミッターを定義します。
	DefaultCrawlRateLimit = 1000 * time.Millisecond
)

// Crawler は作品IDの一括クロール機能を提供するインターフェースです。
type Crawler interface {
	CrawlAll(ctx context.Context, ids []string) []types.FetchResult
}

// Validator は、取得したHTMLが保存に値する有効なページであるかを検証する
// 機能のインターフェースを定義します。
type Validator interface {
	Validate(id, html string) error
}

// BatchCrawler は Crawler インターフェースを実装する並列処理構造体です。
// 有限のID列に対して、注入されたフェッチ戦略によるページ取得と、
// 注入された Writer によるファイル保存を、上限付きの並列度で実行します。
type BatchCrawler struct {
	fetcher        fetch.Fetcher  // ページ取得戦略 (http / chromedp / rod)
	writer         storage.Writer // 取得したHTMLの保存先
	validator      Validator      // 保存前のコンテンツ検証 (nilの場合は検証なし)
	maxConcurrency int            // 最大並列数を保持するフィールド
	rateLimit      time.Duration  // レートリミッターを保持するフィールド
}

// Option は BatchCrawler の任意設定を行うための関数型です。
type Option func(*BatchCrawler)

// WithValidator は、フェッチ結果を保存する前に実行するコンテンツ検証を設定します。
// 検証に失敗したページはファイルに書き込まれず、失敗として記録されます。
func WithValidator(v Validator) Option {
	return func(c *BatchCrawler) {
		c.validator = v
	}
}

// NewBatchCrawler は BatchCrawler を初期化します。
// 依存性として Fetcher と Writer、最大同時実行数、リクエスト間隔を受け取ります。
func NewBatchCrawler(fetcher fetch.Fetcher, writer storage.Writer, maxConcurrency int, rateLimit time.Duration, options ...Option) *BatchCrawler {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if rateLimit <= 0 {
		rateLimit = DefaultCrawlRateLimit
	}
	c := &BatchCrawler{
		fetcher:        fetcher,
		writer:         writer,
		maxConcurrency: maxConcurrency,
		rateLimit:      rateLimit,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CrawlAll は Crawler インターフェースのメソッドを実装します。
// 各IDはちょうど一つのワーカーで一度だけ処理されます。完了順序は保証されません。
// 一件の失敗は他のIDの処理を妨げず、結果のErrorフィールドに記録されます。
func (c *BatchCrawler) CrawlAll(ctx context.Context, ids []string) []types.FetchResult {
	var wg sync.WaitGroup
	resultsChan := make(chan types.FetchResult, len(ids))

	// バッファ付きチャネルをセマフォとして使用し、同時実行数を制限する
	semaphore := make(chan struct{}, c.maxConcurrency)

	ticker := time.NewTicker(c.rateLimit)
	defer ticker.Stop()
	rateLimiter := ticker.C

	for _, id := range ids {
		wg.Add(1)

		// リソース（スロット）の確保。maxConcurrency件実行中の場合はここでブロックして待機。
		semaphore <- struct{}{}

		go func(id string) {
			defer wg.Done()

			// 処理完了後にリソース（スロット）を解放。他の待機中のGoroutineが実行可能になる。
			defer func() { <-semaphore }()

			select {
			case <-rateLimiter:
				// レートリミット間隔が経過し、リクエストが許可された
			case <-ctx.Done():
				resultsChan <- types.FetchResult{
					ID:    id,
					URL:   imdb.TitleURL(id),
					Error: ctx.Err(),
				}
				return
			}

			resultsChan <- c.crawlOne(ctx, id)
		}(id)
	}

	wg.Wait()
	close(resultsChan)

	var finalResults []types.FetchResult
	for res := range resultsChan {
		finalResults = append(finalResults, res)
	}

	return finalResults
}

// crawlOne は、単一の作品IDに対するフェッチ・検証・保存を実行します。
// 検証に失敗したページはファイルに書き込みません。
func (c *BatchCrawler) crawlOne(ctx context.Context, id string) types.FetchResult {
	result := types.FetchResult{
		ID:  id,
		URL: imdb.TitleURL(id),
	}

	html, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		result.Error = fmt.Errorf("ページの取得に失敗しました: %w", err)
		return result
	}
	result.ContentSize = len(html)

	if c.validator != nil {
		if err := c.validator.Validate(id, html); err != nil {
			result.Error = fmt.Errorf("取得したページの検証に失敗しました: %w", err)
			return result
		}
	}

	path, err := c.writer.WriteHTML(id, html)
	if err != nil {
		result.Error = fmt.Errorf("ページの保存に失敗しました: %w", err)
		return result
	}
	result.Path = path

	// HTMLはファイルへ書き出した時点で役目を終えるため、結果には保持しない
	return result
}
