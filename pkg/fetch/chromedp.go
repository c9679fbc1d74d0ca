package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

const (
	// DefaultBrowserTimeout は、1ページあたりのブラウザ操作のタイムアウトです。
	DefaultBrowserTimeout = 30 * time.Second

	// browserUserAgent は、ブラウザ戦略で使用するUser-Agentです。
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

	// あらすじセクションの描画待ちポーリングの上限回数と間隔
	summariesPollAttempts = 5
	summariesPollInterval = 500 * time.Millisecond
)

// pageSettled は、HTMLがそれ以上待っても変化しない状態に達したかを判定します。
// あらすじセクションが描画済みの場合と、チャレンジページが確定した場合に true を返します。
func pageSettled(html string) bool {
	if imdb.IsChallengePage(html) {
		return true
	}
	hasSummaries, _, err := imdb.ProbeSummaries(html)
	if err != nil {
		return false
	}
	return hasSummaries
}

// blockedResourcePatterns は、ページ取得を高速化するために読み込みを遮断するリソースです。
// HTMLの保存には不要な画像・スタイル・フォントを対象とします。
var blockedResourcePatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.css", "*.woff", "*.woff2", "*.ttf",
}

// ----------------------------------------------------------------------
// chromedp戦略
// ----------------------------------------------------------------------

// ChromeFetcher は、chromedp (Chrome DevTools Protocol) でページを取得する Fetcher 実装です。
// 一つのヘッドレスブラウザを共有し、フェッチごとに新しいタブを開きます。
// タブのコンテキストは独立しているため、複数ワーカーからの同時呼び出しが可能です。
type ChromeFetcher struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
	timeout    time.Duration
}

// NewChromeFetcher は、ヘッドレスブラウザを起動して ChromeFetcher を生成します。
// 利用後は Close でブラウザを終了させる必要があります。
func NewChromeFetcher(timeout time.Duration) (*ChromeFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(browserUserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// 空のタスクを実行してブラウザプロセスを先に起動しておく
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("ヘッドレスブラウザの起動に失敗しました: %w", err)
	}

	return &ChromeFetcher{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{browserCancel, allocCancel},
		timeout:    timeout,
	}, nil
}

// Name は Fetcher インターフェースのメソッドを実装します。
func (f *ChromeFetcher) Name() string {
	return StrategyChromedp
}

// Fetch は、新しいタブで作品IDのあらすじページを開き、描画後のHTMLを返します。
// チャレンジページが返された場合は一度だけ再読み込みを試し、それでも
// 解消しない場合は ChallengeError を返します。
func (f *ChromeFetcher) Fetch(ctx context.Context, id string) (string, error) {
	url := imdb.TitleURL(id)

	// 1. フェッチ専用のタブコンテキストを作成
	tabCtx, tabCancel := chromedp.NewContext(f.browserCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, f.timeout)
	defer timeoutCancel()

	// 呼び出し元コンテキストのキャンセルをタブに伝播させる
	stop := propagateCancel(ctx, tabCancel)
	defer stop()

	// 2. 不要リソースを遮断してページを開き、あらすじセクションの描画を待つ
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedResourcePatterns),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("ブラウザでのページ取得に失敗しました (ID: %s): %w", id, err)
	}
	html, err := f.waitForContent(tabCtx)
	if err != nil {
		return "", fmt.Errorf("ブラウザでのページ取得に失敗しました (ID: %s): %w", id, err)
	}

	// 3. チャレンジページの場合は一度だけ再読み込みを試す
	if imdb.IsChallengePage(html) {
		err := chromedp.Run(tabCtx,
			chromedp.Reload(),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
		if err != nil {
			return "", fmt.Errorf("チャレンジページの再読み込みに失敗しました (ID: %s): %w", id, err)
		}
		html, err = f.waitForContent(tabCtx)
		if err != nil {
			return "", fmt.Errorf("チャレンジページの再読み込みに失敗しました (ID: %s): %w", id, err)
		}
		if imdb.IsChallengePage(html) {
			return "", &ChallengeError{ID: id}
		}
	}

	return html, nil
}

// waitForContent は、あらすじセクションが描画されるまでHTMLの取得を繰り返します。
// Reactで描画されるページでは body の準備完了後も本文のマウントが遅れることがあるため、
// 上限回数までポーリングします。上限に達した場合は最後に取得したHTMLを返します
// (有効性の最終判断は保存前の検証に委ねます)。
func (f *ChromeFetcher) waitForContent(tabCtx context.Context) (string, error) {
	var html string
	for attempt := 0; ; attempt++ {
		if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return "", err
		}
		if pageSettled(html) || attempt >= summariesPollAttempts {
			return html, nil
		}
		if err := chromedp.Run(tabCtx, chromedp.Sleep(summariesPollInterval)); err != nil {
			return "", err
		}
	}
}

// Close は、共有しているヘッドレスブラウザを終了させます。
func (f *ChromeFetcher) Close() error {
	for _, cancel := range f.cancels {
		cancel()
	}
	return nil
}

// propagateCancel は、親コンテキストのキャンセルを cancel 関数に伝播させます。
// 返される stop 関数を呼ぶと監視を終了します。
func propagateCancel(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
