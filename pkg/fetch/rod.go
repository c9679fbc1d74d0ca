package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// ----------------------------------------------------------------------
// rod戦略
// ----------------------------------------------------------------------

// RodFetcher は、go-rod でページを取得する二つ目のブラウザ自動操作の Fetcher 実装です。
// chromedp と同様に一つのヘッドレスブラウザを共有し、フェッチごとに
// 新しいページ (タブ) を開きます。
type RodFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewRodFetcher は、ヘッドレスブラウザを起動して RodFetcher を生成します。
// 利用後は Close でブラウザを終了させる必要があります。
func NewRodFetcher(timeout time.Duration) (*RodFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("ヘッドレスブラウザの起動に失敗しました: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("ブラウザへの接続に失敗しました: %w", err)
	}

	return &RodFetcher{
		browser:  browser,
		launcher: l,
		timeout:  timeout,
	}, nil
}

// Name は Fetcher インターフェースのメソッドを実装します。
func (f *RodFetcher) Name() string {
	return StrategyRod
}

// Fetch は、新しいページで作品IDのあらすじページを開き、描画後のHTMLを返します。
func (f *RodFetcher) Fetch(ctx context.Context, id string) (string, error) {
	url := imdb.TitleURL(id)

	// 1. フェッチ専用のページを作成
	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("ブラウザページの作成に失敗しました (ID: %s): %w", id, err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      browserUserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		return "", fmt.Errorf("User-Agentの設定に失敗しました (ID: %s): %w", id, err)
	}

	// 2. ページを開き、あらすじセクションの描画まで待つ
	html, err := f.loadPage(ctx, page, url)
	if err != nil {
		return "", fmt.Errorf("ブラウザでのページ取得に失敗しました (ID: %s): %w", id, err)
	}

	// 3. チャレンジページの場合は一度だけ再読み込みを試す
	if imdb.IsChallengePage(html) {
		if err := page.Reload(); err != nil {
			return "", fmt.Errorf("チャレンジページの再読み込みに失敗しました (ID: %s): %w", id, err)
		}
		if err := page.WaitLoad(); err != nil {
			return "", fmt.Errorf("再読み込みの完了待機に失敗しました (ID: %s): %w", id, err)
		}
		html, err = f.waitForContent(ctx, page)
		if err != nil {
			return "", fmt.Errorf("再読み込み後のHTML取得に失敗しました (ID: %s): %w", id, err)
		}
		if imdb.IsChallengePage(html) {
			return "", &ChallengeError{ID: id}
		}
	}

	return html, nil
}

// loadPage は、URLへの遷移・読み込み完了待機・HTML取得を一括で行います。
func (f *RodFetcher) loadPage(ctx context.Context, page *rod.Page, url string) (string, error) {
	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return f.waitForContent(ctx, page)
}

// waitForContent は、あらすじセクションが描画されるまでHTMLの取得を繰り返します。
// 上限回数まで待っても描画されない場合は最後に取得したHTMLを返します
// (有効性の最終判断は保存前の検証に委ねます)。
func (f *RodFetcher) waitForContent(ctx context.Context, page *rod.Page) (string, error) {
	var html string
	for attempt := 0; ; attempt++ {
		h, err := page.HTML()
		if err != nil {
			return "", err
		}
		html = h
		if pageSettled(html) || attempt >= summariesPollAttempts {
			return html, nil
		}
		select {
		case <-time.After(summariesPollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close は、共有しているヘッドレスブラウザを終了させ、一時ファイルを掃除します。
func (f *RodFetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Cleanup()
	return err
}
