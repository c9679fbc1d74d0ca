package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

const (
	// DefaultHTTPTimeout は、デフォルトのHTTPタイムアウトです。
	DefaultHTTPTimeout = 30 * time.Second

	// SessionCookieName は、対象サイトのログインセッションを表すCookie名です。
	// 値は運用者がブラウザでログインして手動で取得し、起動時に渡します。
	SessionCookieName = "at-main"
)

// defaultUserAgents は、サイトからのブロックを避けるためにローテーションするUser-Agent群です。
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; WOW64; rv:91.0) Gecko/20100101 Firefox/91.0",
}

// ----------------------------------------------------------------------
// ヘッダー注入 Doer
// ----------------------------------------------------------------------

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// headerInjector は、各リクエストに認証Cookieとブラウザ擬装ヘッダーを付与する Doer です。
// httpkit.Client にカスタムDoerとして注入することで、リトライや
// レスポンス処理は httpkit に任せたまま、ヘッダーの責務だけを担います。
type headerInjector struct {
	base       Doer
	cookie     string
	userAgents []string
}

func (d *headerInjector) Do(req *http.Request) (*http.Response, error) {
	// User-Agent はリクエストごとにランダムに選ぶ
	req.Header.Set("User-Agent", d.userAgents[rand.Intn(len(d.userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.imdb.com/")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if d.cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: d.cookie})
	}

	return d.base.Do(req)
}

// ----------------------------------------------------------------------
// HTTP戦略
// ----------------------------------------------------------------------

// HTTPFetcher は、直接HTTPリクエストでページを取得する Fetcher 実装です。
// 認証には外部から渡されたセッションCookieを使用します (ログイン処理は自動化しません)。
type HTTPFetcher struct {
	client *httpkit.Client
}

// HTTPOption はHTTPFetcherの設定を行うための関数型です。
type HTTPOption func(*httpConfig)

type httpConfig struct {
	baseDoer   Doer
	userAgents []string
}

// WithBaseDoer はヘッダー注入後にリクエストを実行する下位のDoerを差し替えます。
// 主にテストからモックを注入するために使用します。
func WithBaseDoer(doer Doer) HTTPOption {
	return func(c *httpConfig) {
		c.baseDoer = doer
	}
}

// WithUserAgents はローテーション対象のUser-Agent群を差し替えます。
func WithUserAgents(agents []string) HTTPOption {
	return func(c *httpConfig) {
		if len(agents) > 0 {
			c.userAgents = agents
		}
	}
}

// NewHTTPFetcher は、新しい HTTPFetcher を生成します。
// cookie はセッションCookieの値です。リトライは上位の RetryFetcher が
// 一元管理するため、内部の httpkit のリトライは無効化しています。
func NewHTTPFetcher(timeout time.Duration, cookie string, options ...HTTPOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	cfg := &httpConfig{
		baseDoer:   &http.Client{Timeout: timeout},
		userAgents: defaultUserAgents,
	}
	for _, opt := range options {
		opt(cfg)
	}

	injector := &headerInjector{
		base:       cfg.baseDoer,
		cookie:     cookie,
		userAgents: cfg.userAgents,
	}

	client := httpkit.New(
		timeout,
		httpkit.WithHTTPClient(injector),
		httpkit.WithMaxRetries(0),
	)

	return &HTTPFetcher{client: client}
}

// Name は Fetcher インターフェースのメソッドを実装します。
func (f *HTTPFetcher) Name() string {
	return StrategyHTTP
}

// Fetch は、作品IDのあらすじページを取得し、HTMLを文字列として返します。
func (f *HTTPFetcher) Fetch(ctx context.Context, id string) (string, error) {
	url := imdb.TitleURL(id)

	body, err := f.client.FetchBytes(ctx, url)
	if err != nil {
		return "", fmt.Errorf("ページの取得に失敗しました (ID: %s): %w", id, err)
	}

	html := string(body)
	if imdb.IsChallengePage(html) {
		return "", &ChallengeError{ID: id}
	}

	return html, nil
}
