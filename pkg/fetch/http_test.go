package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingDoer は、受け取ったリクエストを記録して固定レスポンスを返す Doer です。
type capturingDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	response *http.Response
	err      error
}

func (d *capturingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()
	return d.response, d.err
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

// validHTML は、長さ検証を気にせず使える十分に長いテスト用HTMLを返します。
func validHTML(id string) string {
	return "<html><head><title>" + id + "</title></head><body>" +
		strings.Repeat("plot summary ", 10) + "</body></html>"
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("successful fetch", func(t *testing.T) {
		body := validHTML("tt0111161")
		doer := &capturingDoer{response: htmlResponse(http.StatusOK, body)}

		fetcher := NewHTTPFetcher(0, "テストCookie値", WithBaseDoer(doer))
		html, err := fetcher.Fetch(ctx, "tt0111161")

		require.NoError(t, err)
		assert.Equal(t, body, html)

		// リクエストの検証
		require.Len(t, doer.requests, 1)
		req := doer.requests[0]
		assert.Equal(t, "https://www.imdb.com/title/tt0111161/plotsummary/", req.URL.String())
		assert.Equal(t, "https://www.imdb.com/", req.Header.Get("Referer"))
		assert.Equal(t, "en-US,en;q=0.9", req.Header.Get("Accept-Language"))

		// セッションCookieが付与されていること
		cookie, err := req.Cookie(SessionCookieName)
		require.NoError(t, err)
		assert.Equal(t, "テストCookie値", cookie.Value)

		// User-Agentがローテーション対象のいずれかであること
		assert.Contains(t, defaultUserAgents, req.Header.Get("User-Agent"))
	})

	t.Run("cookie omitted when empty", func(t *testing.T) {
		doer := &capturingDoer{response: htmlResponse(http.StatusOK, validHTML("tt0111161"))}

		fetcher := NewHTTPFetcher(0, "", WithBaseDoer(doer))
		_, err := fetcher.Fetch(ctx, "tt0111161")

		require.NoError(t, err)
		require.Len(t, doer.requests, 1)
		_, cerr := doer.requests[0].Cookie(SessionCookieName)
		assert.Error(t, cerr, "Cookieが空の場合はヘッダーに付与しない")
	})

	t.Run("challenge page returns ChallengeError", func(t *testing.T) {
		body := "<html><body><div class=\"challenge-container\">please verify</div></body></html>"
		doer := &capturingDoer{response: htmlResponse(http.StatusOK, body)}

		fetcher := NewHTTPFetcher(0, "テストCookie値", WithBaseDoer(doer))
		html, err := fetcher.Fetch(ctx, "tt0111161")

		require.Error(t, err)
		assert.Empty(t, html)
		assert.True(t, IsChallengeError(err))
	})

	t.Run("network error", func(t *testing.T) {
		doer := &capturingDoer{err: errors.New("接続エラー")}

		fetcher := NewHTTPFetcher(0, "テストCookie値", WithBaseDoer(doer))
		html, err := fetcher.Fetch(ctx, "tt0111161")

		require.Error(t, err)
		assert.Empty(t, html)
		// 内部のリトライは無効化されているため、呼び出しは1回のみ
		assert.Len(t, doer.requests, 1)
	})

	t.Run("custom user agents", func(t *testing.T) {
		agents := []string{"テスト用UA/1.0"}
		doer := &capturingDoer{response: htmlResponse(http.StatusOK, validHTML("tt0111161"))}

		fetcher := NewHTTPFetcher(0, "テストCookie値", WithBaseDoer(doer), WithUserAgents(agents))
		_, err := fetcher.Fetch(ctx, "tt0111161")

		require.NoError(t, err)
		require.Len(t, doer.requests, 1)
		assert.Equal(t, "テスト用UA/1.0", doer.requests[0].Header.Get("User-Agent"))
	})
}

func TestHTTPFetcher_Name(t *testing.T) {
	fetcher := NewHTTPFetcher(0, "テストCookie値")
	assert.Equal(t, StrategyHTTP, fetcher.Name())
}
