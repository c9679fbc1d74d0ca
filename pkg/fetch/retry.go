package fetch

import (
	"context"
	"fmt"

	"github.com/shouni/go-imdb-crawl/pkg/retry"
)

// RetryFetcher は、任意の Fetcher を有限回のリトライで包むデコレーターです。
// リトライ回数は設定で与えられ、0 の場合は元の Fetcher と同じ
// 一発勝負の動作になります (リトライなし)。
type RetryFetcher struct {
	inner Fetcher
	cfg   retry.Config
}

// WithRetry は、Fetcher をリトライ付きでラップします。
func WithRetry(inner Fetcher, cfg retry.Config) *RetryFetcher {
	return &RetryFetcher{
		inner: inner,
		cfg:   cfg,
	}
}

// Name は、内側の戦略の識別子をそのまま返します。
func (r *RetryFetcher) Name() string {
	return r.inner.Name()
}

// Fetch は、内側の Fetcher を指数バックオフ付きでリトライしながら呼び出します。
// 4xx 系の非リトライ対象エラーは即座に返します。
func (r *RetryFetcher) Fetch(ctx context.Context, id string) (string, error) {
	var html string

	op := func() error {
		h, err := r.inner.Fetch(ctx, id)
		if err != nil {
			return err
		}
		html = h
		return nil
	}

	err := retry.Do(
		ctx,
		r.cfg,
		fmt.Sprintf("作品ID(%s)のページ取得", id),
		op,
		isRetryableFetchError,
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// Close は、内側の Fetcher がブラウザ等のリソースを保持している場合にそれを解放します。
func (r *RetryFetcher) Close() error {
	if closer, ok := r.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
