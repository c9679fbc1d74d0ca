package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries は、デフォルトの最大リトライ回数です (初回実行を除く)。
	DefaultMaxRetries = 2

	// バックオフのカスタム設定
	InitialBackoffInterval = 2 * time.Second
	MaxBackoffInterval     = 15 * time.Second
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc はエラーを受け取り、そのエラーがリトライ可能かどうかを判定する関数です。
type ShouldRetryFunc func(error) bool

// Config はリトライ動作を設定するための構造体です。
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

// Do は指数バックオフとカスタムエラー判定を使用して操作をリトライします。
// MaxRetries が 0 の場合、操作は一度だけ実行されます (リトライなし)。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetryFn ShouldRetryFunc) error {

	// backoff の設定
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}

	// 最大リトライ回数とコンテキストを backoff に適用
	bo := backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)

	var lastErr error

	// リトライ処理内で実行される実際の操作
	retryableOp := func() error {
		err := op()

		if err == nil {
			return nil // 成功
		}
		lastErr = err

		// 外部から渡された判定関数を使用
		if shouldRetryFn(err) {
			return err // リトライ対象
		}

		// 永続エラーとしてラップし、即時終了
		return backoff.Permanent(err)
	}

	// リトライ発生時に待機時間をログに通知する
	notify := func(err error, wait time.Duration) {
		log.Printf("⏳ %sで一時的なエラーが発生しました。%s 待機して再試行します: %v",
			operationName, wait.Round(100*time.Millisecond), err)
	}

	err := backoff.RetryNotify(retryableOp, bo, notify)

	if err != nil {
		// コンテキストキャンセル/タイムアウトのエラー処理
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
		}

		// backoff.Permanent でラップされたエラーから元のエラーを取得
		var pErr *backoff.PermanentError
		if errors.As(err, &pErr) {
			return pErr.Err // 致命的なエラーをそのまま返す
		}

		// リトライ上限到達エラー
		return fmt.Errorf("%sに失敗しました: 最大リトライ回数 (%d回) に到達。最終エラー: %w", operationName, cfg.MaxRetries, lastErr)
	}
	return nil
}
