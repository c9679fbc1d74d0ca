package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// テスト用の高速な設定
func fastConfig(maxRetries uint64) Config {
	return Config{
		MaxRetries:      maxRetries,
		InitialInterval: 1 * time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, uint64(DefaultMaxRetries), cfg.MaxRetries)
	require.Equal(t, InitialBackoffInterval, cfg.InitialInterval)
	require.Equal(t, MaxBackoffInterval, cfg.MaxInterval)
}

func TestDo(t *testing.T) {
	opName := "テスト操作"
	alwaysRetry := func(err error) bool { return true }
	neverRetry := func(err error) bool { return false }

	t.Run("successful operation", func(t *testing.T) {
		attempts := 0
		err := Do(context.Background(), fastConfig(3), opName, func() error {
			attempts++
			return nil
		}, alwaysRetry)

		require.NoError(t, err)
		require.Equal(t, 1, attempts)
	})

	t.Run("retryable error and success within max retries", func(t *testing.T) {
		attempts := 0
		err := Do(context.Background(), fastConfig(3), opName, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("一時的なエラー")
			}
			return nil
		}, alwaysRetry)

		require.NoError(t, err)
		require.Equal(t, 3, attempts)
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		attempts := 0
		err := Do(context.Background(), fastConfig(2), opName, func() error {
			attempts++
			return errors.New("一時的なエラー")
		}, alwaysRetry)

		require.Error(t, err)
		// 初回実行 + 2回のリトライ = 3回
		require.Equal(t, 3, attempts)
		require.Contains(t, err.Error(), "最大リトライ回数 (2回) に到達")
	})

	t.Run("zero max retries means single attempt", func(t *testing.T) {
		attempts := 0
		err := Do(context.Background(), fastConfig(0), opName, func() error {
			attempts++
			return errors.New("一時的なエラー")
		}, alwaysRetry)

		require.Error(t, err)
		require.Equal(t, 1, attempts)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		attempts := 0
		fatal := errors.New("致命的なエラー")
		err := Do(context.Background(), fastConfig(3), opName, func() error {
			attempts++
			return fatal
		}, neverRetry)

		require.Error(t, err)
		// 非リトライ対象のエラーは、ラップを解いた元のエラーがそのまま返る
		require.Equal(t, fatal, err)
		require.Equal(t, 1, attempts)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Do(ctx, fastConfig(3), opName, func() error {
			return errors.New("一時的なエラー")
		}, alwaysRetry)

		require.Error(t, err)
		require.Contains(t, err.Error(), "コンテキストタイムアウト/キャンセル")
	})
}
