package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-imdb-crawl/pkg/retry"
)

// --- グローバル定数 ---

const (
	appName           = "imdb-crawl"
	defaultTimeoutSec = 30 // 秒
	defaultMaxRetries = retry.DefaultMaxRetries
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int // --timeout 1ページあたりの取得タイムアウト
	MaxRetries int // --max-retries IDごとのリトライ回数
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数

// ルートコマンドの定義 (clibaseがルートコマンドを生成するため、UseとLongのみ残す)
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "映画作品ページの一括クロールツール",
	Long:  `作品IDのリストに対して、HTTP・chromedp・rod のいずれかのフェッチ戦略でHTMLページを並列取得し、IDごとに一つのファイルとして保存します。`,
}

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"1ページあたりの取得タイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		defaultMaxRetries,
		"IDごとのリトライ最大回数（0でリトライなし）",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	if clibase.Flags.Verbose {
		timeout := time.Duration(Flags.TimeoutSec) * time.Second
		log.Printf("取得タイムアウトを設定しました (Timeout: %s)。", timeout)
		log.Printf("リトライ回数を設定しました (MaxRetries: %d)。", Flags.MaxRetries)
	}
	return nil
}

// PageTimeout は、フラグから1ページあたりの取得タイムアウトを返します。
func PageTimeout() time.Duration {
	if Flags.TimeoutSec <= 0 {
		return defaultTimeoutSec * time.Second
	}
	return time.Duration(Flags.TimeoutSec) * time.Second
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	// clibase.Execute を使用して、アプリケーションの初期化、フラグ設定、サブコマンドの登録を一括で行う
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		// サブコマンドのリスト
		crawlCmd,
		cleanCmd,
		splitCmd,
	)
	// clibase.Execute() の中で os.Exit(1) が処理されるため、ここでは不要
}
