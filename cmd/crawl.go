package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-imdb-crawl/internal/pipeline"
	"github.com/shouni/go-imdb-crawl/pkg/crawler"
	"github.com/shouni/go-imdb-crawl/pkg/fetch"
	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// コマンドラインフラグ変数を定義
var (
	crawlIDsFile   string // --ids-file 作品IDを一行ずつ記載したファイル
	crawlIDs       string // --ids カンマ区切りの作品IDリスト
	crawlOutputDir string // --output-dir HTMLの保存先ディレクトリ
	crawlFailed    string // --failed-file 失敗IDの書き出し先
	crawlStrategy  string // --strategy フェッチ戦略
	crawlCookie    string // --cookie セッションCookieの値
	crawlWorkers   int    // --concurrency 並列実行数
	crawlRateMs    int    // --rate-limit リクエスト間隔(ミリ秒)
	crawlRemove    bool   // --remove-done 成功IDをIDファイルから除去
)

// resolveCrawlIDs は、処理対象の作品ID一覧を決定します。
// 優先順位: --ids フラグ → --ids-file フラグ → 標準入力。
func resolveCrawlIDs() ([]string, error) {
	// 1. --ids フラグからIDリストを取得
	if crawlIDs != "" {
		var ids []string
		for _, id := range strings.Split(crawlIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if !imdb.IsValidID(id) {
				return nil, fmt.Errorf("無効な作品IDです: %s (例: tt0111161)", id)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	// 2. --ids-file フラグからIDファイルを読み込む
	if crawlIDsFile != "" {
		ids, err := imdb.NewIDFile(crawlIDsFile).ReadIDs()
		if err != nil {
			return nil, err
		}
		log.Printf("📖 IDファイルから %d 件の作品IDを読み込みました (path: %s)", len(ids), crawlIDsFile)
		return ids, nil
	}

	// 3. 標準入力からIDを一行ずつ読み込む
	log.Println("IDが指定されていないため、標準入力から作品IDを読み込みます (Ctrl+DまたはEOFで終了)...")
	var ids []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if imdb.IsValidID(id) {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("標準入力の読み取りエラー: %w", err)
	}
	return ids, nil
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "作品IDのリストに対してHTMLページを並列取得し、ファイルに保存します",
	Long:  `--ids-file で指定されたIDファイル（または --ids のカンマ区切りリスト、標準入力）の各作品IDについて、選択されたフェッチ戦略でHTMLページを取得し、保存先ディレクトリに <ID>.html として書き込みます。失敗したIDは failed_ids.txt に記録されます。`,
	Args:  cobra.NoArgs, // 位置引数は取らない

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. 処理対象IDの決定
		ids, err := resolveCrawlIDs()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("処理対象の作品IDが一つも指定されていません")
		}

		// 2. パイプラインの実行
		// Ctrl+C (SIGINT) / SIGTERM でコンテキストをキャンセルし、実行中のクロールを中断する
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := pipeline.Run(ctx, pipeline.Options{
			IDs:           ids,
			IDFilePath:    crawlIDsFile,
			OutputDir:     crawlOutputDir,
			FailedIDsFile: crawlFailed,
			Strategy:      crawlStrategy,
			Cookie:        crawlCookie,
			Concurrency:   crawlWorkers,
			RateLimit:     time.Duration(crawlRateMs) * time.Millisecond,
			Timeout:       PageTimeout(),
			MaxRetries:    Flags.MaxRetries,
			RemoveDone:    crawlRemove,
		})
		if err != nil {
			return fmt.Errorf("クロールパイプラインの実行エラー: %w", err)
		}

		// 3. 結果の出力
		fmt.Println("--- クロール結果 ---")
		fmt.Printf("📊 総数: %d 件\n", summary.Total)
		fmt.Printf("✅ 成功: %d 件\n", summary.Succeeded)
		fmt.Printf("❌ 失敗: %d 件\n", summary.Failed)
		fmt.Printf("⏱️ 所要時間: %s\n", summary.Elapsed.Round(time.Second))

		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlIDsFile, "ids-file", "f", "",
		"作品IDを一行ずつ記載したファイル")
	crawlCmd.Flags().StringVarP(&crawlIDs, "ids", "i", "",
		"カンマ区切りの作品IDリスト (例: tt0111161,tt0068646)")
	crawlCmd.Flags().StringVarP(&crawlOutputDir, "output-dir", "o", "imdb_pages",
		"HTMLの保存先ディレクトリ")
	crawlCmd.Flags().StringVar(&crawlFailed, "failed-file", pipeline.DefaultFailedIDsFile,
		"フェッチに失敗したIDの書き出し先ファイル")
	crawlCmd.Flags().StringVarP(&crawlStrategy, "strategy", "s", fetch.StrategyHTTP,
		"フェッチ戦略 (http / chromedp / rod)")
	crawlCmd.Flags().StringVar(&crawlCookie, "cookie", "",
		"セッションCookieの値 (http戦略のみ必須。ブラウザでログインして取得)")
	crawlCmd.Flags().IntVarP(&crawlWorkers, "concurrency", "c", crawler.DefaultMaxConcurrency,
		fmt.Sprintf("最大並列実行数 (デフォルト: %d)", crawler.DefaultMaxConcurrency))
	crawlCmd.Flags().IntVar(&crawlRateMs, "rate-limit", int(crawler.DefaultCrawlRateLimit/time.Millisecond),
		"リクエスト間隔（ミリ秒）")
	crawlCmd.Flags().BoolVar(&crawlRemove, "remove-done", false,
		"成功した作品IDをIDファイルから取り除く (中断後の再開用)")
}
