package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shouni/go-imdb-crawl/pkg/crawler"
	"github.com/shouni/go-imdb-crawl/pkg/fetch"
	"github.com/shouni/go-imdb-crawl/pkg/imdb"
	"github.com/shouni/go-imdb-crawl/pkg/retry"
	"github.com/shouni/go-imdb-crawl/pkg/storage"
	"github.com/shouni/go-imdb-crawl/pkg/types"
)

// DefaultFailedIDsFile は、フェッチに失敗したIDを書き出すデフォルトのファイル名です。
const DefaultFailedIDsFile = "failed_ids.txt"

// Options は、クロールパイプライン全体の設定を保持します。
type Options struct {
	IDs           []string      // 処理対象の作品ID一覧
	IDFilePath    string        // IDの供給元ファイル (RemoveDone時の書き戻し先)
	OutputDir     string        // HTMLの保存先ディレクトリ
	FailedIDsFile string        // 失敗IDの書き出し先 (空の場合はデフォルト名)
	Strategy      string        // フェッチ戦略の識別子 (http / chromedp / rod)
	Cookie        string        // セッションCookieの値 (http戦略のみ)
	Concurrency   int           // 最大同時実行数
	RateLimit     time.Duration // リクエスト間隔
	Timeout       time.Duration // 1ページあたりの取得タイムアウト
	MaxRetries    int           // IDごとの最大リトライ回数 (0以下でリトライなし)
	RemoveDone    bool          // 成功したIDをIDファイルから取り除くか
}

// Summary は、クロール実行の集計結果を保持します。
type Summary struct {
	Total     int           // 処理対象のID総数
	Succeeded int           // 保存に成功した件数
	Failed    int           // 失敗した件数
	Elapsed   time.Duration // 実行時間
	FailedIDs []string      // 失敗した作品ID一覧
}

// Run は、クロールパイプラインを実行するメインロジックです。
// 戦略の構築 → リトライデコレーターの適用 → 並列クロール → 結果の集計、
// の順で処理します。
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if len(opts.IDs) == 0 {
		return nil, fmt.Errorf("処理対象の作品IDが一つも指定されていません")
	}

	// 1. フェッチ戦略の初期化 (DIコンテナの役割)
	baseFetcher, err := fetch.New(opts.Strategy, fetch.Options{
		Timeout: opts.Timeout,
		Cookie:  opts.Cookie,
	})
	if err != nil {
		return nil, fmt.Errorf("フェッチ戦略の初期化エラー: %w", err)
	}

	// 2. リトライデコレーターの適用
	// MaxRetries=0 の場合はリトライなし (一発勝負) の動作になります。
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = normalizeMaxRetries(opts.MaxRetries)
	fetcher := fetch.WithRetry(baseFetcher, retryCfg)
	defer func() {
		if cerr := fetcher.Close(); cerr != nil {
			log.Printf("フェッチ戦略の終了処理でエラーが発生しました: %v", cerr)
		}
	}()

	// 3. 保存先とクローラーの初期化
	// 保存前にコンテンツ検証を行い、エラーページや拒否ページの保存を防ぐ
	writer := storage.NewHTMLWriter(opts.OutputDir)
	batchCrawler := crawler.NewBatchCrawler(fetcher, writer, opts.Concurrency, opts.RateLimit,
		crawler.WithValidator(imdb.NewValidator()))

	log.Printf("🚀 クロール開始 (戦略: %s, 対象ID数: %d, 最大同時実行数: %d)",
		fetcher.Name(), len(opts.IDs), opts.Concurrency)

	// 4. メインロジックの実行
	start := time.Now()
	results := batchCrawler.CrawlAll(ctx, opts.IDs)
	elapsed := time.Since(start)

	// 5. 結果の集計と後処理
	summary := summarize(results, elapsed)
	if err := finalize(opts, results, summary); err != nil {
		return summary, err
	}

	log.Printf("📊 完了: 成功 %d 件, 失敗 %d 件 (所要時間: %s)",
		summary.Succeeded, summary.Failed, summary.Elapsed.Round(time.Second))

	return summary, nil
}

// normalizeMaxRetries は、リトライ回数を uint64 の設定値に変換します。
// 負の値をそのまま変換すると巨大な回数に化けてしまうため、0 (リトライなし) に丸めます。
func normalizeMaxRetries(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// summarize は、クロール結果を成功・失敗に分類して集計します。
func summarize(results []types.FetchResult, elapsed time.Duration) *Summary {
	summary := &Summary{
		Total:   len(results),
		Elapsed: elapsed,
	}
	for _, res := range results {
		if res.Error != nil {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, res.ID)
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// finalize は、失敗IDの書き出しと、成功IDのIDファイルからの除去を行います。
func finalize(opts Options, results []types.FetchResult, summary *Summary) error {
	failedFile := opts.FailedIDsFile
	if failedFile == "" {
		failedFile = DefaultFailedIDsFile
	}
	if err := storage.WriteFailedIDs(failedFile, summary.FailedIDs); err != nil {
		return err
	}
	if len(summary.FailedIDs) > 0 {
		log.Printf("📁 失敗IDを保存しました: %s (%d件)", failedFile, len(summary.FailedIDs))
	}

	// 成功したIDをIDファイルから取り除く (再開時の重複フェッチ防止)
	if opts.RemoveDone && opts.IDFilePath != "" {
		idFile := imdb.NewIDFile(opts.IDFilePath)
		for _, res := range results {
			if res.Error != nil {
				continue
			}
			if err := idFile.Remove(res.ID); err != nil {
				log.Printf("IDファイルからの除去に失敗しました (ID: %s): %v", res.ID, err)
			}
		}
	}

	return nil
}
