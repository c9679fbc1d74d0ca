package types

// FetchResult は、特定の作品IDに対するフェッチ・保存処理の結果を保持します。
// これは、Crawlerの出力、パイプラインの集計処理の入力として利用されます。
type FetchResult struct {
	ID          string // 処理対象の作品ID (例: tt0111161)
	URL         string // フェッチ対象のURL
	Path        string // 保存先のファイルパス (保存に成功した場合のみ)
	ContentSize int    // 取得したHTMLのバイトサイズ
	Error       error  // 処理中に発生したエラー
}
