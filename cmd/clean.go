package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// コマンドラインフラグ変数を定義
var (
	cleanIDsFile string // --ids-file 手入れ対象のIDファイル
	cleanHTMLDir string // --html-dir 取得済みHTMLのディレクトリ
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "取得済みの作品IDをIDファイルから取り除きます",
	Long:  `HTML保存ディレクトリに <ID>.html が存在する作品IDをIDファイルから取り除きます。中断したクロールを再開する前に実行することで、取得済みページの重複フェッチを防ぎます。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		log.Printf("🔧 IDファイルの手入れを開始します (ids: %s, html: %s)", cleanIDsFile, cleanHTMLDir)

		cleaner := imdb.NewCleaner(cleanIDsFile, cleanHTMLDir)
		removed, remaining, err := cleaner.Clean()
		if err != nil {
			return fmt.Errorf("IDファイルの手入れに失敗しました: %w", err)
		}

		fmt.Printf("✅ 手入れ完了: %d 件を除去し、%d 件が残りました\n", removed, remaining)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanIDsFile, "ids-file", "f", "data.txt",
		"手入れ対象のIDファイル")
	cleanCmd.Flags().StringVarP(&cleanHTMLDir, "html-dir", "d", "imdb_pages",
		"取得済みHTMLの保存ディレクトリ")
	_ = cleanCmd.MarkFlagRequired("ids-file")
}
