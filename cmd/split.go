package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// コマンドラインフラグ変数を定義
var (
	splitIDsFile   string // --ids-file 分割対象のIDファイル
	splitOutputDir string // --output-dir 分割結果の出力先
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "IDファイルを前半・後半の二つのファイルに分割します",
	Long:  `IDファイルを二分割し、<元ファイル名>_part1.txt / _part2.txt として書き出します。複数のマシンやプロセスでクロールを分担する際に利用します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		splitter := imdb.NewSplitter(splitIDsFile, splitOutputDir)
		part1, part2, err := splitter.Split()
		if err != nil {
			return fmt.Errorf("IDファイルの分割に失敗しました: %w", err)
		}

		fmt.Printf("✅ 分割完了:\n  前半: %s\n  後半: %s\n", part1, part2)
		return nil
	},
}

func init() {
	splitCmd.Flags().StringVarP(&splitIDsFile, "ids-file", "f", "data.txt",
		"分割対象のIDファイル")
	splitCmd.Flags().StringVarP(&splitOutputDir, "output-dir", "o", ".",
		"分割結果の出力先ディレクトリ")
	_ = splitCmd.MarkFlagRequired("ids-file")
}
