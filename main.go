package main

import (
	"github.com/shouni/go-imdb-crawl/cmd"
)

// main 関数は、CLIのエントリポイントです。
// コマンドの組み立てと実行はすべて cmd パッケージに委譲します。
func main() {
	cmd.Execute()
}
