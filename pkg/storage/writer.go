package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shouni/go-imdb-crawl/pkg/imdb"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Writer は、作品IDに対応するHTMLを永続化する機能のインターフェースを定義します。
// Crawler は、この抽象に依存します。
type Writer interface {
	// WriteHTML は、HTMLを保存し、保存先のファイルパスを返します。
	WriteHTML(id, html string) (path string, err error)
}

// ----------------------------------------------------------------------
// HTMLファイル書き込み
// ----------------------------------------------------------------------

// HTMLWriter は、作品IDごとに一つのHTMLファイルをディレクトリへ書き込む Writer 実装です。
// 同じIDに対して再度書き込んだ場合、ファイルは上書きされます (追記はしません)。
type HTMLWriter struct {
	dir      string
	initOnce sync.Once
	initErr  error
}

// NewHTMLWriter は、出力先ディレクトリを指定して HTMLWriter を生成します。
// ディレクトリは最初の書き込み時に作成されます。
func NewHTMLWriter(dir string) *HTMLWriter {
	return &HTMLWriter{dir: dir}
}

// WriteHTML は、`<作品ID>.html` という命名規則でHTMLを保存します。
func (w *HTMLWriter) WriteHTML(id, html string) (string, error) {
	// 出力先ディレクトリの作成は一度だけ行う
	w.initOnce.Do(func() {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			w.initErr = fmt.Errorf("出力先ディレクトリの作成に失敗しました (dir: %s): %w", w.dir, err)
		}
	})
	if w.initErr != nil {
		return "", w.initErr
	}

	path := filepath.Join(w.dir, id+".html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("HTMLファイルの書き込みに失敗しました (path: %s): %w", path, err)
	}
	return path, nil
}

// ----------------------------------------------------------------------
// 失敗IDの記録
// ----------------------------------------------------------------------

// WriteFailedIDs は、フェッチに失敗した作品IDの一覧をファイルに書き出します。
// 失敗が一件もない場合は何も書き込みません (既存ファイルも変更しません)。
func WriteFailedIDs(path string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := imdb.WriteIDs(path, ids); err != nil {
		return fmt.Errorf("失敗IDリストの保存に失敗しました: %w", err)
	}
	return nil
}
