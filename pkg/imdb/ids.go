package imdb

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

const (
	// IDPrefix は、有効な作品IDが持つプレフィックスです。
	IDPrefix = "tt"
	// MinIDLength は、有効な作品IDの最小文字数です (例: tt0111161)。
	MinIDLength = 9

	// titleURLFormat は、作品IDからあらすじページURLを組み立てるフォーマットです。
	titleURLFormat = "https://www.imdb.com/title/%s/plotsummary/"
)

// TitleURL は、作品IDからフェッチ対象のあらすじページURLを組み立てます。
func TitleURL(id string) string {
	return fmt.Sprintf(titleURLFormat, id)
}

// IsValidID は、文字列が有効な作品IDの形式を満たすかを判定します。
func IsValidID(id string) bool {
	return strings.HasPrefix(id, IDPrefix) && len(id) >= MinIDLength
}

// ----------------------------------------------------------------------
// IDファイルの読み書き
// ----------------------------------------------------------------------

// IDFile は、作品IDを一行ずつ保持するテキストファイルを表します。
// 複数のワーカーから同時に Remove が呼ばれるため、内部でロックを取得します。
type IDFile struct {
	path string
	mu   sync.Mutex
}

// NewIDFile は、指定されたパスのIDファイルを表す IDFile を生成します。
func NewIDFile(path string) *IDFile {
	return &IDFile{path: path}
}

// Path は、IDファイルのパスを返します。
func (f *IDFile) Path() string {
	return f.path
}

// ReadIDs は、ファイルから有効な作品IDの一覧を読み取ります。
// 形式を満たさない行（空行、コメント等）は黙って読み飛ばします。
func (f *IDFile) ReadIDs() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("IDファイルのオープンに失敗しました (path: %s): %w", f.path, err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if IsValidID(line) {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("IDファイルの読み取りエラー (path: %s): %w", f.path, err)
	}

	return ids, nil
}

// Remove は、処理が完了した作品IDをファイルから取り除きます。
// 読み取り・書き戻しの間はロックを保持し、ワーカー間の競合を防ぎます。
func (f *IDFile) Remove(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("IDファイルの読み取りに失敗しました (path: %s): %w", f.path, err)
	}

	var remaining []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == id {
			continue
		}
		remaining = append(remaining, line)
	}

	if err := os.WriteFile(f.path, []byte(strings.Join(remaining, "\n")), 0644); err != nil {
		return fmt.Errorf("IDファイルの書き戻しに失敗しました (path: %s): %w", f.path, err)
	}
	return nil
}

// WriteIDs は、作品IDの一覧を一行ずつファイルに書き込みます。
// 失敗ID一覧の保存や、データセット分割の出力に利用されます。
func WriteIDs(path string, ids []string) error {
	content := strings.Join(ids, "\n")
	if len(ids) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("IDリストの書き込みに失敗しました (path: %s): %w", path, err)
	}
	return nil
}
