package imdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ----------------------------------------------------------------------
// データセットの手入れ (クリーニングと分割)
// ----------------------------------------------------------------------

// Cleaner は、保存済みHTMLに対応するIDをIDファイルから取り除きます。
// 中断したクロールを再開する前に実行することで、取得済みのページを
// 再度フェッチすることを防ぎます。
type Cleaner struct {
	idFile  *IDFile
	htmlDir string
}

// NewCleaner は、IDファイルとHTML保存ディレクトリを指定して Cleaner を生成します。
func NewCleaner(idFilePath, htmlDir string) *Cleaner {
	return &Cleaner{
		idFile:  NewIDFile(idFilePath),
		htmlDir: htmlDir,
	}
}

// loadSavedIDs は、HTML保存ディレクトリから取得済みの作品ID一覧を抽出します。
func (c *Cleaner) loadSavedIDs() (map[string]struct{}, error) {
	entries, err := os.ReadDir(c.htmlDir)
	if err != nil {
		return nil, fmt.Errorf("HTMLディレクトリの読み取りに失敗しました (dir: %s): %w", c.htmlDir, err)
	}

	saved := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".html") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if IsValidID(id) {
			saved[id] = struct{}{}
		}
	}
	return saved, nil
}

// Clean は、取得済みのIDをIDファイルから取り除き、(除去数, 残り件数) を返します。
func (c *Cleaner) Clean() (removed int, remaining int, err error) {
	ids, err := c.idFile.ReadIDs()
	if err != nil {
		return 0, 0, err
	}

	saved, err := c.loadSavedIDs()
	if err != nil {
		return 0, 0, err
	}

	var rest []string
	for _, id := range ids {
		if _, ok := saved[id]; ok {
			removed++
			continue
		}
		rest = append(rest, id)
	}

	if err := WriteIDs(c.idFile.Path(), rest); err != nil {
		return 0, 0, err
	}
	return removed, len(rest), nil
}

// ----------------------------------------------------------------------
// 分割
// ----------------------------------------------------------------------

// Splitter は、IDファイルを前半・後半の二つのファイルに分割します。
// 複数のマシン・プロセスでクロールを分担する際に利用します。
type Splitter struct {
	idFile    *IDFile
	outputDir string
}

// NewSplitter は、分割対象のIDファイルと出力先ディレクトリを指定して Splitter を生成します。
func NewSplitter(idFilePath, outputDir string) *Splitter {
	return &Splitter{
		idFile:    NewIDFile(idFilePath),
		outputDir: outputDir,
	}
}

// Split は、IDファイルを二分割して書き出し、出力した二つのファイルパスを返します。
func (s *Splitter) Split() (part1Path, part2Path string, err error) {
	ids, err := s.idFile.ReadIDs()
	if err != nil {
		return "", "", err
	}
	if len(ids) == 0 {
		return "", "", fmt.Errorf("IDファイルが空のため分割できません (path: %s)", s.idFile.Path())
	}

	base := strings.TrimSuffix(filepath.Base(s.idFile.Path()), filepath.Ext(s.idFile.Path()))
	part1Path = filepath.Join(s.outputDir, base+"_part1.txt")
	part2Path = filepath.Join(s.outputDir, base+"_part2.txt")

	mid := len(ids) / 2
	if err := WriteIDs(part1Path, ids[:mid]); err != nil {
		return "", "", err
	}
	if err := WriteIDs(part2Path, ids[mid:]); err != nil {
		return "", "", err
	}
	return part1Path, part2Path, nil
}
