package imdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_Clean(t *testing.T) {
	t.Run("removes ids with saved html", func(t *testing.T) {
		htmlDir := t.TempDir()
		idPath := writeTestFile(t, "tt0111161\ntt0068646\ntt0071562\n")

		// tt0111161 と tt0071562 は取得済みとする
		require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "tt0111161.html"), []byte("<html></html>"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "tt0071562.html"), []byte("<html></html>"), 0644))
		// ID形式ではないファイルは無視される
		require.NoError(t, os.WriteFile(filepath.Join(htmlDir, "メモ.html"), []byte("memo"), 0644))

		removed, remaining, err := NewCleaner(idPath, htmlDir).Clean()
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, remaining)

		ids, err := NewIDFile(idPath).ReadIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0068646"}, ids)
	})

	t.Run("nothing saved yet", func(t *testing.T) {
		htmlDir := t.TempDir()
		idPath := writeTestFile(t, "tt0111161\ntt0068646\n")

		removed, remaining, err := NewCleaner(idPath, htmlDir).Clean()
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
		assert.Equal(t, 2, remaining)
	})

	t.Run("missing html dir", func(t *testing.T) {
		idPath := writeTestFile(t, "tt0111161\n")

		_, _, err := NewCleaner(idPath, filepath.Join(t.TempDir(), "存在しない")).Clean()
		assert.Error(t, err)
	})
}

func TestSplitter_Split(t *testing.T) {
	t.Run("splits into two halves", func(t *testing.T) {
		outDir := t.TempDir()
		idPath := writeTestFile(t, "tt0000001\ntt0000002\ntt0000003\ntt0000004\ntt0000005\n")

		part1, part2, err := NewSplitter(idPath, outDir).Split()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outDir, "data_part1.txt"), part1)
		assert.Equal(t, filepath.Join(outDir, "data_part2.txt"), part2)

		ids1, err := NewIDFile(part1).ReadIDs()
		require.NoError(t, err)
		ids2, err := NewIDFile(part2).ReadIDs()
		require.NoError(t, err)

		// 奇数件の場合、後半が一件多くなる
		assert.Equal(t, []string{"tt0000001", "tt0000002"}, ids1)
		assert.Equal(t, []string{"tt0000003", "tt0000004", "tt0000005"}, ids2)
	})

	t.Run("empty id file", func(t *testing.T) {
		idPath := writeTestFile(t, "")

		_, _, err := NewSplitter(idPath, t.TempDir()).Split()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "分割できません")
	})
}
