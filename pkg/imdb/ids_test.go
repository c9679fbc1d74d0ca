package imdb

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFile は、テスト用の一時ファイルに内容を書き込み、パスを返します。
func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTitleURL(t *testing.T) {
	assert.Equal(t, "https://www.imdb.com/title/tt0111161/plotsummary/", TitleURL("tt0111161"))
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"valid id", "tt0111161", true},
		{"valid long id", "tt12345678", true},
		{"too short", "tt123", false},
		{"wrong prefix", "nm0000001", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidID(tt.id))
		})
	}
}

func TestIDFile_ReadIDs(t *testing.T) {
	t.Run("filters invalid lines", func(t *testing.T) {
		path := writeTestFile(t, "tt0111161\n\n# コメント行\ntt0068646\nnm0000001\ntt123\n  tt0071562  \n")

		ids, err := NewIDFile(path).ReadIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0111161", "tt0068646", "tt0071562"}, ids)
	})

	t.Run("missing file", func(t *testing.T) {
		ids, err := NewIDFile(filepath.Join(t.TempDir(), "存在しない.txt")).ReadIDs()
		assert.Error(t, err)
		assert.Nil(t, ids)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTestFile(t, "")
		ids, err := NewIDFile(path).ReadIDs()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestIDFile_Remove(t *testing.T) {
	t.Run("removes only the matching line", func(t *testing.T) {
		path := writeTestFile(t, "tt0111161\ntt0068646\ntt0071562\n")
		f := NewIDFile(path)

		require.NoError(t, f.Remove("tt0068646"))

		ids, err := f.ReadIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0111161", "tt0071562"}, ids)
	})

	t.Run("concurrent removals keep the file consistent", func(t *testing.T) {
		ids := []string{"tt0000001", "tt0000002", "tt0000003", "tt0000004", "tt0000005"}
		path := writeTestFile(t, "tt0000001\ntt0000002\ntt0000003\ntt0000004\ntt0000005\n")
		f := NewIDFile(path)

		// 複数のワーカーが同時に別々のIDを取り除く状況を再現する
		var wg sync.WaitGroup
		for _, id := range ids[:4] {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				assert.NoError(t, f.Remove(id))
			}(id)
		}
		wg.Wait()

		remaining, err := f.ReadIDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000005"}, remaining)
	})
}

func TestWriteIDs(t *testing.T) {
	t.Run("writes one id per line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failed.txt")
		require.NoError(t, WriteIDs(path, []string{"tt0111161", "tt0068646"}))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "tt0111161\ntt0068646\n", string(content))
	})

	t.Run("empty list writes empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failed.txt")
		require.NoError(t, WriteIDs(path, nil))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Empty(t, string(content))
	})
}
