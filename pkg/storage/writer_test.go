package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLWriter_WriteHTML(t *testing.T) {
	t.Run("writes file named after id", func(t *testing.T) {
		dir := t.TempDir()
		w := NewHTMLWriter(dir)

		path, err := w.WriteHTML("tt0111161", "<html>plot</html>")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "tt0111161.html"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<html>plot</html>", string(content))
	})

	t.Run("creates output dir on first write", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "output")
		w := NewHTMLWriter(dir)

		_, err := w.WriteHTML("tt0111161", "<html></html>")
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		dir := t.TempDir()
		w := NewHTMLWriter(dir)

		_, err := w.WriteHTML("tt0111161", "初回の内容")
		require.NoError(t, err)
		path, err := w.WriteHTML("tt0111161", "二回目の内容")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "二回目の内容", string(content))
	})
}

func TestWriteFailedIDs(t *testing.T) {
	t.Run("writes failed ids", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failed_ids.txt")

		require.NoError(t, WriteFailedIDs(path, []string{"tt0111161", "tt0068646"}))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "tt0111161\ntt0068646\n", string(content))
	})

	t.Run("no failures writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failed_ids.txt")

		require.NoError(t, WriteFailedIDs(path, nil))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "失敗がない場合はファイルを作成しない")
	})
}
