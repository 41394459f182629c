package cli

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		xdgCache string
		want     string
	}{
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", "cratemover")},
		{"home fallback", "", filepath.Join(home, ".cache", "cratemover")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdgCache)
			dir, err := cacheDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, dir)
			assert.Equal(t, appName, filepath.Base(dir))
		})
	}
}

// cachedFiles lists the entry files the file cache wrote under dir.
func cachedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	if !errors.Is(err, fs.ErrNotExist) {
		require.NoError(t, err)
	}
	return files
}

func TestSolveWritesFileCacheUnderCacheDir(t *testing.T) {
	cacheHome := isolate(t)
	dir := filepath.Join(cacheHome, appName)
	path := writeInput(t, sampleInput)

	out, err := run(t, "", "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)

	_, err = run(t, "", "solve", "--no-cache", path)
	require.NoError(t, err)
	assert.Empty(t, cachedFiles(t, dir), "--no-cache leaves the directory alone")

	_, err = run(t, "", "solve", "--policy", "all", path)
	require.NoError(t, err)
	assert.Len(t, cachedFiles(t, dir), 2, "one answer per policy")

	_, err = run(t, "", "stacks", path)
	require.NoError(t, err)
	assert.Len(t, cachedFiles(t, dir), 3, "parsed stacks are cached too")
}

func TestCacheBackendNoneWritesNothing(t *testing.T) {
	cacheHome := isolate(t)
	t.Setenv("CRATEMOVER_CACHE_BACKEND", "none")

	_, err := run(t, "", "solve", writeInput(t, sampleInput))
	require.NoError(t, err)
	assert.Empty(t, cachedFiles(t, filepath.Join(cacheHome, appName)))
}
