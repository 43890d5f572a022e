package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloads(t *testing.T) {
	p, err := NewPayloads(2)
	require.NoError(t, err)

	p.Add("data/2da.bif", "feat.2da", []byte("2DA V2.b"))

	got, ok := p.Get("data/2da.bif", "feat.2da")
	require.True(t, ok)
	assert.Equal(t, []byte("2DA V2.b"), got)

	got[0] = 'X'
	again, _ := p.Get("data/2da.bif", "feat.2da")
	assert.Equal(t, []byte("2DA V2.b"), again, "callers receive copies")

	_, ok = p.Get("data/other.bif", "feat.2da")
	assert.False(t, ok)

	p.Add("a", "1", nil)
	p.Add("a", "2", nil)
	assert.LessOrEqual(t, p.Len(), 2)

	p.Purge()
	assert.Equal(t, 0, p.Len())
}

func TestNewPayloadsRejectsZero(t *testing.T) {
	_, err := NewPayloads(0)
	require.Error(t, err)
}

func TestCacheDirs(t *testing.T) {
	root := t.TempDir()
	t.Setenv(DirEnv, root)

	m := CacheManager()
	assert.Equal(t, root, m.GetCacheDir())
	assert.Equal(t, filepath.Join(m.GetCacheDir(), "manifest.db"), m.GetDatabasePath())

	assert.Equal(t, filepath.Join(m.GetCacheDir(), "export"), m.GetExportDir())
	assert.Equal(t, filepath.Join(m.GetCacheDir(), "logs"), m.GetLogDir())

	dir := t.TempDir()
	file := filepath.Join(dir, "feat.2da")
	require.NoError(t, os.WriteFile(file, []byte("2DA V2.b"), 0644))
	assert.True(t, m.FileExists(file))
	assert.Equal(t, int64(8), m.GetFileSize(file))

	missing := filepath.Join(dir, "missing")
	assert.False(t, m.FileExists(missing))
	assert.Equal(t, int64(0), m.GetFileSize(missing))
}
