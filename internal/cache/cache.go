// Package cache holds the state kotka keeps between runs: the directory
// layout under ~/.kotka and a bounded in-memory cache of extracted payloads.
package cache

import (
	"os"
	"path/filepath"
)

// DirEnv overrides the cache root when set
const DirEnv = "KOTKA_CACHE_DIR"

// Cache resolves paths below the cache root
type Cache struct {
	root string
}

// CacheManager returns the cache rooted at $KOTKA_CACHE_DIR, or ~/.kotka
func CacheManager() *Cache {
	if dir := os.Getenv(DirEnv); dir != "" {
		return &Cache{root: dir}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return &Cache{root: ".kotka"}
	}
	return &Cache{root: filepath.Join(homeDir, ".kotka")}
}

// GetCacheDir returns the cache root
func (m *Cache) GetCacheDir() string {
	return m.root
}

// GetDatabasePath returns the default location of the manifest database
func (m *Cache) GetDatabasePath() string {
	return filepath.Join(m.root, "manifest.db")
}

// GetExportDir returns the default directory extracted resources are written to
func (m *Cache) GetExportDir() string {
	return filepath.Join(m.root, "export")
}

// GetLogDir returns the directory used by --log-file
func (m *Cache) GetLogDir() string {
	return filepath.Join(m.root, "logs")
}

// FileExists reports whether anything exists at path
func (m *Cache) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetFileSize returns the size of the file at path, or 0 if it can't be stat'ed
func (m *Cache) GetFileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
