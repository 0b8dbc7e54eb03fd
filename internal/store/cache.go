package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// RepoCacheDir returns the directory that holds cloned repository content
// under baseDir.
func RepoCacheDir(baseDir string) string {
	return filepath.Join(baseDir, "repos")
}

// ClearOldRepos removes cached clones whose directories have not been
// touched within maxAge. Errors on individual entries are ignored; stale
// cache cleanup is best-effort.
func ClearOldRepos(baseDir string, maxAge time.Duration) {
	reposDir := RepoCacheDir(baseDir)
	entries, err := os.ReadDir(reposDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.RemoveAll(filepath.Join(reposDir, e.Name()))
		}
	}
}

// Size reports the cache footprint in bytes: cloned repositories and run
// records.
func Size(baseDir string) (reposBytes, runsBytes int64) {
	return dirSize(RepoCacheDir(baseDir)), dirSize(filepath.Join(baseDir, "runs"))
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
