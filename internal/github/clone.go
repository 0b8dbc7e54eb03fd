package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const cloneTimeout = 5 * time.Minute

// treeIgnoreDirs are skipped when listing the file tree.
var treeIgnoreDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true, ".cache": true,
	"dist": true, "build": true, ".next": true, "vendor": true,
	".venv": true, "venv": true, "env": true, "coverage": true,
	".nyc_output": true,
}

// treeIgnoreSuffixes filter out minified, generated, and binary assets.
var treeIgnoreSuffixes = []string{
	".min.js", ".min.css", ".map", ".lock",
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg",
	".woff", ".woff2", ".ttf", ".eot",
}

const treeMaxDepth = 5

// Clone ensures a shallow clone of the repository exists in the content
// cache and returns its path. An existing clone is refreshed with a pull;
// if the pull fails it is re-cloned from scratch.
func (c *Client) Clone(ctx context.Context, url string) (string, error) {
	owner, name, err := ParseRepoURL(url)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(c.cacheDir, cloneDirName(owner, name))

	if _, err := os.Stat(dir); err == nil {
		if err := c.git(ctx, dir, "pull", "--ff-only"); err == nil {
			return dir, nil
		}
		c.logger.Warn("pull failed, re-cloning", zap.String("repo", owner+"/"+name))
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("remove stale clone: %w", err)
		}
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	cloneURL := fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
	if err := c.git(ctx, "", "clone", "--depth", "1", "--single-branch", cloneURL, dir); err != nil {
		return "", fmt.Errorf("clone %s/%s: %w", owner, name, err)
	}
	return dir, nil
}

func (c *Client) git(ctx context.Context, dir string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", args[len(args)-1], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// cloneDirName builds a stable directory name from the normalized
// repository identity.
func cloneDirName(owner, name string) string {
	sum := sha256.Sum256([]byte(owner + "/" + name))
	return fmt.Sprintf("%s_%s_%s", owner, name, hex.EncodeToString(sum[:])[:12])
}

// FileTree lists files under root relative to it, skipping ignored
// directories and asset extensions, down to a bounded depth.
func (c *Client) FileTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if treeIgnoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			if strings.Count(rel, string(filepath.Separator)) >= treeMaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		for _, suffix := range treeIgnoreSuffixes {
			if strings.HasSuffix(d.Name(), suffix) {
				return nil
			}
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
