package github

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		in          string
		owner, name string
	}{
		{"https://github.com/golang/go", "golang", "go"},
		{"https://github.com/golang/go/", "golang", "go"},
		{"https://github.com/golang/go.git", "golang", "go"},
		{"git@github.com:golang/go.git", "golang", "go"},
		{"golang/go", "golang", "go"},
		{"https://github.com/owner/repo/issues/42", "owner", "repo"},
	}
	for _, tc := range cases {
		owner, name, err := ParseRepoURL(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.owner, owner, tc.in)
		assert.Equal(t, tc.name, name, tc.in)
	}
}

func TestParseRepoURLInvalid(t *testing.T) {
	for _, in := range []string{"", "not a url", "https://gitlab.com/owner/repo"} {
		_, _, err := ParseRepoURL(in)
		assert.Error(t, err, in)
	}
}

func TestCloneDirNameStable(t *testing.T) {
	a := cloneDirName("owner", "repo")
	b := cloneDirName("owner", "repo")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "owner_repo_"))
	assert.NotEqual(t, a, cloneDirName("owner", "other"))
}

func TestFileTreeFiltering(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"main.py",
		"src/app.js",
		"assets/logo.png",
		"bundle.min.js",
		"node_modules/dep/index.js",
		".git/HEAD",
	}
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	c := NewClient("", root, nil)
	tree, err := c.FileTree(root)
	require.NoError(t, err)

	assert.Contains(t, tree, "main.py")
	assert.Contains(t, tree, "src/app.js")
	assert.NotContains(t, tree, "assets/logo.png")
	assert.NotContains(t, tree, "bundle.min.js")
	assert.NotContains(t, tree, "node_modules/dep/index.js")
	assert.NotContains(t, tree, ".git/HEAD")
}

func TestFileTreeDepthCap(t *testing.T) {
	root := t.TempDir()
	shallow := filepath.Join(root, "a", "b", "c", "file.txt")
	deep := filepath.Join(root, "a", "b", "c", "d", "e", "f", "g", "file.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(shallow), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(deep), 0o755))
	require.NoError(t, os.WriteFile(shallow, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(deep, []byte("x"), 0o644))

	c := NewClient("", root, nil)
	tree, err := c.FileTree(root)
	require.NoError(t, err)

	assert.Contains(t, tree, "a/b/c/file.txt")
	assert.NotContains(t, tree, "a/b/c/d/e/f/g/file.txt")
}
