package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubLangs struct{}

func (stubLangs) ByExtensionName(ext string) (string, bool) {
	switch ext {
	case ".go":
		return "go", true
	case ".py":
		return "python", true
	default:
		return "", false
	}
}

func TestWalkDeterministicLexicographicOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "b.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o644))

	result, err := Walk(root, Options{}, stubLangs{}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	require.Equal(t, "pkg/a.go", result.Files[0].RelPath)
	require.Equal(t, "pkg/b.go", result.Files[1].RelPath)
	require.Equal(t, "go", result.Files[0].Language)
	require.Equal(t, 1, result.SkipReasons["hidden_dir"])
}

func TestWalkFolderFilter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "x.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "y.go"), []byte("package b"), 0o644))

	result, err := Walk(root, Options{FolderFilter: []string{"a"}}, stubLangs{}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, "a/x.go", result.Files[0].RelPath)
}

func TestWalkSkipTests(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a_test.go"), []byte("package a"), 0o644))

	isTest := func(relPath, lang string) bool {
		return filepath.Ext(relPath) == ".go" && len(relPath) > 8 && relPath[len(relPath)-8:] == "_test.go"
	}

	result, err := Walk(root, Options{SkipTests: true}, stubLangs{}, isTest, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, "a.go", result.Files[0].RelPath)
}

func TestSpecialBasenameDetection(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Makefile"), []byte("all:"), 0o644))

	result, err := Walk(root, Options{}, stubLangs{}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, "make", result.Files[0].Language)
}
