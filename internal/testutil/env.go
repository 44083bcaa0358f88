package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Env holds the file locations of a test server.
type Env struct {
	Dir      string
	StatFile string
	LogFile  string
}

// SetupTestDir creates a temporary directory for a server's stat and log
// files. Neither file is created. The directory is removed when the test
// completes.
func SetupTestDir(t *testing.T) Env {
	t.Helper()

	dir := t.TempDir()
	return Env{
		Dir:      dir,
		StatFile: filepath.Join(dir, "captcha.stat"),
		LogFile:  filepath.Join(dir, "captcha.log"),
	}
}

// WriteTestFile writes content to basePath/relativePath, creating parent
// directories, and returns the full path.
func WriteTestFile(t *testing.T, basePath, relativePath string, content []byte) string {
	t.Helper()

	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
	return fullPath
}

// ReadTestFile reads path or fails the test.
func ReadTestFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read %s", path)
	return string(data)
}
