package stats

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, s.Counts())
	assert.Equal(t, "Success: 0\nFailed: 0\n", s.Report())

	// Loading never creates the file.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_ValidFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Counts
	}{
		{"as written by the server", "12\n3", Counts{Success: 12, Failed: 3}},
		{"trailing newline", "12\n3\n", Counts{Success: 12, Failed: 3}},
		{"crlf line endings", "12\r\n3\r\n", Counts{Success: 12, Failed: 3}},
		{"zeros", "0\n0", Counts{}},
		{"uint32 max", "4294967295\n4294967295", Counts{Success: 4294967295, Failed: 4294967295}},
		{"extra lines ignored", "1\n2\nnot a number", Counts{Success: 1, Failed: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "captcha.stat")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Counts())
		})
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{"empty file", "", 1},
		{"non numeric first line", "abc\n3", 1},
		{"non numeric second line", "12\nthree", 2},
		{"missing second line", "12", 2},
		{"empty second line", "12\n", 2},
		{"negative", "-1\n0", 1},
		{"too many digits", "12345678901\n0", 1},
		{"above uint32", "4294967296\n0", 1},
		{"inner whitespace", "1 2\n0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "captcha.stat")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := Load(path)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, IsCorrupt(err))

			var ce *CorruptError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantLine, ce.Line)
			assert.Equal(t, path, ce.Path)
			assert.Contains(t, err.Error(), "corrupted stat file")
		})
	}
}

func TestLoad_Unreadable(t *testing.T) {
	t.Parallel()

	// A directory cannot be read as a file.
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
	assert.False(t, IsCorrupt(err))
	assert.Contains(t, err.Error(), "failed to read stat file")
}

func TestStore_RecordWritesThrough(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")
	s := NewStore(path)

	require.NoError(t, s.RecordSuccess())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n0", string(data))

	require.NoError(t, s.RecordFailure())
	require.NoError(t, s.RecordFailure())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2", string(data))

	assert.Equal(t, Counts{Success: 1, Failed: 2}, s.Counts())
	assert.Equal(t, uint64(3), s.Counts().Total())
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")
	s := NewStore(path)
	for i := 0; i < 7; i++ {
		require.NoError(t, s.RecordSuccess())
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, s.RecordFailure())
	}

	// Simulate a restart.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Counts(), reloaded.Counts())
	assert.Equal(t, "Success: 7\nFailed: 4\n", reloaded.Report())
}

func TestStore_CountersSaturate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")
	require.NoError(t, os.WriteFile(path, []byte("4294967295\n4294967294"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, s.RecordSuccess())
	require.NoError(t, s.RecordFailure())
	require.NoError(t, s.RecordFailure())

	assert.Equal(t, Counts{Success: math.MaxUint32, Failed: math.MaxUint32}, s.Counts())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4294967295\n4294967295", string(data))
}

func TestStore_WriteFailureKeepsCounter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing-dir", "captcha.stat")
	s := NewStore(path)

	err := s.RecordFailure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write stat file")
	assert.Equal(t, Counts{Failed: 1}, s.Counts())
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")
	require.NoError(t, os.WriteFile(path, []byte("9\n9"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\n0", string(data))
	assert.Equal(t, Counts{}, s.Counts())
}

func TestStore_Save(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "captcha.stat")
	s := NewStore(path)
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\n0", string(data))
	assert.Equal(t, path, s.Path())
}
