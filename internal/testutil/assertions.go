package testutil

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logLinePattern matches "YYYY MM DD HH:MM:SS <message>".
var logLinePattern = regexp.MustCompile(`^\d{4} \d{2} \d{2} \d{2}:\d{2}:\d{2} .+$`)

// AssertStatFile asserts the persisted success and failure counters.
func AssertStatFile(t *testing.T, path string, success, failed int) {
	t.Helper()
	assert.Equal(t, fmt.Sprintf("%d\n%d", success, failed), ReadTestFile(t, path), "stat file mismatch")
}

// AssertLogLines asserts that the event log holds exactly n well-formed lines.
func AssertLogLines(t *testing.T, path string, n int) {
	t.Helper()

	content := strings.TrimSuffix(ReadTestFile(t, path), "\n")
	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
	}
	require.Len(t, lines, n, "event log line count mismatch")
	for i, line := range lines {
		assert.Regexp(t, logLinePattern, line, "event log line %d malformed", i)
	}
}

// AssertNoLogFile asserts that no failure event was ever written.
func AssertNoLogFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected no event log at %s", path)
}
