//go:build e2e

// cli_harness_test.go provides a test harness for E2E testing of the
// captcha CLI.
//
// The CLIHarness builds the captcha binary and runs commands in an isolated
// workspace holding the config, stat and log files.
package integration

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CLIHarness manages a captcha CLI binary for E2E testing.
type CLIHarness struct {
	// BinaryPath is the path to the built captcha binary.
	BinaryPath string

	// WorkDir is the working directory where commands will be executed.
	// Relative stat and log file paths resolve against it.
	WorkDir string

	t *testing.T
}

// CLIResult contains the output from a CLI command execution.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success returns true if the command completed with exit code 0.
func (r *CLIResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NewCLIHarness builds the captcha binary and creates a test workspace.
func NewCLIHarness(t *testing.T) *CLIHarness {
	t.Helper()

	projectRoot := findProjectRoot(t)
	require.NotEmpty(t, projectRoot, "could not find project root (directory containing go.mod)")

	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "captcha")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/captcha")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build captcha binary: %s", output)

	workDir := filepath.Join(tmpDir, "workspace")
	require.NoError(t, os.MkdirAll(workDir, 0755))

	return &CLIHarness{
		BinaryPath: binaryPath,
		WorkDir:    workDir,
		t:          t,
	}
}

// WriteConfig writes captcha.yaml into the workspace.
func (h *CLIHarness) WriteConfig(content string) {
	h.t.Helper()
	path := filepath.Join(h.WorkDir, "captcha.yaml")
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0644))
}

// Path returns name resolved against the workspace.
func (h *CLIHarness) Path(name string) string {
	return filepath.Join(h.WorkDir, name)
}

// Run executes a captcha command with a 30 second timeout.
func (h *CLIHarness) Run(args ...string) *CLIResult {
	return h.RunWithInput("", args...)
}

// RunWithInput executes a captcha command with stdin fed from input.
func (h *CLIHarness) RunWithInput(input string, args ...string) *CLIResult {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.BinaryPath, args...)
	cmd.Dir = h.WorkDir
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CLIResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.Err = err
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}

// ServerProcess is a running "captcha serve".
type ServerProcess struct {
	Addr string

	cmd    *exec.Cmd
	stderr *lockedBuffer
	done   chan error
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// StartServer runs "captcha serve" with args and waits until it reports
// its listening address. The process is killed when the test ends.
func (h *CLIHarness) StartServer(args ...string) *ServerProcess {
	h.t.Helper()

	cmd := exec.Command(h.BinaryPath, append([]string{"serve"}, args...)...)
	cmd.Dir = h.WorkDir

	stdout, err := cmd.StdoutPipe()
	require.NoError(h.t, err)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	require.NoError(h.t, cmd.Start())

	p := &ServerProcess{cmd: cmd, stderr: stderr, done: make(chan error, 1)}
	addrCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if addr, ok := strings.CutPrefix(scanner.Text(), "Serving captchas on "); ok {
				addrCh <- addr
			}
		}
		io.Copy(io.Discard, stdout)
		p.done <- cmd.Wait()
	}()

	// Kill fails harmlessly once the process has exited.
	h.t.Cleanup(func() { _ = cmd.Process.Kill() })

	select {
	case p.Addr = <-addrCh:
	case err := <-p.done:
		h.t.Fatalf("server exited before listening: %v\nstderr: %s", err, stderr.String())
	case <-time.After(10 * time.Second):
		h.t.Fatalf("server did not start\nstderr: %s", stderr.String())
	}
	return p
}

// Wait waits for the server process to exit and returns its error.
func (p *ServerProcess) Wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-p.done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not exit\nstderr: %s", p.stderr.String())
		return nil
	}
}

// Stderr returns the operator log written so far.
func (p *ServerProcess) Stderr() string {
	return p.stderr.String()
}

// findProjectRoot walks up from the current directory to the directory
// holding go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// RequireSuccess fails the test if the command result indicates failure.
func (h *CLIHarness) RequireSuccess(result *CLIResult, msg string) {
	h.t.Helper()
	if !result.Success() {
		h.t.Fatalf("%s: exit=%d err=%v\nstdout: %s\nstderr: %s",
			msg, result.ExitCode, result.Err, result.Stdout, result.Stderr)
	}
}

// RequireFailure fails the test if the command result indicates success.
func (h *CLIHarness) RequireFailure(result *CLIResult, msg string) {
	h.t.Helper()
	if result.Success() {
		h.t.Fatalf("%s: command succeeded unexpectedly\nstdout: %s\nstderr: %s",
			msg, result.Stdout, result.Stderr)
	}
}
