// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running full merge passes through the CLI,
// fixture helpers for building directory trees, and assertions on the
// resulting tree state.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/dirmerge/internal/cli"
	"github.com/klauern/dirmerge/internal/ui"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the process exit code the error maps to.
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, the three merge roots, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string

	// Source, Dest, and Inspect are the three merge roots, created fresh
	// for every harness.
	Source  string
	Dest    string
	Inspect string
}

// NewHarness creates a new E2E test harness with an isolated DIRMERGE_HOME
// and fresh source/destination/inspection trees.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	ui.DisableColors()

	homeDir := t.TempDir()
	h := &Harness{
		t:       t,
		homeDir: homeDir,
		Source:  t.TempDir(),
		Dest:    t.TempDir(),
		Inspect: t.TempDir(),
	}

	t.Setenv("DIRMERGE_HOME", homeDir)
	t.Setenv("DIRMERGE_WORKERS", "")
	t.Setenv("DIRMERGE_ALGORITHM", "")
	t.Setenv("DIRMERGE_NO_COLOR", "1")

	return h
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Merge runs one merge pass over the harness trees with any extra flags.
func (h *Harness) Merge(extraArgs ...string) *Result {
	h.t.Helper()
	args := append([]string{
		"-s", h.Source,
		"-d", h.Dest,
		"-i", h.Inspect,
	}, extraArgs...)
	return h.Run(args...)
}

// Run executes a CLI command with the given arguments and captures the output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	// Prepend "dirmerge" as the program name if not provided
	if len(args) == 0 || args[0] != "dirmerge" {
		args = append([]string{"dirmerge"}, args...)
	}

	// Capture stdout
	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently to avoid pipe buffer deadlock.
	// If the command outputs more than the pipe buffer size (~64KB),
	// it will block waiting for the buffer to drain.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	// Restore stdout and close writer to signal EOF to the reader goroutine
	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: cli.ExitCodeFor(cmdErr),
	}
}

// SourcePath returns an absolute path inside the source tree.
func (h *Harness) SourcePath(rel string) string {
	return filepath.Join(h.Source, rel)
}

// DestPath returns an absolute path inside the destination tree.
func (h *Harness) DestPath(rel string) string {
	return filepath.Join(h.Dest, rel)
}

// InspectPath returns an absolute path inside the inspection tree.
func (h *Harness) InspectPath(rel string) string {
	return filepath.Join(h.Inspect, rel)
}
