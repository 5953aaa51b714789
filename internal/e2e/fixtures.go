package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/dirmerge/internal/merge"
)

// Fixture provides helpers for creating test trees in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o640); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// MkdirAll creates a directory and all parent directories relative to the base.
func (f *Fixture) MkdirAll(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)
	if err := os.MkdirAll(fullPath, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", fullPath, err)
	}
	return fullPath
}

// Digest computes the content digest of a file relative to the base,
// using the default algorithm. Useful for predicting quarantine names.
func (f *Fixture) Digest(relPath string) merge.Digest {
	f.t.Helper()
	d, err := merge.Hasher{}.Sum(context.Background(), filepath.Join(f.baseDir, relPath))
	if err != nil {
		f.t.Fatalf("failed to hash %s: %v", relPath, err)
	}
	return d
}
