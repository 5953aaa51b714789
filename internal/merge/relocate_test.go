package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelocator_CopyNew(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()

	writeTree(t, source, map[string]string{"a/b/c.txt": "payload"})

	srcPath := filepath.Join(source, "a/b/c.txt")
	mtime := time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(srcPath, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(srcPath, 0o754); err != nil {
		t.Fatal(err)
	}

	var r Relocator
	n, err := r.CopyNew(context.Background(), source, dest, filepath.Join("a", "b", "c.txt"))
	if err != nil {
		t.Fatalf("CopyNew failed: %v", err)
	}
	if n != int64(len("payload")) {
		t.Errorf("expected %d bytes copied, got %d", len("payload"), n)
	}

	dstPath := filepath.Join(dest, "a", "b", "c.txt")
	data, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("destination file missing: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content mismatch: %q", data)
	}

	info, err := os.Stat(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o754 {
		t.Errorf("expected mode 0754 preserved, got %v", info.Mode().Perm())
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("expected mtime %v preserved, got %v", mtime, info.ModTime())
	}
}

func TestRelocator_CopyNew_MissingSource(t *testing.T) {
	var r Relocator
	_, err := r.CopyNew(context.Background(), t.TempDir(), t.TempDir(), "gone.txt")
	if err == nil {
		t.Error("expected error for missing source file")
	}
}

func TestRelocator_CopyNew_NoPartialFileOnCancel(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"big.bin": "some content"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var r Relocator
	if _, err := r.CopyNew(ctx, source, dest, "big.bin"); err == nil {
		t.Fatal("expected error from canceled copy")
	}

	if _, err := os.Stat(filepath.Join(dest, "big.bin")); !os.IsNotExist(err) {
		t.Error("canceled copy left a file at the destination path")
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("canceled copy left temp files behind: %v", entries)
	}
}

func TestQuarantineName(t *testing.T) {
	name := QuarantineName(filepath.Join("docs", "report.pdf"), Digest("abcdef12"))
	want := filepath.Join("docs", "report.pdf") + ".abcdef12"
	if name != want {
		t.Errorf("expected %q, got %q", want, name)
	}
}

func TestQuarantineName_PreservesSourceSpelling(t *testing.T) {
	// Decomposed (NFD) spelling, as an HFS+ archival tree would store it.
	// The quarantine name must carry the path byte-for-byte as the source
	// spelled it; normalization is only for cross-tree existence checks.
	nfd := "résumé.txt"
	name := QuarantineName(nfd, Digest("ab12"))
	if name != nfd+".ab12" {
		t.Errorf("source spelling was altered: %q", name)
	}
}

func TestRelocator_Quarantine(t *testing.T) {
	source := t.TempDir()
	inspect := t.TempDir()
	writeTree(t, source, map[string]string{"clash.txt": "divergent bytes"})

	digest := Digest("0011aabb")
	var r Relocator
	n, err := r.Quarantine(context.Background(), source, inspect, "clash.txt", digest)
	if err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}
	if n != int64(len("divergent bytes")) {
		t.Errorf("expected %d bytes, got %d", len("divergent bytes"), n)
	}

	data, err := os.ReadFile(filepath.Join(inspect, "clash.txt.0011aabb"))
	if err != nil {
		t.Fatalf("quarantine target missing: %v", err)
	}
	if string(data) != "divergent bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestRelocator_Quarantine_ExistingTargetIsNoOp(t *testing.T) {
	source := t.TempDir()
	inspect := t.TempDir()
	writeTree(t, source, map[string]string{"clash.txt": "new attempt"})
	writeTree(t, inspect, map[string]string{"clash.txt.0011aabb": "first pass content"})

	var r Relocator
	_, err := r.Quarantine(context.Background(), source, inspect, "clash.txt", Digest("0011aabb"))
	if !errors.Is(err, ErrQuarantineExists) {
		t.Fatalf("expected ErrQuarantineExists, got %v", err)
	}

	// The earlier quarantined content must never be overwritten.
	data, err := os.ReadFile(filepath.Join(inspect, "clash.txt.0011aabb"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first pass content" {
		t.Errorf("existing quarantine file was overwritten: %q", data)
	}
}

func TestRelocator_Quarantine_NestedPath(t *testing.T) {
	source := t.TempDir()
	inspect := t.TempDir()
	writeTree(t, source, map[string]string{"a/b/clash.txt": "x"})

	var r Relocator
	if _, err := r.Quarantine(context.Background(), source, inspect, filepath.Join("a", "b", "clash.txt"), Digest("ff")); err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inspect, "a", "b", "clash.txt.ff")); err != nil {
		t.Errorf("nested quarantine target missing: %v", err)
	}
}
