package merge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/klauern/dirmerge/internal/logging"
)

// Collision identifies a relative path present in both trees.
type Collision struct {
	// Rel is the path relative to the source root, in the source's spelling.
	Rel string
	// DestRel is the spelling under which the path exists in the
	// destination. It differs from Rel only when the destination stores a
	// different Unicode normalization form (HFS+ archival sources emit NFD
	// while most destinations store NFC).
	DestRel string
}

// DiffResult partitions the source tree's regular files by presence in the
// destination. Both slices are sorted lexicographically by relative path so
// downstream processing is deterministic.
type DiffResult struct {
	// New holds source-relative paths absent from the destination.
	New []string
	// Existing holds paths present in both trees.
	Existing []Collision
	// SkippedNonRegular counts symlinks and special files the walk ignored.
	SkippedNonRegular int
	// WalkErrors holds per-path failures from the walk itself, such as an
	// unreadable subdirectory. The affected subtree is skipped and the walk
	// continues.
	WalkErrors []*PathError
}

// Diff walks sourceRoot and classifies every regular file by whether a file
// exists at the same relative path under destRoot. Files present only in
// the destination are never visited. An unreadable entry is recorded on the
// DiffResult and its subtree skipped; only cancellation stops the walk.
func Diff(ctx context.Context, sourceRoot, destRoot string) (*DiffResult, error) {
	defer logging.Timer("diff")()

	result := &DiffResult{}

	err := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rel, relErr := filepath.Rel(sourceRoot, path)
			if relErr != nil {
				rel = path
			}
			result.WalkErrors = append(result.WalkErrors, &PathError{Op: "walk", Path: rel, Err: err})
			logging.Warn("skipping unreadable entry",
				logging.Path(rel),
				logging.Operation("diff"),
				logging.Err(err),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			result.SkippedNonRegular++
			logging.Debug("skipping non-regular file",
				logging.Path(path),
				logging.Operation("diff"),
			)
			return nil
		}

		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %q: %w", path, err)
		}

		destRel, exists := destSpelling(destRoot, rel)
		if exists {
			result.Existing = append(result.Existing, Collision{Rel: rel, DestRel: destRel})
		} else {
			result.New = append(result.New, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result.New)
	sort.Slice(result.Existing, func(i, j int) bool {
		return result.Existing[i].Rel < result.Existing[j].Rel
	})

	logging.Debug("tree diff complete",
		logging.Tree("source"),
		logging.Operation("diff"),
		logging.Count(len(result.New)+len(result.Existing)),
	)

	return result, nil
}

// destSpelling reports whether a regular file exists under destRoot at rel,
// also probing the NFC-normalized spelling when it differs. Returns the
// spelling that exists on disk.
func destSpelling(destRoot, rel string) (string, bool) {
	if regularFileExists(filepath.Join(destRoot, rel)) {
		return rel, true
	}
	if nfc := norm.NFC.String(rel); nfc != rel && regularFileExists(filepath.Join(destRoot, nfc)) {
		return nfc, true
	}
	return "", false
}

func regularFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
