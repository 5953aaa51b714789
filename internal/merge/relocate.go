package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauern/dirmerge/internal/logging"
)

// Relocator performs the filesystem mutations of a merge pass: copying new
// files into the destination and quarantining divergent files into the
// inspection tree.
type Relocator struct{}

// CopyNew copies the file at rel from the source tree into the destination
// tree, creating parent directories as needed and preserving mode and
// mtime. Returns the number of bytes copied.
func (Relocator) CopyNew(ctx context.Context, sourceRoot, destRoot, rel string) (int64, error) {
	src := filepath.Join(sourceRoot, rel)
	dst := filepath.Join(destRoot, rel)
	return copyFile(ctx, src, dst)
}

// QuarantineName returns the inspection-tree relative path for a divergent
// source file: the relative path in its source spelling with the lowercase
// hex digest of the source content appended after a dot. The same divergent
// content always maps to the same name; different content never collides.
func QuarantineName(rel string, digest Digest) string {
	return rel + "." + string(digest)
}

// Quarantine copies the divergent source file at rel into the inspection
// tree under its digest-suffixed name. If the exact target already exists
// the operation is a no-op returning ErrQuarantineExists: an earlier pass
// already preserved this content variant, and overwriting could destroy
// evidence if the collision instead indicates a digest-logic fault.
func (Relocator) Quarantine(ctx context.Context, sourceRoot, inspectRoot, rel string, digest Digest) (int64, error) {
	src := filepath.Join(sourceRoot, rel)
	dst := filepath.Join(inspectRoot, QuarantineName(rel, digest))

	if _, err := os.Lstat(dst); err == nil {
		return 0, fmt.Errorf("%q: %w", dst, ErrQuarantineExists)
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to stat quarantine target %q: %w", dst, err)
	}

	n, err := copyFile(ctx, src, dst)
	if err != nil {
		return 0, err
	}

	logging.Debug("quarantined divergent file",
		logging.Path(rel),
		logging.Operation("quarantine"),
		logging.Digest(string(digest)),
	)

	return n, nil
}

// copyFile copies src to dst through a temporary name in dst's directory,
// renaming into place only after the content is fully written. A canceled
// or failed copy never leaves a partial file at dst. Mode and mtime are
// carried over from the source.
func copyFile(ctx context.Context, src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source %q: %w", src, err)
	}

	// #nosec G304 - src is inside the validated source root
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source %q: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstDir := filepath.Dir(dst)
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create directory %q: %w", dstDir, err)
	}

	tmp, err := os.CreateTemp(dstDir, ".dirmerge-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file in %q: %w", dstDir, err)
	}
	tmpName := tmp.Name()

	n, err := copyContent(ctx, tmp, srcFile)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, srcInfo.Mode().Perm())
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to copy content to %q: %w", dst, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to rename %q into place: %w", tmpName, err)
	}

	// mtime preservation is best effort; the copy itself already succeeded
	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		logging.Warn("failed to preserve mtime",
			logging.Path(dst),
			logging.Err(err),
		)
	}

	return n, nil
}

// copyChunkSize is how many bytes are copied between context checks.
const copyChunkSize = 1 << 20

// copyContent streams src into dst in chunks, aborting between chunks when
// ctx is canceled.
func copyContent(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := io.CopyN(dst, src, copyChunkSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
