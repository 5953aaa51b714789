package merge

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauern/dirmerge/internal/ui"
)

// SelfTest exercises a full merge pass inside a throwaway sandbox and
// checks the observable merge properties: copy-if-absent, skip-if-identical,
// quarantine-if-divergent, idempotence, and re-divergence. When seedRoot is
// non-empty its regular files are copied into the sandbox source tree as
// extra material; the real destination and inspection trees named on the
// command line are never touched. Check results are written to out; the
// returned flag is true if any check failed.
func SelfTest(ctx context.Context, seedRoot string, opts Options, out io.Writer) (failed bool, err error) {
	sandbox, err := os.MkdirTemp("", "dirmerge-selftest-")
	if err != nil {
		return true, fmt.Errorf("failed to create sandbox: %w", err)
	}
	defer func() { _ = os.RemoveAll(sandbox) }()

	source := filepath.Join(sandbox, "source")
	dest := filepath.Join(sandbox, "destination")
	inspect := filepath.Join(sandbox, "inspection")
	for _, dir := range []string{source, dest, inspect} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return true, fmt.Errorf("failed to create sandbox tree: %w", err)
		}
	}

	if seedRoot != "" {
		if err := seedFrom(ctx, seedRoot, source); err != nil {
			return true, fmt.Errorf("failed to seed sandbox from %q: %w", seedRoot, err)
		}
	}

	const (
		copyMeContent     = "I HAVE TO BE COPIED"
		divergentSource   = "collision variant A" // same size as the dest side,
		divergentDest     = "collision variant B" // so only content distinguishes them
		identicalContent  = "same on both sides"
		redivergedContent = "collision variant C, reworked"
	)

	fixtures := map[string]string{
		filepath.Join(source, "COPY_ME"):            copyMeContent,
		filepath.Join(source, "INSPECT_ME"):         divergentSource,
		filepath.Join(dest, "INSPECT_ME"):           divergentDest,
		filepath.Join(source, "SAME"):               identicalContent,
		filepath.Join(dest, "SAME"):                 identicalContent,
		filepath.Join(source, "nested", "deep.txt"): "nested new file",
	}
	for path, content := range fixtures {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return true, err
		}
		if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
			return true, err
		}
	}

	opts.DryRun = false
	opts.Progress = nil
	m := New(opts)
	hasher := Hasher{Algorithm: opts.Algorithm}

	check := func(name string, ok bool) {
		if ok {
			fmt.Fprintln(out, ui.StatusSuccess(name))
		} else {
			fmt.Fprintln(out, ui.StatusError(name))
			failed = true
		}
	}

	// First pass: copy-if-absent, skip-if-identical, quarantine-if-divergent.
	result, err := m.Run(ctx, source, dest, inspect)
	if err != nil {
		return true, fmt.Errorf("first pass failed: %w", err)
	}

	check("first pass completes without per-path errors", result.Success())
	check("new files are copied", fileHasContent(filepath.Join(dest, "COPY_ME"), copyMeContent))
	check("nested new files are copied", fileHasContent(filepath.Join(dest, "nested", "deep.txt"), "nested new file"))
	check("identical collisions are skipped", result.IdenticalSkipped >= 1 && !anyQuarantineFor(inspect, "SAME"))

	srcDigest, err := hasher.Sum(ctx, filepath.Join(source, "INSPECT_ME"))
	if err != nil {
		return true, err
	}
	quarantined := filepath.Join(inspect, QuarantineName("INSPECT_ME", srcDigest))
	check("divergent collisions are quarantined under the digest name",
		fileHasContent(quarantined, divergentSource))
	check("destination content is untouched by quarantine",
		fileHasContent(filepath.Join(dest, "INSPECT_ME"), divergentDest))
	check("quarantined count matches", result.Quarantined == 1)

	// Second pass: nothing new, nothing re-quarantined.
	second, err := m.Run(ctx, source, dest, inspect)
	if err != nil {
		return true, fmt.Errorf("second pass failed: %w", err)
	}
	check("second pass copies nothing", second.CopiedNew == 0)
	check("second pass quarantines nothing", second.Quarantined == 0)
	check("already-quarantined divergence is reported, not overwritten",
		second.QuarantineExists == 1 && fileHasContent(quarantined, divergentSource))

	// Re-divergence: a changed source variant gets its own quarantine name.
	if err := os.WriteFile(filepath.Join(source, "INSPECT_ME"), []byte(redivergedContent), 0o640); err != nil {
		return true, err
	}
	newDigest, err := hasher.Sum(ctx, filepath.Join(source, "INSPECT_ME"))
	if err != nil {
		return true, err
	}
	third, err := m.Run(ctx, source, dest, inspect)
	if err != nil {
		return true, fmt.Errorf("third pass failed: %w", err)
	}
	check("re-diverged content is quarantined under a new name",
		third.Quarantined == 1 &&
			fileHasContent(filepath.Join(inspect, QuarantineName("INSPECT_ME", newDigest)), redivergedContent))
	check("the earlier quarantined variant is left untouched",
		fileHasContent(quarantined, divergentSource))

	return failed, nil
}

func fileHasContent(path, want string) bool {
	// #nosec G304 - sandbox paths only
	data, err := os.ReadFile(path)
	return err == nil && string(data) == want
}

// anyQuarantineFor reports whether any digest-suffixed variant of rel
// exists in the inspection tree.
func anyQuarantineFor(inspectRoot, rel string) bool {
	matches, err := filepath.Glob(filepath.Join(inspectRoot, rel+".*"))
	return err == nil && len(matches) > 0
}

// seedFrom copies the regular files of root into dir, preserving relative
// paths. Seed material only adds source-side files, so it can never make
// the self-test's assertions flaky.
func seedFrom(ctx context.Context, root, dir string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		_, err = copyFile(ctx, path, filepath.Join(dir, rel))
		return err
	})
}
