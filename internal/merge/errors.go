package merge

import (
	"errors"
	"fmt"
)

// ErrQuarantineExists reports that the digest-suffixed quarantine target
// already exists. The source file is left untouched; two different digests
// can never produce the same name, so an existing target means the same
// divergent content was already quarantined by an earlier pass.
var ErrQuarantineExists = errors.New("quarantine target already exists")

// PathError records a per-path failure during a merge pass. Per-path
// failures are collected on the Result and never abort the pass.
type PathError struct {
	// Op is the operation that failed (walk, hash, copy_new, quarantine).
	Op string
	// Path is the path relative to the source root.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error returns a formatted per-path error message.
func (pe *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", pe.Op, pe.Path, pe.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (pe *PathError) Unwrap() error {
	return pe.Err
}
