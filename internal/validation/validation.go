// Package validation provides pre-merge validation of the three root
// directories. A failed root check is the only fatal error a merge pass
// can produce; everything past preflight is recorded per path.
package validation

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Error represents a root-directory validation failure.
type Error struct {
	// Root is the role of the directory that failed (source, destination, inspection).
	Root string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("invalid %s root: %s: %v", ve.Root, ve.Message, ve.Err)
	}
	return fmt.Sprintf("invalid %s root: %s", ve.Root, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Roots checks the preconditions of a merge pass: the source must be a
// readable directory, the destination readable and writable, and the
// inspection root writable. Checked once up front; the first failure is
// returned. When probeWrites is false (a dry run) writability is not
// probed, so nothing at all is written to the roots; they only have to
// exist as readable directories.
func Roots(source, dest, inspect string, probeWrites bool) error {
	if err := readableDir("source", source); err != nil {
		return err
	}
	if err := readableDir("destination", dest); err != nil {
		return err
	}
	if err := isDir("inspection", inspect); err != nil {
		return err
	}
	if !probeWrites {
		return nil
	}
	if err := writableDir("destination", dest); err != nil {
		return err
	}
	return writableDir("inspection", inspect)
}

func isDir(root, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Root: root, Message: "directory does not exist", Err: err}
	}
	if !info.IsDir() {
		return &Error{Root: root, Message: fmt.Sprintf("%q is not a directory", path)}
	}
	return nil
}

func readableDir(root, path string) error {
	if err := isDir(root, path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return &Error{Root: root, Message: "directory is not readable", Err: err}
	}
	defer func() { _ = f.Close() }()
	// An empty directory returns io.EOF, which is fine.
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Root: root, Message: "directory is not readable", Err: err}
	}
	return nil
}

// writableDir probes writability by creating and removing a temp file.
// Permission bits alone are not trustworthy across mount options and ACLs.
func writableDir(root, path string) error {
	probe, err := os.CreateTemp(path, ".dirmerge-probe-*")
	if err != nil {
		return &Error{Root: root, Message: "directory is not writable", Err: err}
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return &Error{Root: root, Message: "failed to remove write probe", Err: err}
	}
	return nil
}
