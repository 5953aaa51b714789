package cli

import (
	"errors"

	"github.com/klauern/dirmerge/internal/validation"
)

// Exit codes reported by the process.
const (
	// ExitOK means the pass completed; per-path errors do not change it.
	ExitOK = 0
	// ExitFatal covers preflight failures and self-test failures.
	ExitFatal = 1
	// ExitUsage covers missing or invalid required arguments.
	ExitUsage = 2
)

// UsageError is a command-line usage problem (missing or invalid required
// directory). It maps to exit code 2.
type UsageError struct {
	Message string
}

// Error returns the usage problem description.
func (e *UsageError) Error() string {
	return e.Message
}

// ExitCodeFor maps an error returned by Run to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var uerr *UsageError
	if errors.As(err, &uerr) {
		return ExitUsage
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return ExitFatal
	}
	return ExitFatal
}
