package merge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// Result contains the aggregate outcome of one merge pass. Workers record
// into it concurrently through the add methods; read it only after the pass
// returns.
type Result struct {
	mu sync.Mutex

	// CopiedNew counts files copied into the destination because they were
	// absent there.
	CopiedNew int
	// IdenticalSkipped counts collisions whose digests matched.
	IdenticalSkipped int
	// Quarantined counts divergent files copied into the inspection tree.
	Quarantined int
	// QuarantineExists counts divergent files whose quarantine target
	// already existed from an earlier pass; nothing was written for them.
	QuarantineExists int
	// SkippedNonRegular counts symlinks and special files the walk ignored.
	SkippedNonRegular int
	// BytesCopied is the total content bytes written (new copies plus
	// quarantined copies).
	BytesCopied int64
	// Errors holds every per-path failure. The pass continues past them.
	Errors []*PathError

	// DryRun indicates no filesystem mutation was performed; the counters
	// reflect what a real pass would have done.
	DryRun bool
}

func (r *Result) addCopiedNew(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CopiedNew++
	r.BytesCopied += bytes
}

func (r *Result) addIdentical() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IdenticalSkipped++
}

func (r *Result) addQuarantined(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Quarantined++
	r.BytesCopied += bytes
}

func (r *Result) addQuarantineExists() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.QuarantineExists++
}

func (r *Result) addError(pe *PathError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, pe)
}

// ErrorCount returns the number of per-path failures.
func (r *Result) ErrorCount() int {
	return len(r.Errors)
}

// Success returns true if no per-path failure occurred.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

// TotalProcessed returns the number of paths that reached a terminal
// classification (copied, identical, quarantined, already quarantined, or
// failed).
func (r *Result) TotalProcessed() int {
	return r.CopiedNew + r.IdenticalSkipped + r.Quarantined + r.QuarantineExists + len(r.Errors)
}

// Summary returns a human-readable summary of the merge pass.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("Processed %d file(s), %s copied\n",
		r.TotalProcessed(), humanize.Bytes(uint64(r.BytesCopied)))) // #nosec G115 - byte totals are non-negative

	sb.WriteString(fmt.Sprintf("  Copied new:  %d\n", r.CopiedNew))
	sb.WriteString(fmt.Sprintf("  Identical:   %d\n", r.IdenticalSkipped))
	sb.WriteString(fmt.Sprintf("  Quarantined: %d\n", r.Quarantined))
	if r.QuarantineExists > 0 {
		sb.WriteString(fmt.Sprintf("  Already quarantined: %d\n", r.QuarantineExists))
	}
	if r.SkippedNonRegular > 0 {
		sb.WriteString(fmt.Sprintf("  Skipped:     %d non-regular file(s)\n", r.SkippedNonRegular))
	}
	sb.WriteString(fmt.Sprintf("  Errors:      %d\n", len(r.Errors)))

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, pe := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", pe.Error()))
		}
	}

	return sb.String()
}
