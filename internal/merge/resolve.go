package merge

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/klauern/dirmerge/internal/logging"
)

// Outcome is the result of comparing a collision's two sides by content.
type Outcome struct {
	// Divergent is true when the source and destination digests differ.
	Divergent bool
	// SourceDigest is the source file's digest. Set on every outcome; the
	// relocator uses it to name the quarantined copy of a divergent file.
	SourceDigest Digest
}

// Resolver decides whether a collision is identical or divergent by hashing
// both sides of the path.
type Resolver struct {
	Hasher Hasher
}

// Resolve hashes the source and destination files for the collision and
// compares the digests. Errors from either side propagate to the caller,
// which records them without aborting the pass.
func (r Resolver) Resolve(ctx context.Context, sourceRoot, destRoot string, c Collision) (Outcome, error) {
	sourceDigest, err := r.Hasher.Sum(ctx, filepath.Join(sourceRoot, c.Rel))
	if err != nil {
		return Outcome{}, fmt.Errorf("hashing source side: %w", err)
	}

	destDigest, err := r.Hasher.Sum(ctx, filepath.Join(destRoot, c.DestRel))
	if err != nil {
		return Outcome{}, fmt.Errorf("hashing destination side: %w", err)
	}

	out := Outcome{
		Divergent:    sourceDigest != destDigest,
		SourceDigest: sourceDigest,
	}

	logging.Debug("collision resolved",
		logging.Path(c.Rel),
		logging.Operation("resolve"),
		logging.Digest(string(sourceDigest)),
	)

	return out, nil
}
