package merge

import (
	"context"
	"crypto/md5"  // #nosec G501 - selectable for parity with legacy digests, equality-only use
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
)

// Algorithm selects the content digest function.
type Algorithm string

const (
	// AlgorithmSHA256 is the default digest algorithm.
	AlgorithmSHA256 Algorithm = "sha256"
	// AlgorithmSHA512 is available for operators who want a wider digest.
	AlgorithmSHA512 Algorithm = "sha512"
	// AlgorithmMD5 matches the 128-bit digests of legacy migration tooling.
	// Digests are only ever compared for equality, never trusted as proof
	// of integrity, so the known weaknesses of MD5 are acceptable here.
	AlgorithmMD5 Algorithm = "md5"
)

// Valid reports whether the algorithm is supported.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSHA256, AlgorithmSHA512, AlgorithmMD5:
		return true
	}
	return false
}

// ParseAlgorithm converts a string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(s)
	if !a.Valid() {
		return "", fmt.Errorf("unsupported digest algorithm %q (want sha256, sha512, or md5)", s)
	}
	return a, nil
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case AlgorithmSHA512:
		return sha512.New()
	case AlgorithmMD5:
		return md5.New() // #nosec G401 - see AlgorithmMD5
	default:
		return sha256.New()
	}
}

// Digest is the lowercase hex rendering of a file's content hash.
// Two files are considered equal iff their digests are equal; the literal
// value is only ever used for equality tests and quarantine file naming.
type Digest string

// Hasher computes content digests by streaming file contents, so files of
// arbitrary size never need to fit in memory.
type Hasher struct {
	// Algorithm selects the hash function. Zero value means sha256.
	Algorithm Algorithm
}

// hashChunkSize is how many bytes are read between context checks.
const hashChunkSize = 1 << 20

// Sum computes the content digest of the file at path. It fails if the
// file cannot be opened or read mid-stream, and stops early when ctx is
// canceled.
func (h Hasher) Sum(ctx context.Context, path string) (Digest, error) {
	// #nosec G304 - path comes from the validated merge roots
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	algo := h.Algorithm
	if algo == "" {
		algo = AlgorithmSHA256
	}
	hw := algo.newHash()

	buf := make([]byte, hashChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		if n > 0 {
			hw.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", path, err)
		}
	}

	return Digest(fmt.Sprintf("%x", hw.Sum(nil))), nil
}
