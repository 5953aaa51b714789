package merge

import (
	"context"
	"testing"
)

func TestResolver_Identical(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"f.txt": "same"})
	writeTree(t, dest, map[string]string{"f.txt": "same"})

	r := Resolver{Hasher: Hasher{}}
	out, err := r.Resolve(context.Background(), source, dest, Collision{Rel: "f.txt", DestRel: "f.txt"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out.Divergent {
		t.Error("equal content reported as divergent")
	}
	if out.SourceDigest == "" {
		t.Error("source digest not carried on identical outcome")
	}
}

func TestResolver_Divergent(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"f.txt": "variant A"})
	writeTree(t, dest, map[string]string{"f.txt": "variant B"})

	r := Resolver{Hasher: Hasher{}}
	out, err := r.Resolve(context.Background(), source, dest, Collision{Rel: "f.txt", DestRel: "f.txt"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !out.Divergent {
		t.Error("different content reported as identical")
	}

	want, err := Hasher{}.Sum(context.Background(), source+"/f.txt")
	if err != nil {
		t.Fatal(err)
	}
	if out.SourceDigest != want {
		t.Errorf("outcome carries wrong source digest: %s vs %s", out.SourceDigest, want)
	}
}

func TestResolver_SameSizeDifferentContent(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"f.txt": "AAAAAAAA"})
	writeTree(t, dest, map[string]string{"f.txt": "BBBBBBBB"})

	r := Resolver{Hasher: Hasher{}}
	out, err := r.Resolve(context.Background(), source, dest, Collision{Rel: "f.txt", DestRel: "f.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Divergent {
		t.Error("same-size files with different content must be divergent")
	}
}

func TestResolver_UnreadableSide(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"f.txt": "x"})
	// destination side missing entirely

	r := Resolver{Hasher: Hasher{}}
	if _, err := r.Resolve(context.Background(), source, dest, Collision{Rel: "f.txt", DestRel: "f.txt"}); err == nil {
		t.Error("expected error when one side is unreadable")
	}
}
