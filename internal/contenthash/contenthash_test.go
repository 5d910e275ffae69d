package contenthash_test

import (
	"testing"

	"picvault/internal/contenthash"
)

func TestDigestIsDeterministic(t *testing.T) {
	a := contenthash.Digest([]byte("payload"))
	b := contenthash.Digest([]byte("payload"))
	if a != b {
		t.Fatalf("digest not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestDigestDistinguishesBytes(t *testing.T) {
	if contenthash.Digest([]byte("a")) == contenthash.Digest([]byte("b")) {
		t.Fatal("distinct payloads must not share a digest")
	}
}

func TestDigestKnownVector(t *testing.T) {
	// SHA-256 of the empty string.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := contenthash.Digest(nil); got != want {
		t.Fatalf("empty digest mismatch: %s", got)
	}
}
