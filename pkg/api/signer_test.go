package api

import (
	"testing"
)

func TestSigner_KnownVector(t *testing.T) {
	signer := NewSigner("test-secret")

	got := signer.Sign(1700000000000, "GET", "/keywordstool")
	want := "pLnZJtUUxfdXitHXWo/EvKzookF5hlb/Rs2Fuw1W4js="
	if got != want {
		t.Errorf("Expected signature %s, got %s", want, got)
	}
}

func TestSigner_Deterministic(t *testing.T) {
	signer := NewSigner("test-secret")

	a := signer.Sign(1700000000000, "GET", "/keywordstool")
	b := signer.SignRequest(RequestDescriptor{Method: "GET", Path: "/keywordstool", IssuedAtMillis: 1700000000000})
	if a != b {
		t.Errorf("Expected identical signatures, got %s and %s", a, b)
	}
}

func TestSigner_NormalizesMethodAndQuery(t *testing.T) {
	signer := NewSigner("test-secret")
	base := signer.Sign(1700000000000, "GET", "/keywordstool")

	if got := signer.Sign(1700000000000, "get", "/keywordstool"); got != base {
		t.Errorf("Expected lowercase method to sign like uppercase")
	}
	if got := signer.Sign(1700000000000, "GET", "/keywordstool?hintKeywords=shoes&showDetail=1"); got != base {
		t.Errorf("Expected query string to be excluded from the signed message")
	}
}

func TestSigner_AnyInputChangesOutput(t *testing.T) {
	signer := NewSigner("test-secret")
	base := signer.Sign(1700000000000, "GET", "/keywordstool")

	variants := map[string]string{
		"timestamp": signer.Sign(1700000000001, "GET", "/keywordstool"),
		"method":    signer.Sign(1700000000000, "POST", "/keywordstool"),
		"path":      signer.Sign(1700000000000, "GET", "/ncc/keywords"),
		"secret":    NewSigner("other-secret").Sign(1700000000000, "GET", "/keywordstool"),
	}

	seen := map[string]string{base: "base"}
	for name, sig := range variants {
		if prev, ok := seen[sig]; ok {
			t.Errorf("Changing %s collided with %s", name, prev)
		}
		seen[sig] = name
	}
}

func TestSigningMessage(t *testing.T) {
	got := signingMessage(1700000000000, "get", "/keywordstool?x=1")
	want := "1700000000000.GET./keywordstool"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
