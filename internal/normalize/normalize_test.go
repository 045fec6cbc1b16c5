package normalize

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

func TestSecretTrimsSurroundingWhitespace(t *testing.T) {
	got, err := Secret("  123456  ")
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if !bytes.Equal(got, []byte("123456")) {
		t.Fatalf("expected trimmed output, got %q", got)
	}
}

func TestSecretPreservesInteriorWhitespace(t *testing.T) {
	got, err := Secret("apple banana cherry")
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if !bytes.Equal(got, []byte("apple banana cherry")) {
		t.Fatalf("expected interior whitespace preserved, got %q", got)
	}
}

func TestSecretNFCEquivalence(t *testing.T) {
	// "café" (single composed codepoint) vs "café" (e followed
	// by a combining acute accent): distinct byte sequences, canonically
	// equivalent under NFC.
	composedInput := "café"
	decomposedInput := "café"

	if composedInput == decomposedInput {
		t.Fatalf("test inputs must differ at the byte level for this test to be meaningful")
	}

	composed, err := Secret(composedInput)
	if err != nil {
		t.Fatalf("Secret composed: %v", err)
	}
	decomposed, err := Secret(decomposedInput)
	if err != nil {
		t.Fatalf("Secret decomposed: %v", err)
	}
	if !bytes.Equal(composed, decomposed) {
		t.Fatalf("expected NFC to unify composed/decomposed forms: %q vs %q", composed, decomposed)
	}
}

func TestSecretRejectsEmpty(t *testing.T) {
	_, err := Secret("   ")
	if !errors.Is(err, vaulterr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
