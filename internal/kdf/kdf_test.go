package kdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rsafevault/rsafe/internal/vaulterr"
)

var testParams = Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

func TestDeriveIsDeterministic(t *testing.T) {
	secret := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	k1, err := Derive(secret, salt, testParams)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	k2, err := Derive(secret, salt, testParams)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected identical output for identical input")
	}
	if len(k1) != OutputLen {
		t.Fatalf("expected %d bytes, got %d", OutputLen, len(k1))
	}
}

func TestDeriveDiffersOnSaltOrSecret(t *testing.T) {
	base, err := Derive([]byte("secret"), []byte("saltsaltsaltsalt"), testParams)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	otherSecret, err := Derive([]byte("secreu"), []byte("saltsaltsaltsalt"), testParams)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	otherSalt, err := Derive([]byte("secret"), []byte("saltsaltsaltsalu"), testParams)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if bytes.Equal(base, otherSecret) {
		t.Fatalf("expected different output for different secret")
	}
	if bytes.Equal(base, otherSalt) {
		t.Fatalf("expected different output for different salt")
	}
}

func TestValidateRejectsBadParams(t *testing.T) {
	cases := []Params{
		{MemoryKiB: 0, Iterations: 1, Parallelism: 1},
		{MemoryKiB: 1024, Iterations: 0, Parallelism: 1},
		{MemoryKiB: 1024, Iterations: 1, Parallelism: 0},
	}
	for _, p := range cases {
		if err := p.Validate(); err == nil {
			t.Errorf("expected Validate to reject %+v", p)
		} else {
			var ve *vaulterr.Error
			if !errors.As(err, &ve) || ve.Kind != vaulterr.Kdf {
				t.Errorf("expected vaulterr.Kdf, got %v", err)
			}
		}
	}
}

func TestDefaultParamsValidate(t *testing.T) {
	if err := DefaultParams.Validate(); err != nil {
		t.Fatalf("DefaultParams should validate, got %v", err)
	}
}
