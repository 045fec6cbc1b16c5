package zeroize

import "testing"

func TestBytesZeroesBuffer(t *testing.T) {
	b := []byte("super secret material")
	Bytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %v", i, b)
		}
	}
}

func TestBytesHandlesEmpty(t *testing.T) {
	Bytes(nil)
	Bytes([]byte{})
}
