package serialization

import (
	"errors"
	"testing"
)

func TestValidateChecksum(t *testing.T) {
	data := []byte("convnet checkpoint data")
	sum := checksumHex(data)

	if err := ValidateChecksum(data, sum); err != nil {
		t.Errorf("ValidateChecksum of intact data: %v", err)
	}
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 1
	if err := ValidateChecksum(corrupted, sum); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestComputeChecksum_Deterministic(t *testing.T) {
	a := ComputeChecksum([]byte{1, 2, 3})
	b := ComputeChecksum([]byte{1, 2, 3})
	if a != b {
		t.Error("checksum of equal data differs")
	}
	if a == ComputeChecksum([]byte{1, 2, 4}) {
		t.Error("checksum of different data is equal")
	}
}
