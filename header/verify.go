package header

import (
	"bytes"
	"fmt"
)

// Verify validates the given untrusted Header against h, which must be its
// direct predecessor.
func (h *Header) Verify(untrusted *Header) error {
	if untrusted.IsZero() {
		return &VerifyError{Reason: fmt.Errorf("zero header after height %d", h.Height)}
	}

	if untrusted.Height != h.Height+1 {
		return &VerifyError{
			Reason: fmt.Errorf("expected height %d, got %d", h.Height+1, untrusted.Height),
		}
	}

	if !bytes.Equal(untrusted.LastHash, h.Hash) {
		return &VerifyError{
			Reason: fmt.Errorf("expected new header to point to last header hash (%X), but got %X",
				h.Hash,
				untrusted.LastHash,
			),
		}
	}

	return nil
}
