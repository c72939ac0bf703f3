package header

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested header is not available locally.
var ErrNotFound = errors.New("header: not found")

// VerifyError is thrown during header verification when an untrusted header
// does not follow from its trusted predecessor.
type VerifyError struct {
	Reason error
}

func (vr *VerifyError) Error() string {
	return fmt.Sprintf("header: verify: %s", vr.Reason)
}

func (vr *VerifyError) Unwrap() error {
	return vr.Reason
}
