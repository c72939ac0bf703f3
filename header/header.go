package header

import (
	"fmt"
	"time"

	tmbytes "github.com/cometbft/cometbft/libs/bytes"
)

// Header is the minimal chain header a light node synchronizes and samples
// against. The concrete wire format of the underlying chain is a transport
// concern; the node only relies on heights, hash linkage and the data
// commitment.
type Header struct {
	// Height is the monotonically increasing position of the header in the
	// chain, starting at 1 for genesis.
	Height uint64 `json:"height"`
	// Time is the creation timestamp reported by the header.
	Time time.Time `json:"time"`
	// Hash identifies the header.
	Hash tmbytes.HexBytes `json:"hash"`
	// LastHash is the Hash of the preceding header.
	LastHash tmbytes.HexBytes `json:"last_hash"`
	// DataRoot commits to the block data availability sampling verifies
	// shares against.
	DataRoot tmbytes.HexBytes `json:"data_root"`
}

// IsZero reports whether the header is uninitialized.
func (h *Header) IsZero() bool {
	return h == nil || h.Height == 0
}

func (h *Header) String() string {
	return fmt.Sprintf("header at height %d, hash: %s", h.Height, h.Hash)
}
