package share

import (
	"context"
	"errors"

	tmbytes "github.com/cometbft/cometbft/libs/bytes"
)

// ErrNotAvailable is returned when sampling could not retrieve and verify
// enough shares for a header within its time budget.
var ErrNotAvailable = errors.New("share: data not available")

// Share is an abstract piece of block data addressed by its index within
// the block's share space.
type Share struct {
	Index int
	Data  []byte
}

// Getter requests shares from the network. It is implemented by the
// transport layer the node is constructed with.
type Getter interface {
	// GetShares requests the shares with the given indices for the block at
	// the given height.
	GetShares(ctx context.Context, height uint64, indices []int) ([]Share, error)
}

// Verifier checks a share against the data commitment of its header.
// Implemented by the chain-specific cryptographic layer.
type Verifier interface {
	Verify(s Share, commitment tmbytes.HexBytes) bool
}
