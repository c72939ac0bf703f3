package header

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Exchange requests headers from remote peers. It is implemented by the
// transport layer the node is constructed with; implementations are free to
// fan a range request out to several of the given peers in parallel with
// first-valid-response-wins semantics.
type Exchange interface {
	// Head requests the chain head the given peer currently reports.
	Head(ctx context.Context, from peer.ID) (*Header, error)
	// GetRangeByHeight requests the inclusive range of headers [from:to]
	// from any of the given peers.
	GetRangeByHeight(ctx context.Context, peers []peer.ID, from, to uint64) ([]*Header, error)
}

// Getter is a minimal read access to locally stored headers.
type Getter interface {
	// GetByHeight returns the locally stored header at the given height.
	GetByHeight(height uint64) (*Header, error)
}
