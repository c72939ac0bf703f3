package events

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Event is a notification published by one of the node's subsystems.
// Exactly one subsystem produces each variant. Events are immutable after
// creation and are delivered to the consumer in global publish order.
type Event interface {
	fmt.Stringer
	isEvent()
}

// ConnectingToBootnodes is published once per node start, before any dial
// attempt to the configured bootstrappers is made.
type ConnectingToBootnodes struct{}

func (ConnectingToBootnodes) isEvent() {}

func (ConnectingToBootnodes) String() string {
	return "connecting to bootnodes"
}

// PeerConnected is published when a peer transitions to the connected state.
type PeerConnected struct {
	ID      peer.ID
	Trusted bool
}

func (PeerConnected) isEvent() {}

func (e PeerConnected) String() string {
	return fmt.Sprintf("peer connected: %s, trusted: %t", e.ID, e.Trusted)
}

// PeerDisconnected is published when a connected peer disconnects.
type PeerDisconnected struct {
	ID peer.ID
}

func (PeerDisconnected) isEvent() {}

func (e PeerDisconnected) String() string {
	return fmt.Sprintf("peer disconnected: %s", e.ID)
}

// SamplingStarted is published when sampling of a stored header begins.
type SamplingStarted struct {
	Height uint64
}

func (SamplingStarted) isEvent() {}

func (e SamplingStarted) String() string {
	return fmt.Sprintf("sampling started at height %d", e.Height)
}

// SamplingFinished is published when sampling of a height completes.
// Accepted is true iff enough shares were retrieved and verified against
// the header's commitment within the sampling timeout.
type SamplingFinished struct {
	Height   uint64
	Accepted bool
}

func (SamplingFinished) isEvent() {}

func (e SamplingFinished) String() string {
	return fmt.Sprintf("sampling finished at height %d, accepted: %t", e.Height, e.Accepted)
}

// FetchingHeadersStarted is published when the syncer begins fetching the
// inclusive header window [From:To].
type FetchingHeadersStarted struct {
	From, To uint64
}

func (FetchingHeadersStarted) isEvent() {}

func (e FetchingHeadersStarted) String() string {
	return fmt.Sprintf("fetching headers [%d:%d]", e.From, e.To)
}

// FetchingHeadersFinished is published when the window [From:To] has been
// fetched, verified and stored.
type FetchingHeadersFinished struct {
	From, To uint64
}

func (FetchingHeadersFinished) isEvent() {}

func (e FetchingHeadersFinished) String() string {
	return fmt.Sprintf("fetched headers [%d:%d]", e.From, e.To)
}

// FetchingHeadersFailed is published when fetching the window [From:To]
// failed after the syncer exhausted its retry budget.
type FetchingHeadersFailed struct {
	From, To uint64
	Err      error
}

func (FetchingHeadersFailed) isEvent() {}

func (e FetchingHeadersFailed) String() string {
	return fmt.Sprintf("fetching headers [%d:%d] failed: %s", e.From, e.To, e.Err)
}
