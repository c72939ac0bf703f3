package p2p

import (
	"sort"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/celestiaorg/celestia-light/events"
)

var log = logging.Logger("p2p")

// maxPeerPenalty is the amount of penalties after which a peer is no
// longer selected for header requests.
const maxPeerPenalty = 3

// TrackerInfo is an immutable snapshot of the Tracker's connection state,
// recomputed on every call and never cached.
type TrackerInfo struct {
	NumConnectedPeers        uint64
	NumConnectedTrustedPeers uint64
}

// Tracker maintains the set of known peers together with their trust and
// connection state. It never dials by itself: the Bootstrapper and the
// transport's discovery feed it through Connect/Disconnect. Every
// successful state transition publishes exactly one event before the call
// returns.
type Tracker struct {
	lk    sync.RWMutex
	peers map[peer.ID]*peerStat

	bus *events.Bus
}

type peerStat struct {
	id        peer.ID
	trusted   bool
	connected bool
	penalties int
}

// NewTracker creates a Tracker publishing peer events to the given bus.
func NewTracker(bus *events.Bus) *Tracker {
	return &Tracker{
		peers: make(map[peer.ID]*peerStat),
		bus:   bus,
	}
}

// Connect marks the given peer connected, creating it on first contact.
// Connecting an already connected peer is idempotent and publishes no
// duplicate event.
func (t *Tracker) Connect(id peer.ID, trusted bool) {
	t.lk.Lock()
	defer t.lk.Unlock()

	stat, ok := t.peers[id]
	if !ok {
		stat = &peerStat{id: id}
		t.peers[id] = stat
	}
	if trusted {
		stat.trusted = true
	}
	if stat.connected {
		return
	}

	stat.connected = true
	t.bus.Publish(events.PeerConnected{ID: id, Trusted: stat.trusted})
	log.Debugw("peer connected", "peer", id, "trusted", stat.trusted)
}

// Disconnect marks the given peer disconnected. Unknown or already
// disconnected peers are a no-op and publish no event.
func (t *Tracker) Disconnect(id peer.ID) {
	t.lk.Lock()
	defer t.lk.Unlock()

	stat, ok := t.peers[id]
	if !ok || !stat.connected {
		return
	}

	stat.connected = false
	t.bus.Publish(events.PeerDisconnected{ID: id})
	log.Debugw("peer disconnected", "peer", id)
}

// Promote marks the given peer trusted, creating it if unknown.
func (t *Tracker) Promote(id peer.ID) {
	t.lk.Lock()
	defer t.lk.Unlock()

	stat, ok := t.peers[id]
	if !ok {
		stat = &peerStat{id: id}
		t.peers[id] = stat
	}
	stat.trusted = true
}

// Penalize counts a misbehavior, e.g. serving headers that failed
// verification, against the given peer. Heavily penalized peers are
// excluded from selection.
func (t *Tracker) Penalize(id peer.ID) {
	t.lk.Lock()
	defer t.lk.Unlock()

	stat, ok := t.peers[id]
	if !ok {
		return
	}
	stat.penalties++
	log.Warnw("penalized peer", "peer", id, "penalties", stat.penalties)
}

// Info derives a snapshot of the current connection counts.
func (t *Tracker) Info() TrackerInfo {
	t.lk.RLock()
	defer t.lk.RUnlock()

	var info TrackerInfo
	for _, stat := range t.peers {
		if !stat.connected {
			continue
		}
		info.NumConnectedPeers++
		if stat.trusted {
			info.NumConnectedTrustedPeers++
		}
	}
	return info
}

// Peers returns connected peers eligible for requests, trusted peers
// first. The order is deterministic for a given tracker state.
func (t *Tracker) Peers() []peer.ID {
	t.lk.RLock()
	defer t.lk.RUnlock()

	stats := make([]*peerStat, 0, len(t.peers))
	for _, stat := range t.peers {
		if stat.connected && stat.penalties < maxPeerPenalty {
			stats = append(stats, stat)
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].trusted != stats[j].trusted {
			return stats[i].trusted
		}
		return stats[i].id < stats[j].id
	})

	out := make([]peer.ID, len(stats))
	for i, stat := range stats {
		out[i] = stat.id
	}
	return out
}

// Trusted returns connected trusted peers.
func (t *Tracker) Trusted() []peer.ID {
	t.lk.RLock()
	defer t.lk.RUnlock()

	out := make([]peer.ID, 0, len(t.peers))
	for _, stat := range t.peers {
		if stat.connected && stat.trusted {
			out = append(out, stat.id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
