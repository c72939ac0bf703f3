package headertest

import (
	"context"
	"errors"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/celestiaorg/celestia-light/header"
)

// ErrTimeout simulates a request that timed out on the transport layer.
var ErrTimeout = errors.New("headertest: request timed out")

// Exchange is a header.Exchange test double backed by a Generator. By
// default every peer reports the generator's head and serves any range;
// per-peer heads, failures and bad responses can be injected.
type Exchange struct {
	lk sync.Mutex

	gen *Generator

	heads    map[peer.ID]uint64
	failures map[peer.ID]*failure
	corrupt  map[peer.ID]bool

	headCalls  map[peer.ID]int
	rangeCalls map[peer.ID]int
}

type failure struct {
	err   error
	times int // negative means always
}

// NewExchange creates an Exchange serving headers from gen.
func NewExchange(gen *Generator) *Exchange {
	return &Exchange{
		gen:        gen,
		heads:      make(map[peer.ID]uint64),
		failures:   make(map[peer.ID]*failure),
		corrupt:    make(map[peer.ID]bool),
		headCalls:  make(map[peer.ID]int),
		rangeCalls: make(map[peer.ID]int),
	}
}

// SetHead pins the head height the given peer reports.
func (e *Exchange) SetHead(p peer.ID, height uint64) {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.heads[p] = height
}

// Fail makes requests against the given peer return err for the next
// 'times' calls; times < 0 fails the peer forever.
func (e *Exchange) Fail(p peer.ID, err error, times int) {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.failures[p] = &failure{err: err, times: times}
}

// Corrupt makes the given peer serve ranges with broken hash linkage.
func (e *Exchange) Corrupt(p peer.ID) {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.corrupt[p] = true
}

// RangeCalls reports how many range requests were attempted against p.
func (e *Exchange) RangeCalls(p peer.ID) int {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.rangeCalls[p]
}

func (e *Exchange) Head(ctx context.Context, from peer.ID) (*header.Header, error) {
	e.lk.Lock()
	defer e.lk.Unlock()

	e.headCalls[from]++
	if err := e.failNow(from); err != nil {
		return nil, err
	}

	if height, ok := e.heads[from]; ok {
		return e.gen.ByHeight(height), nil
	}
	return e.gen.Head(), nil
}

func (e *Exchange) GetRangeByHeight(
	ctx context.Context,
	peers []peer.ID,
	from, to uint64,
) ([]*header.Header, error) {
	e.lk.Lock()
	defer e.lk.Unlock()

	var lastErr error
	for _, p := range peers {
		e.rangeCalls[p]++
		if err := e.failNow(p); err != nil {
			lastErr = err
			continue
		}

		headers := e.gen.Range(from, to)
		if e.corrupt[p] {
			headers = corruptRange(headers)
		}
		return headers, nil
	}
	if lastErr == nil {
		lastErr = ErrTimeout
	}
	return nil, lastErr
}

// failNow must be called under lk.
func (e *Exchange) failNow(p peer.ID) error {
	f, ok := e.failures[p]
	if !ok {
		return nil
	}
	if f.times == 0 {
		delete(e.failures, p)
		return nil
	}
	if f.times > 0 {
		f.times--
	}
	return f.err
}

func corruptRange(headers []*header.Header) []*header.Header {
	out := make([]*header.Header, len(headers))
	for i, h := range headers {
		broken := *h
		broken.LastHash = []byte("corrupted")
		out[i] = &broken
	}
	return out
}
