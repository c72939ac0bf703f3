package store

import (
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/celestiaorg/celestia-light/header"
)

var log = logging.Logger("header/store")

// ErrNonContiguous is returned when an inserted batch of headers is not a
// single contiguous ascending span.
var ErrNonContiguous = fmt.Errorf("%w: batch is not contiguous", ErrInvalidRange)

// Store keeps verified headers in memory together with the set of
// contiguous height ranges they cover. Gaps between ranges are what the
// syncer reconciles. Insert is the single mutator and is expected to be
// called by one writer only; readers always observe a consistent merged
// range set.
//
// Header authenticity is verified upstream: the Store trusts its caller and
// only enforces the range invariants.
type Store struct {
	lk      sync.RWMutex
	headers map[uint64]*header.Header
	ranges  []Range

	onInsert []func(Range)
}

// NewStore creates an empty header Store.
func NewStore() *Store {
	return &Store{
		headers: make(map[uint64]*header.Header),
	}
}

// OnInsert registers a listener invoked with the span of every successful
// Insert. Listeners are called after the Store state is updated and must
// not block.
func (s *Store) OnInsert(fn func(Range)) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.onInsert = append(s.onInsert, fn)
}

// Insert merges the given verified headers into the Store. The batch must
// form one contiguous ascending span of heights; its range is coalesced
// with any overlapping or adjacent stored range.
func (s *Store) Insert(headers ...*header.Header) error {
	if len(headers) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidRange)
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].Height != headers[i-1].Height+1 {
			return fmt.Errorf("%w: height %d followed by %d",
				ErrNonContiguous, headers[i-1].Height, headers[i].Height)
		}
	}

	r, err := NewRange(headers[0].Height, headers[len(headers)-1].Height)
	if err != nil {
		return err
	}

	s.lk.Lock()
	for _, h := range headers {
		s.headers[h.Height] = h
	}
	s.ranges = merge(s.ranges, r)
	listeners := make([]func(Range), len(s.onInsert))
	copy(listeners, s.onInsert)
	s.lk.Unlock()

	log.Debugw("inserted headers", "from", r.From, "to", r.To)
	for _, fn := range listeners {
		fn(r)
	}
	return nil
}

// Ranges returns a copy of the stored header ranges: sorted ascending,
// pairwise disjoint, with a gap of at least one height between neighbors.
func (s *Store) Ranges() []Range {
	s.lk.RLock()
	defer s.lk.RUnlock()
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Head reports the highest stored height, if any.
func (s *Store) Head() (uint64, bool) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	if len(s.ranges) == 0 {
		return 0, false
	}
	return s.ranges[len(s.ranges)-1].To, true
}

// GetByHeight returns the stored header at the given height.
func (s *Store) GetByHeight(height uint64) (*header.Header, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	h, ok := s.headers[height]
	if !ok {
		return nil, fmt.Errorf("%w: height %d", header.ErrNotFound, height)
	}
	return h, nil
}

// HasHeight reports whether a header at the given height is stored.
func (s *Store) HasHeight(height uint64) bool {
	s.lk.RLock()
	defer s.lk.RUnlock()
	_, ok := s.headers[height]
	return ok
}

// FirstGap reports the lowest contiguous span within [from:to] that is not
// covered by the stored ranges. It reports false once the whole span is
// stored.
func (s *Store) FirstGap(from, to uint64) (Range, bool) {
	if from > to {
		return Range{}, false
	}

	s.lk.RLock()
	defer s.lk.RUnlock()

	next, end := from, to
	for _, r := range s.ranges {
		if r.To < next {
			continue
		}
		if r.From > next {
			// the gap is bounded by the next stored range
			if r.From-1 < end {
				end = r.From - 1
			}
			break
		}
		next = r.To + 1
	}
	if next > to {
		return Range{}, false
	}
	return Range{From: next, To: end}, true
}
