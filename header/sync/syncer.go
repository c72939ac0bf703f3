package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/celestia-light/events"
	"github.com/celestiaorg/celestia-light/header"
	"github.com/celestiaorg/celestia-light/header/store"
	"github.com/celestiaorg/celestia-light/p2p"
)

var log = logging.Logger("header/sync")

var (
	// ErrNoPeers is reported through FetchingHeadersFailed when no
	// connected peer is eligible to serve a header window.
	ErrNoPeers = errors.New("sync: no connected peers")
	// ErrNoHeadAgreement is returned when the trusted peers did not reach
	// the configured quorum on any head.
	ErrNoHeadAgreement = errors.New("sync: no quorum among trusted peers on a head")
)

// Syncer drives header retrieval from peers toward the subjective head,
// closing historical store gaps before chasing new heights.
//
// One continuous syncing loop runs per started Syncer and there is at most
// one outstanding fetch window at any time, which keeps store mutation
// ordering trivial. The subjective head only ever advances when the
// configured quorum of trusted peers agrees on a header, so a single
// malicious peer cannot push a false head, and it is monotonically
// non-decreasing for the Syncer's lifetime.
type Syncer struct {
	exchange header.Exchange
	store    *store.Store
	tracker  *p2p.Tracker
	bus      *events.Bus

	params Parameters
	retry  retryStrategy
	clk    clock.Clock

	subjectiveHead atomic.Uint64

	stateLk gosync.RWMutex
	state   State

	triggerSync chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewSyncer creates a new Syncer.
func NewSyncer(
	exchange header.Exchange,
	store *store.Store,
	tracker *p2p.Tracker,
	bus *events.Bus,
	params Parameters,
	opts ...Option,
) (*Syncer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Syncer{
		exchange:    exchange,
		store:       store,
		tracker:     tracker,
		bus:         bus,
		params:      params,
		retry:       newRetryStrategy(params.RetryBackoff, params.RetryMultiplier, params.MaxRetryAttempts),
		clk:         clock.New(),
		triggerSync: make(chan struct{}, 1), // should be buffered
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start starts the syncing loop.
func (s *Syncer) Start(context.Context) error {
	if s.cancel != nil {
		return fmt.Errorf("sync: syncer already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.syncLoop(ctx)
	return nil
}

// Stop cancels the syncing loop together with any in-flight request and
// awaits its exit within the given context.
func (s *Syncer) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.cancel = nil

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info is an immutable snapshot of the sync progress.
type Info struct {
	// SubjectiveHead is the highest height the node currently believes is
	// canonical.
	SubjectiveHead uint64
	// StoredRanges are the contiguous spans of verified stored headers.
	StoredRanges []store.Range
}

// Info snapshots the current sync progress. Safe to call from any
// goroutine.
func (s *Syncer) Info() Info {
	return Info{
		SubjectiveHead: s.subjectiveHead.Load(),
		StoredRanges:   s.store.Ranges(),
	}
}

// State collects all the information about the current (if in progress) or
// the last fetch window.
type State struct {
	ID                   uint64
	FromHeight, ToHeight uint64
	Start, End           time.Time
	Error                error
}

// State reports the state of the current or last fetch window.
func (s *Syncer) State() State {
	s.stateLk.RLock()
	defer s.stateLk.RUnlock()
	return s.state
}

// TriggerSync kicks the syncing loop without waiting for the next poll
// tick (non-blocking).
func (s *Syncer) TriggerSync() {
	select {
	case s.triggerSync <- struct{}{}:
	default:
	}
}

// syncLoop runs sync passes until canceled, waking on every poll tick and
// on explicit triggers.
func (s *Syncer) syncLoop(ctx context.Context) {
	defer close(s.done)

	ticker := s.clk.Ticker(s.params.PollInterval)
	defer ticker.Stop()
	for {
		s.sync(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.triggerSync:
		}
	}
}

// sync performs one pass: re-elect the subjective head from trusted peers,
// then fetch windows until every gap below the head is closed or a window
// fails.
func (s *Syncer) sync(ctx context.Context) {
	head, err := s.electHead(ctx)
	if err != nil {
		log.Debugw("head election failed", "err", err)
	} else {
		s.advanceHead(head)
	}

	target := s.subjectiveHead.Load()
	if target == 0 {
		return
	}

	for ctx.Err() == nil {
		gap, ok := s.store.FirstGap(s.params.SyncFromHeight, target)
		if !ok {
			return // fully synced up to the subjective head
		}
		from, to := gap.From, gap.To
		if to-from+1 > s.params.MaxRequestSize {
			to = from + s.params.MaxRequestSize - 1
		}
		if !s.fetchWindow(ctx, from, to) {
			return
		}
	}
}

// electHead queries the head of every connected trusted peer in parallel
// and returns the highest height on which the configured quorum agrees.
func (s *Syncer) electHead(ctx context.Context) (uint64, error) {
	trusted := s.tracker.Trusted()
	if len(trusted) == 0 {
		return 0, fmt.Errorf("%w: no trusted peers connected", ErrNoPeers)
	}

	heads := make([]*header.Header, len(trusted))
	var wg errgroup.Group
	for i, p := range trusted {
		wg.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, s.params.RequestTimeout)
			defer cancel()

			h, err := s.exchange.Head(reqCtx, p)
			if err != nil {
				log.Debugw("requesting head", "peer", p, "err", err)
				return nil
			}
			heads[i] = h
			return nil
		})
	}
	wg.Wait() //nolint:errcheck

	type tally struct {
		height uint64
		votes  int
	}
	responded := 0
	tallies := make(map[string]*tally)
	for _, h := range heads {
		if h == nil {
			continue
		}
		responded++
		key := fmt.Sprintf("%d/%s", h.Height, h.Hash)
		if t, ok := tallies[key]; ok {
			t.votes++
		} else {
			tallies[key] = &tally{height: h.Height, votes: 1}
		}
	}
	if responded == 0 {
		return 0, fmt.Errorf("%w: no trusted peer responded", ErrNoHeadAgreement)
	}

	quorum := s.params.TrustedHeadQuorum
	if quorum == 0 {
		quorum = responded/2 + 1
	}

	var elected uint64
	for _, t := range tallies {
		if t.votes >= quorum && t.height > elected {
			elected = t.height
		}
	}
	if elected == 0 {
		return 0, fmt.Errorf("%w: %d peers responded, quorum %d", ErrNoHeadAgreement, responded, quorum)
	}
	return elected, nil
}

// advanceHead moves the subjective head up to the given height. Lower or
// equal elections are ignored, keeping the head monotonic.
func (s *Syncer) advanceHead(height uint64) {
	for {
		current := s.subjectiveHead.Load()
		if height <= current {
			return
		}
		if s.subjectiveHead.CompareAndSwap(current, height) {
			log.Infow("new subjective head", "height", height)
			return
		}
	}
}

// fetchWindow retrieves, verifies and stores the inclusive window
// [from:to], rotating through eligible peers with backoff between
// attempts. It reports whether the window was applied.
func (s *Syncer) fetchWindow(ctx context.Context, from, to uint64) bool {
	s.bus.Publish(events.FetchingHeadersStarted{From: from, To: to})
	s.stateLk.Lock()
	s.state.ID++
	s.state.FromHeight = from
	s.state.ToHeight = to
	s.state.Start = s.clk.Now()
	s.state.End = time.Time{}
	s.state.Error = nil
	s.stateLk.Unlock()

	var lastErr error
	peerIdx, tries := 0, 0
	for attempt := 0; attempt < s.params.MaxRetryAttempts; attempt++ {
		peers := s.tracker.Peers()
		if len(peers) == 0 {
			s.finishWindow(from, to, ErrNoPeers)
			s.cooldown(ctx)
			return false
		}

		p := peers[peerIdx%len(peers)]
		headers, err := s.requestAndVerify(ctx, p, from, to)
		if err == nil {
			if err = s.store.Insert(headers...); err != nil {
				s.finishWindow(from, to, err)
				return false
			}
			s.finishWindow(from, to, nil)
			return true
		}
		if ctx.Err() != nil {
			// normal case of the Syncer being stopped
			return false
		}
		lastErr = err

		var verErr *header.VerifyError
		if errors.As(err, &verErr) {
			// never retry the same peer with the same data: penalize it and
			// move to the next peer right away
			log.Errorw("invalid headers",
				"from", from, "to", to, "peer", p, "reason", verErr.Reason)
			s.tracker.Penalize(p)
			peerIdx++
			tries = 0
			continue
		}

		log.Warnw("fetching headers", "from", from, "to", to, "peer", p, "err", err)
		tries++
		if tries >= s.params.PeerRetryLimit {
			peerIdx++
			tries = 0
		}
		if !s.wait(ctx, s.retry.duration(attempt)) {
			return false
		}
	}

	s.finishWindow(from, to, lastErr)
	s.cooldown(ctx)
	return false
}

// requestAndVerify fetches [from:to] from a single peer and verifies the
// returned chain against itself and any stored neighbors.
func (s *Syncer) requestAndVerify(
	ctx context.Context,
	p peer.ID,
	from, to uint64,
) ([]*header.Header, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.params.RequestTimeout)
	defer cancel()

	headers, err := s.exchange.GetRangeByHeight(reqCtx, []peer.ID{p}, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.verify(from, to, headers); err != nil {
		return nil, err
	}
	return headers, nil
}

func (s *Syncer) verify(from, to uint64, headers []*header.Header) error {
	if uint64(len(headers)) != to-from+1 || headers[0].Height != from {
		return &header.VerifyError{
			Reason: fmt.Errorf("requested [%d:%d], got %d headers", from, to, len(headers)),
		}
	}

	// against the stored predecessor, if the window extends a stored range
	if prev, err := s.store.GetByHeight(from - 1); err == nil {
		if err := prev.Verify(headers[0]); err != nil {
			return err
		}
	}
	// pairwise within the window
	for i := 1; i < len(headers); i++ {
		if err := headers[i-1].Verify(headers[i]); err != nil {
			return err
		}
	}
	// against the stored successor, if the window closes a gap
	if succ, err := s.store.GetByHeight(to + 1); err == nil {
		if err := headers[len(headers)-1].Verify(succ); err != nil {
			return err
		}
	}
	return nil
}

// finishWindow records the window outcome and publishes the terminal event.
func (s *Syncer) finishWindow(from, to uint64, err error) {
	s.stateLk.Lock()
	s.state.End = s.clk.Now()
	s.state.Error = err
	s.stateLk.Unlock()

	if err != nil {
		s.bus.Publish(events.FetchingHeadersFailed{From: from, To: to, Err: err})
		return
	}
	s.bus.Publish(events.FetchingHeadersFinished{From: from, To: to})
	log.Infow("fetched headers", "from", from, "to", to)
}

func (s *Syncer) cooldown(ctx context.Context) {
	s.wait(ctx, s.params.IdleCooldown)
}

func (s *Syncer) wait(ctx context.Context, d time.Duration) bool {
	timer := s.clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
