package das

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/workerpool"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"

	"github.com/celestiaorg/celestia-light/events"
	"github.com/celestiaorg/celestia-light/header/store"
	"github.com/celestiaorg/celestia-light/share"
)

var log = logging.Logger("das")

// Sampler continuously validates availability of data committed to stored
// headers. It runs independently of header sync: every newly stored height
// is sampled asynchronously, with concurrency bounded by a worker pool.
// A height that fails sampling is surfaced through events and stats, never
// retried automatically.
type Sampler struct {
	avail *share.Availability
	store *store.Store
	bus   *events.Bus

	cstore checkpointStore
	params Parameters
	clk    clock.Clock

	pool    *workerpool.WorkerPool
	results *lru.Cache[uint64, bool]

	lk       sync.Mutex
	next     uint64 // lowest height not yet contiguously sampled
	doneSet  map[uint64]struct{}
	inFlight map[uint64]struct{}
	failed   map[uint64]int
	sampled  uint64
	accepted uint64

	trigger  chan struct{}
	cancel   context.CancelFunc
	sampleDn chan struct{} // done signal for the scheduling loop
	flushDn  chan struct{} // done signal for the background checkpoint flush
}

// NewSampler creates a new Sampler over the given availability, header
// store and checkpoint datastore.
func NewSampler(
	avail *share.Availability,
	hstore *store.Store,
	bus *events.Bus,
	ds datastore.Datastore,
	params Parameters,
) (*Sampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	results, err := lru.New[uint64, bool](params.ResultsCacheSize)
	if err != nil {
		return nil, err
	}

	d := &Sampler{
		avail:    avail,
		store:    hstore,
		bus:      bus,
		cstore:   newCheckpointStore(ds),
		params:   params,
		clk:      clock.New(),
		results:  results,
		doneSet:  make(map[uint64]struct{}),
		inFlight: make(map[uint64]struct{}),
		failed:   make(map[uint64]int),
		trigger:  make(chan struct{}, 1),
	}
	hstore.OnInsert(func(store.Range) { d.wantSample() })
	return d, nil
}

// Start loads the latest checkpoint and spawns the sampling routines.
func (d *Sampler) Start(ctx context.Context) error {
	if d.cancel != nil {
		return fmt.Errorf("das: sampler already started")
	}

	cp, err := d.cstore.load(ctx)
	switch {
	case err == nil:
		log.Infow("loaded checkpoint", "height", cp.SampleFrom)
	case errors.Is(err, datastore.ErrNotFound):
		cp = checkpoint{SampleFrom: d.params.SampleFrom}
	default:
		return fmt.Errorf("das: loading checkpoint: %w", err)
	}

	d.lk.Lock()
	d.next = max(cp.SampleFrom, d.params.SampleFrom)
	for h, attempts := range cp.Failed {
		d.failed[h] = attempts
	}
	d.lk.Unlock()

	samplingCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.sampleDn, d.flushDn = make(chan struct{}), make(chan struct{})
	d.pool = workerpool.New(d.params.ConcurrencyLimit)

	go d.run(samplingCtx)
	go d.runBackgroundStore(samplingCtx)
	return nil
}

// Stop cancels in-flight sampling, awaits the routines' exit and persists
// the final checkpoint.
func (d *Sampler) Stop(ctx context.Context) error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	d.cancel = nil

	for _, dn := range []chan struct{}{d.sampleDn, d.flushDn} {
		select {
		case <-dn:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// abandons queued heights and waits for running tasks, which exit
	// promptly on the canceled sampling context
	d.pool.Stop()

	if err := d.cstore.store(ctx, d.checkpoint()); err != nil {
		log.Errorw("storing checkpoint on stop", "err", err)
		return err
	}
	return nil
}

// Result reports the recorded outcome for a recently sampled height.
func (d *Sampler) Result(height uint64) (accepted, ok bool) {
	return d.results.Get(height)
}

// Stats is a snapshot of sampling progress.
type Stats struct {
	// SampledChainHead is the highest height up to which sampling is
	// contiguously done.
	SampledChainHead uint64
	// Sampled and Accepted count finished and successful samples.
	Sampled, Accepted uint64
	// Failed holds heights whose sampling was not accepted.
	Failed []uint64
	// InFlight is the amount of heights currently being sampled.
	InFlight int
}

// Stats snapshots the sampling progress.
func (d *Sampler) Stats() Stats {
	d.lk.Lock()
	defer d.lk.Unlock()

	failed := make([]uint64, 0, len(d.failed))
	for h := range d.failed {
		failed = append(failed, h)
	}
	return Stats{
		SampledChainHead: d.next - 1,
		Sampled:          d.sampled,
		Accepted:         d.accepted,
		Failed:           failed,
		InFlight:         len(d.inFlight),
	}
}

// wantSample triggers the scheduling loop (non-blocking).
func (d *Sampler) wantSample() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// run schedules sampling jobs for newly stored heights until canceled.
func (d *Sampler) run(ctx context.Context) {
	defer close(d.sampleDn)

	d.schedule(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.trigger:
			d.schedule(ctx)
		}
	}
}

// schedule submits a sampling job for every stored height that was neither
// sampled nor is being sampled yet.
func (d *Sampler) schedule(ctx context.Context) {
	d.lk.Lock()
	defer d.lk.Unlock()

	for _, r := range d.store.Ranges() {
		from := r.From
		if from < d.next {
			from = d.next
		}
		for h := from; h <= r.To; h++ {
			if _, ok := d.doneSet[h]; ok {
				continue
			}
			if _, ok := d.inFlight[h]; ok {
				continue
			}
			d.inFlight[h] = struct{}{}
			d.pool.Submit(func() { d.sample(ctx, h) })
		}
	}
}

// sample validates availability of the data behind a single stored height.
func (d *Sampler) sample(ctx context.Context, height uint64) {
	if ctx.Err() != nil {
		return
	}

	d.bus.Publish(events.SamplingStarted{Height: height})

	h, err := d.store.GetByHeight(height)
	if err == nil {
		sampleCtx, cancel := context.WithTimeout(ctx, d.params.SampleTimeout)
		err = d.avail.SharesAvailable(sampleCtx, h)
		cancel()
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// sampler is stopping; the height is resampled after restart
		return
	}

	accepted := err == nil
	if accepted {
		log.Debugw("sampling successful", "height", height)
	} else {
		log.Warnw("sampling failed", "height", height, "err", err)
	}

	d.results.Add(height, accepted)
	d.bus.Publish(events.SamplingFinished{Height: height, Accepted: accepted})
	d.markDone(height, accepted)
}

// markDone records the outcome and advances the contiguous sampling head.
func (d *Sampler) markDone(height uint64, accepted bool) {
	d.lk.Lock()
	defer d.lk.Unlock()

	delete(d.inFlight, height)
	d.doneSet[height] = struct{}{}
	d.sampled++
	if accepted {
		d.accepted++
	} else {
		d.failed[height]++
	}

	for {
		if _, ok := d.doneSet[d.next]; !ok {
			return
		}
		delete(d.doneSet, d.next)
		d.next++
	}
}

// runBackgroundStore periodically saves the sampling checkpoint in case the
// sampler quits before storing it on exit.
func (d *Sampler) runBackgroundStore(ctx context.Context) {
	defer close(d.flushDn)

	ticker := d.clk.Ticker(d.params.CheckpointInterval)
	defer ticker.Stop()

	var prev uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cp := d.checkpoint()
		if cp.SampleFrom == prev {
			continue
		}
		if err := d.cstore.store(ctx, cp); err != nil {
			log.Errorw("storing checkpoint", "err", err)
			continue
		}
		prev = cp.SampleFrom
	}
}

func (d *Sampler) checkpoint() checkpoint {
	d.lk.Lock()
	defer d.lk.Unlock()

	failed := make(map[uint64]int, len(d.failed))
	for h, attempts := range d.failed {
		failed[h] = attempts
	}
	return checkpoint{
		SampleFrom: d.next,
		Failed:     failed,
	}
}
