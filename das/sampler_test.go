package das

import (
	"context"
	"errors"
	"testing"
	"time"

	tmbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/celestia-light/events"
	"github.com/celestiaorg/celestia-light/header/store"
	"github.com/celestiaorg/celestia-light/headertest"
	"github.com/celestiaorg/celestia-light/share"
)

// stubGetter serves shares for every height except failAt.
type stubGetter struct {
	failAt uint64
}

func (g stubGetter) GetShares(_ context.Context, height uint64, indices []int) ([]share.Share, error) {
	if g.failAt != 0 && height == g.failAt {
		return nil, errors.New("shares withheld")
	}
	out := make([]share.Share, len(indices))
	for i, idx := range indices {
		out[i] = share.Share{Index: idx, Data: []byte{byte(height)}}
	}
	return out, nil
}

type okVerifier struct{}

func (okVerifier) Verify(share.Share, tmbytes.HexBytes) bool { return true }

func testSampler(t *testing.T, getter share.Getter, ds datastore.Datastore) (*Sampler, *store.Store, *events.Bus) {
	t.Helper()

	avail, err := share.NewAvailability(getter, okVerifier{}, share.DefaultParameters())
	require.NoError(t, err)

	hstore := store.NewStore()
	bus := events.NewBus(events.DefaultBufferSize)

	params := DefaultParameters()
	params.SampleTimeout = time.Second
	params.CheckpointInterval = time.Millisecond * 10

	sampler, err := NewSampler(avail, hstore, bus, ds, params)
	require.NoError(t, err)
	return sampler, hstore, bus
}

func drain(bus *events.Bus) []events.Event {
	var out []events.Event
	for {
		ev, ok := bus.TryNext()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestSampler_SamplesStoredHeights(t *testing.T) {
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	sampler, hstore, bus := testSampler(t, stubGetter{}, ds)

	gen := headertest.NewGenerator(10)
	require.NoError(t, hstore.Insert(gen.Range(1, 4)...))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, sampler.Start(ctx))
	assert.Error(t, sampler.Start(ctx)) // already started

	// heights stored after start are picked up through the store listener
	require.NoError(t, hstore.Insert(gen.Range(5, 10)...))

	require.Eventually(t, func() bool {
		return sampler.Stats().SampledChainHead == 10
	}, time.Second*5, time.Millisecond*10)

	stats := sampler.Stats()
	assert.EqualValues(t, 10, stats.Sampled)
	assert.EqualValues(t, 10, stats.Accepted)
	assert.Empty(t, stats.Failed)

	require.NoError(t, sampler.Stop(ctx))
	require.NoError(t, sampler.Stop(ctx)) // idempotent

	started := make(map[uint64]bool)
	for _, ev := range drain(bus) {
		switch e := ev.(type) {
		case events.SamplingStarted:
			started[e.Height] = true
		case events.SamplingFinished:
			// per height, started always precedes finished
			assert.True(t, started[e.Height], "height %d finished before starting", e.Height)
			assert.True(t, e.Accepted)
		}
	}
	assert.Len(t, started, 10)

	accepted, ok := sampler.Result(7)
	require.True(t, ok)
	assert.True(t, accepted)
}

func TestSampler_FailedHeightNotRetried(t *testing.T) {
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	sampler, hstore, bus := testSampler(t, stubGetter{failAt: 3}, ds)

	gen := headertest.NewGenerator(5)
	require.NoError(t, hstore.Insert(gen.Range(1, 5)...))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, sampler.Start(ctx))

	// the failed height does not block the sampled head from advancing
	require.Eventually(t, func() bool {
		return sampler.Stats().SampledChainHead == 5
	}, time.Second*5, time.Millisecond*10)
	require.NoError(t, sampler.Stop(ctx))

	stats := sampler.Stats()
	assert.EqualValues(t, 5, stats.Sampled)
	assert.EqualValues(t, 4, stats.Accepted)
	assert.Equal(t, []uint64{3}, stats.Failed)

	accepted, ok := sampler.Result(3)
	require.True(t, ok)
	assert.False(t, accepted)

	var finished3 int
	for _, ev := range drain(bus) {
		if e, isFinished := ev.(events.SamplingFinished); isFinished && e.Height == 3 {
			assert.False(t, e.Accepted)
			finished3++
		}
	}
	// surfaced once, never retried
	assert.Equal(t, 1, finished3)
}

func TestSampler_ResumesFromCheckpoint(t *testing.T) {
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	sampler, hstore, _ := testSampler(t, stubGetter{}, ds)

	gen := headertest.NewGenerator(8)
	require.NoError(t, hstore.Insert(gen.Range(1, 8)...))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, sampler.Start(ctx))
	require.Eventually(t, func() bool {
		return sampler.Stats().SampledChainHead == 8
	}, time.Second*5, time.Millisecond*10)
	require.NoError(t, sampler.Stop(ctx))

	// a fresh sampler over the same datastore resumes instead of resampling
	resumed, _, bus := testSampler(t, stubGetter{}, ds)
	require.NoError(t, resumed.Start(ctx))
	assert.EqualValues(t, 8, resumed.Stats().SampledChainHead)
	require.NoError(t, resumed.Stop(ctx))
	assert.Empty(t, drain(bus))
}
