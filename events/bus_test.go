package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus(16)

	published := []Event{
		ConnectingToBootnodes{},
		SamplingStarted{Height: 1},
		FetchingHeadersStarted{From: 1, To: 10},
		SamplingFinished{Height: 1, Accepted: true},
		FetchingHeadersFinished{From: 1, To: 10},
	}
	for _, ev := range published {
		bus.Publish(ev)
	}

	for _, want := range published {
		got, ok := bus.TryNext()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	got, ok := bus.TryNext()
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.EqualValues(t, 0, bus.Dropped())
}

func TestBus_DropOldest(t *testing.T) {
	bus := NewBus(3)

	for h := uint64(1); h <= 5; h++ {
		bus.Publish(SamplingStarted{Height: h})
	}

	assert.EqualValues(t, 2, bus.Dropped())
	assert.Equal(t, 3, bus.Len())

	// heights 1 and 2 were dropped, 3..5 remain in order
	for h := uint64(3); h <= 5; h++ {
		got, ok := bus.TryNext()
		require.True(t, ok)
		assert.Equal(t, SamplingStarted{Height: h}, got)
	}

	_, ok := bus.TryNext()
	assert.False(t, ok)
}

func TestBus_WrapAround(t *testing.T) {
	bus := NewBus(4)

	for h := uint64(1); h <= 3; h++ {
		bus.Publish(SamplingStarted{Height: h})
	}
	for h := uint64(1); h <= 3; h++ {
		got, ok := bus.TryNext()
		require.True(t, ok)
		assert.Equal(t, SamplingStarted{Height: h}, got)
	}

	// head has moved; publishing again must wrap cleanly
	for h := uint64(4); h <= 7; h++ {
		bus.Publish(SamplingStarted{Height: h})
	}
	for h := uint64(4); h <= 7; h++ {
		got, ok := bus.TryNext()
		require.True(t, ok)
		assert.Equal(t, SamplingStarted{Height: h}, got)
	}
	assert.EqualValues(t, 0, bus.Dropped())
}

func TestBus_ConcurrentPublish(t *testing.T) {
	const producers, perProducer = 8, 100
	bus := NewBus(producers * perProducer)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				bus.Publish(ConnectingToBootnodes{})
			}
		}()
	}
	wg.Wait()

	drained := 0
	for {
		_, ok := bus.TryNext()
		if !ok {
			break
		}
		drained++
	}
	assert.Equal(t, producers*perProducer, drained)
	assert.EqualValues(t, 0, bus.Dropped())
}
