package events

import (
	"errors"
	"sync"
)

// DefaultBufferSize bounds the Bus when no explicit size is configured.
const DefaultBufferSize = 1024

// ErrEmpty is returned by consumers draining the Bus once no buffered
// events remain.
var ErrEmpty = errors.New("events: bus is empty")

// Config contains configuration for the event Bus.
type Config struct {
	// BufferSize is the maximum amount of events the Bus retains before it
	// starts dropping the oldest ones.
	BufferSize int
}

// DefaultConfig returns the default event Bus configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: DefaultBufferSize,
	}
}

// Bus is a bounded FIFO queue shared by all event producers of a node.
// Publishing never blocks: once the buffer is full, the oldest event is
// dropped and accounted for, keeping memory bounded under a slow consumer.
// Events are observed in the exact order they were published, across all
// producers.
type Bus struct {
	lk      sync.Mutex
	buf     []Event
	head    int // index of the oldest buffered event
	size    int
	dropped uint64
}

// NewBus creates a Bus buffering at most bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		buf: make([]Event, bufferSize),
	}
}

// Publish appends the given event to the Bus without blocking. If the Bus
// is full, the oldest event is dropped to make room.
func (b *Bus) Publish(ev Event) {
	b.lk.Lock()
	defer b.lk.Unlock()

	if b.size == len(b.buf) {
		b.buf[b.head] = nil
		b.head = (b.head + 1) % len(b.buf)
		b.size--
		b.dropped++
	}

	b.buf[(b.head+b.size)%len(b.buf)] = ev
	b.size++
}

// TryNext polls the Bus for the oldest buffered event without blocking.
// It reports false once the Bus is drained.
func (b *Bus) TryNext() (Event, bool) {
	b.lk.Lock()
	defer b.lk.Unlock()

	if b.size == 0 {
		return nil, false
	}

	ev := b.buf[b.head]
	b.buf[b.head] = nil
	b.head = (b.head + 1) % len(b.buf)
	b.size--
	return ev, true
}

// Len reports the amount of currently buffered events.
func (b *Bus) Len() int {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.size
}

// Dropped reports how many events have been dropped due to a full buffer.
func (b *Bus) Dropped() uint64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.dropped
}
