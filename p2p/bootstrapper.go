package p2p

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/celestia-light/events"
)

// Dialer establishes a connection to a remote peer. Implemented by the
// transport layer the node is constructed with.
type Dialer interface {
	Dial(ctx context.Context, p peer.AddrInfo) error
}

// Bootstrapper joins the network by dialing the configured bootnodes and
// feeding successful connections into the Tracker as trusted peers. While
// running it periodically re-dials bootnodes that dropped off.
type Bootstrapper struct {
	dialer        Dialer
	tracker       *Tracker
	bus           *events.Bus
	bootstrappers Bootstrappers
	cfg           Config

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBootstrapper creates a new Bootstrapper over the given dialer and
// tracker.
func NewBootstrapper(
	dialer Dialer,
	tracker *Tracker,
	bus *events.Bus,
	bootstrappers Bootstrappers,
	cfg Config,
) (*Bootstrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Bootstrapper{
		dialer:        dialer,
		tracker:       tracker,
		bus:           bus,
		bootstrappers: bootstrappers,
		cfg:           cfg,
	}, nil
}

// Start dispatches the initial bootstrap attempt and returns without
// waiting for any connection to complete.
func (b *Bootstrapper) Start(context.Context) error {
	if b.cancel != nil {
		return fmt.Errorf("p2p: bootstrapper already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	b.bus.Publish(events.ConnectingToBootnodes{})
	go b.run(ctx)
	return nil
}

// Stop cancels in-flight dials and awaits the bootstrap loop's exit within
// the given context.
func (b *Bootstrapper) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	b.cancel = nil

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bootstrapper) run(ctx context.Context) {
	defer close(b.done)

	b.bootstrap(ctx)

	ticker := time.NewTicker(b.cfg.RebootstrapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.bootstrap(ctx)
		}
	}
}

// bootstrap dials every configured bootnode; the Tracker keeps connect
// notifications idempotent. Individual dial failures are logged, never
// escalated: the syncer reports the lack of peers on its own terms.
func (b *Bootstrapper) bootstrap(ctx context.Context) {
	var wg errgroup.Group
	for _, p := range b.bootstrappers {
		wg.Go(func() error {
			dialCtx, cancel := context.WithTimeout(ctx, b.cfg.DialTimeout)
			defer cancel()

			if err := b.dialer.Dial(dialCtx, p); err != nil {
				log.Warnw("dialing bootnode", "peer", p.ID, "err", err)
				b.tracker.Disconnect(p.ID)
				return nil
			}
			b.tracker.Connect(p.ID, true)
			return nil
		})
	}
	wg.Wait() //nolint:errcheck
}
