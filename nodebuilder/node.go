package nodebuilder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/celestiaorg/celestia-light/das"
	"github.com/celestiaorg/celestia-light/events"
	"github.com/celestiaorg/celestia-light/header/store"
	hsync "github.com/celestiaorg/celestia-light/header/sync"
	"github.com/celestiaorg/celestia-light/p2p"
)

var (
	log   = logging.Logger("node")
	fxLog = logging.Logger("fx")
)

var (
	// ErrAlreadyRunning is returned on an attempt to start a running Node.
	ErrAlreadyRunning = errors.New("node: already running")
	// ErrNodeStopped is returned by accessors of a Node that is not running.
	ErrNodeStopped = errors.New("node: stopped")
)

// DefaultLifecycleTimeout bounds graceful startup and shutdown of a Node.
var DefaultLifecycleTimeout = time.Minute * 2

// lifecycleFunc defines a type for common lifecycle funcs.
type lifecycleFunc func(context.Context) error

// Node is a light client tracking a single network. It keeps references to
// all its components and services in one place. A Node is bound to its
// Network for life; tracking another network means constructing a new Node.
type Node struct {
	fx.In `ignore-unexported:"true"`

	Network       p2p.Network
	Config        *Config
	Bootstrappers p2p.Bootstrappers

	Bus          *events.Bus
	Tracker      *p2p.Tracker
	Bootstrapper *p2p.Bootstrapper
	HeaderStore  *store.Store
	Syncer       *hsync.Syncer
	Sampler      *das.Sampler

	// start and stop ref the internal fx.App lifecycle funcs to be called
	// from Start and Stop
	start, stop lifecycleFunc

	lk      sync.Mutex
	running bool
	// started stays true after the first Start, so the event backlog of a
	// stopped Node remains drainable
	started bool
}

// New assembles a new Node on the given network over the given transport
// with the default config.
func New(network p2p.Network, tr Transport, opts ...fx.Option) (*Node, error) {
	return NewWithConfig(network, DefaultConfig(), tr, opts...)
}

// NewWithConfig assembles a new Node with a custom config.
func NewWithConfig(network p2p.Network, cfg *Config, tr Transport, opts ...fx.Option) (*Node, error) {
	opts = append([]fx.Option{ConstructModule(network, cfg, tr)}, opts...)
	return newNode(opts...)
}

// Start launches the Node and all its components and services. It returns
// once bootnode dialing is dispatched, without waiting for any connection
// to complete.
func (n *Node) Start(ctx context.Context) error {
	n.lk.Lock()
	defer n.lk.Unlock()

	if n.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultLifecycleTimeout)
	defer cancel()

	err := n.start(ctx)
	if err != nil {
		log.Debugf("error starting Node: %s", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("node: failed to start within timeout(%s): %w", DefaultLifecycleTimeout, err)
		}
		return fmt.Errorf("node: failed to start: %w", err)
	}

	n.running, n.started = true, true
	log.Infow("started light node", "network", n.Network)
	return nil
}

// Stop shuts down the Node and all its running components. Stopping an
// already stopped Node is a no-op. Canceling the given context aborts the
// graceful shutdown, forcing remaining components to close immediately.
func (n *Node) Stop(ctx context.Context) error {
	n.lk.Lock()
	defer n.lk.Unlock()

	if !n.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultLifecycleTimeout)
	defer cancel()

	err := n.stop(ctx)
	if err != nil {
		log.Debugf("error stopping Node: %s", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("node: failed to stop within timeout(%s): %w", DefaultLifecycleTimeout, err)
		}
		return fmt.Errorf("node: failed to stop: %w", err)
	}

	n.running = false
	log.Debug("stopped light node")
	return nil
}

// IsRunning reports whether the Node is started and not yet stopped.
func (n *Node) IsRunning() bool {
	n.lk.Lock()
	defer n.lk.Unlock()
	return n.running
}

// PeerTrackerInfo reports connected peer counts of a running Node.
func (n *Node) PeerTrackerInfo() (p2p.TrackerInfo, error) {
	if !n.IsRunning() {
		return p2p.TrackerInfo{}, ErrNodeStopped
	}
	return n.Tracker.Info(), nil
}

// SyncerInfo reports header sync progress of a running Node.
func (n *Node) SyncerInfo() (hsync.Info, error) {
	if !n.IsRunning() {
		return hsync.Info{}, ErrNodeStopped
	}
	return n.Syncer.Info(), nil
}

// SamplingStats reports availability sampling progress of a running Node.
func (n *Node) SamplingStats() (das.Stats, error) {
	if !n.IsRunning() {
		return das.Stats{}, ErrNodeStopped
	}
	return n.Sampler.Stats(), nil
}

// NextEvent pops the oldest buffered event without blocking. It returns
// events.ErrEmpty once the backlog is drained and ErrNodeStopped if the
// Node was never started. Events published before a Stop remain drainable.
func (n *Node) NextEvent() (events.Event, error) {
	n.lk.Lock()
	started := n.started
	n.lk.Unlock()

	if !started {
		return nil, ErrNodeStopped
	}
	ev, ok := n.Bus.TryNext()
	if !ok {
		return nil, events.ErrEmpty
	}
	return ev, nil
}

// newNode creates a new Node from given DI options.
// DI options allow initializing the Node with a customized set of
// components and services.
func newNode(opts ...fx.Option) (*Node, error) {
	node := new(Node)
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			zl := &fxevent.ZapLogger{Logger: fxLog.Desugar()}
			zl.UseLogLevel(zapcore.DebugLevel)
			return zl
		}),
		fx.Populate(node),
		fx.Options(opts...),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}

	node.start, node.stop = app.Start, app.Stop
	return node, nil
}
