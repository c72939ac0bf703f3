package nodebuilder

import (
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"go.uber.org/fx"

	"github.com/celestiaorg/celestia-light/das"
	"github.com/celestiaorg/celestia-light/events"
	"github.com/celestiaorg/celestia-light/header"
	"github.com/celestiaorg/celestia-light/header/store"
	hsync "github.com/celestiaorg/celestia-light/header/sync"
	"github.com/celestiaorg/celestia-light/p2p"
	"github.com/celestiaorg/celestia-light/share"
)

// Transport bundles the network-facing collaborators a Node is constructed
// over. The node core never opens connections itself; it drives whatever
// transport it is given.
type Transport struct {
	Dialer        p2p.Dialer
	Exchange      header.Exchange
	Shares        share.Getter
	ShareVerifier share.Verifier
}

// ConstructModule assembles the DI options for all Node components over the
// given network and transport.
func ConstructModule(network p2p.Network, cfg *Config, tr Transport) fx.Option {
	network, err := network.Validate()
	if err != nil {
		return fx.Error(err)
	}
	if err := cfg.Validate(); err != nil {
		return fx.Error(err)
	}

	bootstrappers, err := cfg.P2P.BootstrappersFor(network)
	if err != nil {
		return fx.Error(err)
	}

	return fx.Module(
		"node",
		fx.Supply(network),
		fx.Supply(cfg),
		fx.Supply(bootstrappers),
		fx.Provide(func() *events.Bus {
			return events.NewBus(cfg.Events.BufferSize)
		}),
		fx.Provide(func() datastore.Batching {
			return dssync.MutexWrap(datastore.NewMapDatastore())
		}),
		fx.Provide(p2p.NewTracker),
		fx.Provide(store.NewStore),
		fx.Provide(func(tracker *p2p.Tracker, bus *events.Bus) (*p2p.Bootstrapper, error) {
			return p2p.NewBootstrapper(tr.Dialer, tracker, bus, bootstrappers, cfg.P2P)
		}),
		fx.Provide(func() (*share.Availability, error) {
			return share.NewAvailability(tr.Shares, tr.ShareVerifier, cfg.Share)
		}),
		fx.Provide(func(hstore *store.Store, tracker *p2p.Tracker, bus *events.Bus) (*hsync.Syncer, error) {
			return hsync.NewSyncer(tr.Exchange, hstore, tracker, bus, cfg.Sync)
		}),
		fx.Provide(func(
			avail *share.Availability,
			hstore *store.Store,
			bus *events.Bus,
			ds datastore.Batching,
		) (*das.Sampler, error) {
			return das.NewSampler(avail, hstore, bus, ds, cfg.DAS)
		}),
		// hooks are appended in one place so the startup order is fixed:
		// bootstrapper first, shutdown in reverse
		fx.Invoke(func(lc fx.Lifecycle, b *p2p.Bootstrapper, s *hsync.Syncer, d *das.Sampler) {
			lc.Append(fx.Hook{OnStart: b.Start, OnStop: b.Stop})
			lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
			lc.Append(fx.Hook{OnStart: d.Start, OnStop: d.Stop})
		}),
	)
}
