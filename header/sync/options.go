package sync

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Parameters is the set of parameters that must be configured for the
// syncer.
type Parameters struct {
	// SyncFromHeight is the lowest height the syncer backfills to.
	SyncFromHeight uint64
	// MaxRequestSize is the maximum amount of headers requested in one
	// window.
	MaxRequestSize uint64
	// TrustedHeadQuorum is the amount of trusted peers that must agree on a
	// header before it can advance the subjective head. Zero selects a
	// simple majority of the trusted peers that responded; one permits
	// trusting a single bootstrap peer.
	TrustedHeadQuorum int
	// MaxRetryAttempts bounds the total fetch attempts for one window
	// before the attempt is reported failed.
	MaxRetryAttempts int
	// PeerRetryLimit is how many times one peer is retried for the same
	// window before the syncer switches to another peer.
	PeerRetryLimit int
	// RequestTimeout bounds a single network request.
	RequestTimeout time.Duration
	// PollInterval is how often the syncer re-elects the subjective head
	// and reconciles store gaps. Normally the network block time.
	PollInterval time.Duration
	// IdleCooldown is how long the syncer stays idle after a window failed
	// for good before it retries the same window.
	IdleCooldown time.Duration
	// RetryBackoff is the initial backoff between fetch attempts; it grows
	// exponentially with RetryMultiplier per attempt.
	RetryBackoff    time.Duration
	RetryMultiplier int
}

// DefaultParameters returns the default parameters' configuration values
// for the syncer.
func DefaultParameters() Parameters {
	return Parameters{
		SyncFromHeight:    1,
		MaxRequestSize:    512,
		TrustedHeadQuorum: 0,
		MaxRetryAttempts:  8,
		PeerRetryLimit:    3,
		RequestTimeout:    time.Second * 10,
		PollInterval:      time.Second * 15,
		IdleCooldown:      time.Second * 5,
		RetryBackoff:      time.Millisecond * 200,
		RetryMultiplier:   2,
	}
}

// Validate validates the values in Parameters.
func (p Parameters) Validate() error {
	if p.SyncFromHeight == 0 {
		return fmt.Errorf("sync: invalid SyncFromHeight: %d", p.SyncFromHeight)
	}
	if p.MaxRequestSize == 0 {
		return fmt.Errorf("sync: invalid MaxRequestSize: %d", p.MaxRequestSize)
	}
	if p.TrustedHeadQuorum < 0 {
		return fmt.Errorf("sync: invalid TrustedHeadQuorum: %d", p.TrustedHeadQuorum)
	}
	if p.MaxRetryAttempts <= 0 {
		return fmt.Errorf("sync: invalid MaxRetryAttempts: %d", p.MaxRetryAttempts)
	}
	if p.PeerRetryLimit <= 0 {
		return fmt.Errorf("sync: invalid PeerRetryLimit: %d", p.PeerRetryLimit)
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("sync: invalid RequestTimeout: %v", p.RequestTimeout)
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("sync: invalid PollInterval: %v", p.PollInterval)
	}
	if p.IdleCooldown <= 0 {
		return fmt.Errorf("sync: invalid IdleCooldown: %v", p.IdleCooldown)
	}
	if p.RetryBackoff <= 0 || p.RetryMultiplier < 1 {
		return fmt.Errorf("sync: invalid retry backoff: %v x%d", p.RetryBackoff, p.RetryMultiplier)
	}
	return nil
}

// Option configures the syncer beyond its Parameters.
type Option func(*Syncer)

// WithClock overrides the clock the syncer schedules backoffs and polls
// with. Used in tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Syncer) {
		s.clk = clk
	}
}
