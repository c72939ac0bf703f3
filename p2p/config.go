package p2p

import (
	"fmt"
	"time"
)

// Config combines all configuration fields for the p2p subsystem.
type Config struct {
	// Bootstrappers overrides the built-in bootnode list of the network
	// when non-empty. Custom networks require it.
	Bootstrappers []string
	// DialTimeout bounds a single bootnode dial attempt.
	DialTimeout time.Duration
	// RebootstrapInterval is how often lost bootnode connections are
	// re-dialed while the node runs.
	RebootstrapInterval time.Duration
}

// DefaultConfig returns default configuration for the p2p subsystem.
func DefaultConfig() Config {
	return Config{
		DialTimeout:         time.Second * 15,
		RebootstrapInterval: time.Minute,
	}
}

// Validate performs basic validation of the config.
func (cfg *Config) Validate() error {
	if cfg.DialTimeout <= 0 {
		return fmt.Errorf("p2p: invalid DialTimeout: %v", cfg.DialTimeout)
	}
	if cfg.RebootstrapInterval <= 0 {
		return fmt.Errorf("p2p: invalid RebootstrapInterval: %v", cfg.RebootstrapInterval)
	}
	return nil
}

// BootstrappersFor resolves the effective bootnode set for the given
// network: the configured override when present, the built-in list
// otherwise.
func (cfg *Config) BootstrappersFor(net Network) (Bootstrappers, error) {
	if len(cfg.Bootstrappers) != 0 {
		return parseAddrInfos(cfg.Bootstrappers)
	}
	return BootstrappersFor(net)
}
