package nodebuilder

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/imdario/mergo"
	"go.uber.org/multierr"

	"github.com/celestiaorg/celestia-light/das"
	"github.com/celestiaorg/celestia-light/events"
	hsync "github.com/celestiaorg/celestia-light/header/sync"
	"github.com/celestiaorg/celestia-light/p2p"
	"github.com/celestiaorg/celestia-light/share"
)

// ConfigLoader defines a function that loads a config from any source.
type ConfigLoader func() (*Config, error)

// Config is the main configuration structure for a Node.
// It combines configuration units for all Node subsystems.
type Config struct {
	P2P    p2p.Config
	Sync   hsync.Parameters
	DAS    das.Parameters
	Share  share.Parameters
	Events events.Config
}

// DefaultConfig provides a default Config for a light node.
func DefaultConfig() *Config {
	return &Config{
		P2P:    p2p.DefaultConfig(),
		Sync:   hsync.DefaultParameters(),
		DAS:    das.DefaultParameters(),
		Share:  share.DefaultParameters(),
		Events: events.DefaultConfig(),
	}
}

// Validate validates all subsystem configs.
func (cfg *Config) Validate() error {
	return multierr.Combine(
		cfg.P2P.Validate(),
		cfg.Sync.Validate(),
		cfg.DAS.Validate(),
		cfg.Share.Validate(),
	)
}

// Encode encodes a given Config into w.
func (cfg *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Decode decodes a Config from a given reader r.
func (cfg *Config) Decode(r io.Reader) error {
	_, err := toml.NewDecoder(r).Decode(cfg)
	return err
}

// SaveConfig saves Config 'cfg' under the given 'path'.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return cfg.Encode(f)
}

// LoadConfig loads Config from the given 'path'.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	return &cfg, cfg.Decode(f)
}

// UpdateConfig loads the config at the given path, fills in values missing
// from older revisions with current defaults and saves it back.
func UpdateConfig(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}

	cfg, err = updateConfig(cfg, DefaultConfig())
	if err != nil {
		return err
	}
	return SaveConfig(path, cfg)
}

// updateConfig merges new values from the new config into the old
// config, returning the updated old config.
func updateConfig(oldCfg, newCfg *Config) (*Config, error) {
	err := mergo.Merge(oldCfg, newCfg, mergo.WithOverrideEmptySlice)
	return oldCfg, err
}
