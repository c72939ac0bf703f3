package das

import (
	"fmt"
	"time"
)

// Parameters is the set of parameters that must be configured for the
// sampler.
type Parameters struct {
	// SampleFrom is the height sampling starts from on a fresh node.
	SampleFrom uint64
	// ConcurrencyLimit bounds the amount of heights sampled in parallel.
	ConcurrencyLimit int
	// SampleTimeout bounds sampling of a single height; hitting it records
	// the height as not accepted.
	SampleTimeout time.Duration
	// CheckpointInterval is how often sampling progress is flushed to the
	// checkpoint store while running.
	CheckpointInterval time.Duration
	// ResultsCacheSize bounds the cache of recent per-height outcomes.
	ResultsCacheSize int
}

// DefaultParameters returns the default parameters' configuration values
// for the sampler.
func DefaultParameters() Parameters {
	return Parameters{
		SampleFrom:         1,
		ConcurrencyLimit:   16,
		SampleTimeout:      time.Second * 15,
		CheckpointInterval: time.Second * 30,
		ResultsCacheSize:   512,
	}
}

// Validate validates the values in Parameters.
func (p Parameters) Validate() error {
	if p.SampleFrom == 0 {
		return fmt.Errorf("das: invalid SampleFrom: %d", p.SampleFrom)
	}
	if p.ConcurrencyLimit <= 0 {
		return fmt.Errorf("das: invalid ConcurrencyLimit: %d", p.ConcurrencyLimit)
	}
	if p.SampleTimeout <= 0 {
		return fmt.Errorf("das: invalid SampleTimeout: %v", p.SampleTimeout)
	}
	if p.CheckpointInterval <= 0 {
		return fmt.Errorf("das: invalid CheckpointInterval: %v", p.CheckpointInterval)
	}
	if p.ResultsCacheSize <= 0 {
		return fmt.Errorf("das: invalid ResultsCacheSize: %d", p.ResultsCacheSize)
	}
	return nil
}
