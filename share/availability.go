package share

import (
	"context"
	"fmt"
	"math/rand"

	logging "github.com/ipfs/go-log/v2"

	"github.com/celestiaorg/celestia-light/header"
)

var log = logging.Logger("share")

const (
	// DefaultSampleAmount is the amount of random shares requested per header.
	DefaultSampleAmount = 16
	// DefaultIndexSpace is the abstract amount of shares a block is assumed
	// to be divided into.
	DefaultIndexSpace = 128
)

// Parameters configure light availability sampling.
type Parameters struct {
	// SampleAmount is the amount of random share indices sampled per header.
	SampleAmount int
	// IndexSpace is the amount of share indices sampling draws from.
	IndexSpace int
}

// DefaultParameters returns the default availability parameters.
func DefaultParameters() Parameters {
	return Parameters{
		SampleAmount: DefaultSampleAmount,
		IndexSpace:   DefaultIndexSpace,
	}
}

// Validate validates the parameters.
func (p Parameters) Validate() error {
	if p.SampleAmount <= 0 {
		return fmt.Errorf("share: invalid SampleAmount: %d", p.SampleAmount)
	}
	if p.IndexSpace < p.SampleAmount {
		return fmt.Errorf("share: IndexSpace %d smaller than SampleAmount %d",
			p.IndexSpace, p.SampleAmount)
	}
	return nil
}

// Availability implements probabilistic data availability checks: it
// requests a small random subset of a block's shares and verifies each
// against the header's data commitment, without ever downloading the whole
// block.
type Availability struct {
	getter   Getter
	verifier Verifier
	params   Parameters
}

// NewAvailability constructs light Availability over the given share getter
// and verifier.
func NewAvailability(getter Getter, verifier Verifier, params Parameters) (*Availability, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Availability{
		getter:   getter,
		verifier: verifier,
		params:   params,
	}, nil
}

// SharesAvailable samples random shares of the block the given header
// commits to. It returns ErrNotAvailable when any sampled share is missing
// or fails verification; context errors pass through unwrapped so callers
// can tell shutdown from a failed sample.
func (a *Availability) SharesAvailable(ctx context.Context, h *header.Header) error {
	indices := a.sampleIndices()

	shares, err := a.getter.GetShares(ctx, h.Height, indices)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debugw("share retrieval failed", "height", h.Height, "err", err)
		return fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}

	if len(shares) < len(indices) {
		return fmt.Errorf("%w: got %d of %d sampled shares",
			ErrNotAvailable, len(shares), len(indices))
	}

	for _, s := range shares {
		if !a.verifier.Verify(s, h.DataRoot) {
			log.Warnw("share failed verification against commitment",
				"height", h.Height, "index", s.Index)
			return fmt.Errorf("%w: share %d does not match commitment", ErrNotAvailable, s.Index)
		}
	}
	return nil
}

func (a *Availability) sampleIndices() []int {
	return rand.Perm(a.params.IndexSpace)[:a.params.SampleAmount]
}
