package das

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
)

var (
	storePrefix   = datastore.NewKey("das")
	checkpointKey = datastore.NewKey("checkpoint")
)

// checkpoint is the persisted representation of sampling progress, so a
// restarted node resumes where it left off instead of resampling the whole
// chain.
type checkpoint struct {
	// SampleFrom is the lowest height not yet contiguously sampled.
	SampleFrom uint64 `json:"sample_from"`
	// Failed maps heights whose sampling was not accepted to the amount of
	// attempts made. They are surfaced, not retried automatically.
	Failed map[uint64]int `json:"failed,omitempty"`
}

func (c checkpoint) String() string {
	return fmt.Sprintf("SampleFrom: %d, Failed: %d heights", c.SampleFrom, len(c.Failed))
}

// checkpointStore stores/loads the sampler's checkpoint to/from the
// underlying datastore under the das prefix.
type checkpointStore struct {
	datastore.Datastore
}

func newCheckpointStore(ds datastore.Datastore) checkpointStore {
	return checkpointStore{namespace.Wrap(ds, storePrefix)}
}

func (s checkpointStore) load(ctx context.Context) (checkpoint, error) {
	bs, err := s.Get(ctx, checkpointKey)
	if err != nil {
		return checkpoint{}, err
	}

	cp := checkpoint{}
	err = json.Unmarshal(bs, &cp)
	return cp, err
}

func (s checkpointStore) store(ctx context.Context, cp checkpoint) error {
	bs, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("das: marshal checkpoint: %w", err)
	}

	if err = s.Put(ctx, checkpointKey, bs); err != nil {
		return err
	}

	log.Debugw("stored checkpoint", "checkpoint", cp.String())
	return nil
}
