package share

import (
	"context"
	"errors"
	"testing"

	tmbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/celestia-light/header"
)

type mockGetter struct {
	err     error
	partial bool
	got     []int
}

func (m *mockGetter) GetShares(_ context.Context, height uint64, indices []int) ([]Share, error) {
	m.got = indices
	if m.err != nil {
		return nil, m.err
	}
	if m.partial {
		indices = indices[:len(indices)/2]
	}
	shares := make([]Share, len(indices))
	for i, idx := range indices {
		shares[i] = Share{Index: idx, Data: []byte{byte(height)}}
	}
	return shares, nil
}

type mockVerifier struct {
	reject bool
}

func (m mockVerifier) Verify(Share, tmbytes.HexBytes) bool {
	return !m.reject
}

func TestAvailability_SharesAvailable(t *testing.T) {
	getter := &mockGetter{}
	avail, err := NewAvailability(getter, mockVerifier{}, DefaultParameters())
	require.NoError(t, err)

	h := &header.Header{Height: 7, DataRoot: tmbytes.HexBytes("root")}
	require.NoError(t, avail.SharesAvailable(context.Background(), h))
	assert.Len(t, getter.got, DefaultSampleAmount)
}

func TestAvailability_NotAvailable(t *testing.T) {
	h := &header.Header{Height: 7, DataRoot: tmbytes.HexBytes("root")}

	t.Run("retrieval error", func(t *testing.T) {
		getter := &mockGetter{err: errors.New("no route to shares")}
		avail, err := NewAvailability(getter, mockVerifier{}, DefaultParameters())
		require.NoError(t, err)
		assert.ErrorIs(t, avail.SharesAvailable(context.Background(), h), ErrNotAvailable)
	})

	t.Run("partial response", func(t *testing.T) {
		avail, err := NewAvailability(&mockGetter{partial: true}, mockVerifier{}, DefaultParameters())
		require.NoError(t, err)
		assert.ErrorIs(t, avail.SharesAvailable(context.Background(), h), ErrNotAvailable)
	})

	t.Run("verification mismatch", func(t *testing.T) {
		avail, err := NewAvailability(&mockGetter{}, mockVerifier{reject: true}, DefaultParameters())
		require.NoError(t, err)
		assert.ErrorIs(t, avail.SharesAvailable(context.Background(), h), ErrNotAvailable)
	})

	t.Run("canceled context passes through", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		getter := &mockGetter{err: context.Canceled}
		avail, err := NewAvailability(getter, mockVerifier{}, DefaultParameters())
		require.NoError(t, err)
		err = avail.SharesAvailable(ctx, h)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrNotAvailable)
	})
}

func TestParameters_Validate(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())
	assert.Error(t, Parameters{SampleAmount: 0, IndexSpace: 10}.Validate())
	assert.Error(t, Parameters{SampleAmount: 20, IndexSpace: 10}.Validate())
}
