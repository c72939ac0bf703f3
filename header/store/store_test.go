package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/celestia-light/header"
)

func headersFor(t *testing.T, from, to uint64) []*header.Header {
	t.Helper()
	hs := make([]*header.Header, 0, to-from+1)
	for h := from; h <= to; h++ {
		hs = append(hs, &header.Header{Height: h})
	}
	return hs
}

func TestNewRange(t *testing.T) {
	_, err := NewRange(5, 4)
	assert.ErrorIs(t, err, ErrInvalidRange)

	r, err := NewRange(4, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Len())
	assert.True(t, r.Contains(4))
	assert.False(t, r.Contains(5))
}

func TestStore_InsertMerging(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Insert(headersFor(t, 10, 20)...))
	assert.Equal(t, []Range{{From: 10, To: 20}}, s.Ranges())

	// overlapping range extends the existing one
	require.NoError(t, s.Insert(headersFor(t, 15, 25)...))
	assert.Equal(t, []Range{{From: 10, To: 25}}, s.Ranges())

	// disjoint range is kept separately
	require.NoError(t, s.Insert(headersFor(t, 30, 35)...))
	assert.Equal(t, []Range{{From: 10, To: 25}, {From: 30, To: 35}}, s.Ranges())

	// filling the gap coalesces everything into one range
	require.NoError(t, s.Insert(headersFor(t, 26, 29)...))
	assert.Equal(t, []Range{{From: 10, To: 35}}, s.Ranges())

	head, ok := s.Head()
	require.True(t, ok)
	assert.EqualValues(t, 35, head)
}

func TestStore_InsertIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(headersFor(t, 10, 20)...))

	// inserting an already covered range changes nothing
	require.NoError(t, s.Insert(headersFor(t, 12, 18)...))
	assert.Equal(t, []Range{{From: 10, To: 20}}, s.Ranges())
}

func TestStore_RangeInvariant(t *testing.T) {
	s := NewStore()
	spans := [][2]uint64{{40, 45}, {1, 3}, {10, 20}, {4, 9}, {22, 30}, {21, 21}}
	for _, sp := range spans {
		require.NoError(t, s.Insert(headersFor(t, sp[0], sp[1])...))
	}

	ranges := s.Ranges()
	for i := 1; i < len(ranges); i++ {
		assert.LessOrEqual(t, ranges[i-1].From, ranges[i-1].To)
		// sorted and separated by a gap of at least one height
		assert.Greater(t, ranges[i].From, ranges[i-1].To+1)
	}
	assert.Equal(t, []Range{{From: 1, To: 30}, {From: 40, To: 45}}, ranges)
}

func TestStore_InsertRejects(t *testing.T) {
	s := NewStore()

	err := s.Insert()
	assert.ErrorIs(t, err, ErrInvalidRange)

	err = s.Insert(&header.Header{Height: 5}, &header.Header{Height: 7})
	assert.ErrorIs(t, err, ErrNonContiguous)
	assert.Empty(t, s.Ranges())
}

func TestStore_GetByHeight(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(headersFor(t, 5, 6)...))

	h, err := s.GetByHeight(5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, h.Height)
	assert.True(t, s.HasHeight(6))

	_, err = s.GetByHeight(7)
	assert.ErrorIs(t, err, header.ErrNotFound)
	assert.False(t, s.HasHeight(7))
}

func TestStore_FirstGap(t *testing.T) {
	s := NewStore()

	gap, ok := s.FirstGap(1, 100)
	require.True(t, ok)
	assert.Equal(t, Range{From: 1, To: 100}, gap)

	require.NoError(t, s.Insert(headersFor(t, 1, 10)...))
	require.NoError(t, s.Insert(headersFor(t, 15, 20)...))

	// bounded by the next stored range
	gap, ok = s.FirstGap(1, 100)
	require.True(t, ok)
	assert.Equal(t, Range{From: 11, To: 14}, gap)

	gap, ok = s.FirstGap(16, 100)
	require.True(t, ok)
	assert.Equal(t, Range{From: 21, To: 100}, gap)

	_, ok = s.FirstGap(1, 10)
	assert.False(t, ok)
}

func TestStore_OnInsert(t *testing.T) {
	s := NewStore()
	var spans []Range
	s.OnInsert(func(r Range) {
		spans = append(spans, r)
	})

	require.NoError(t, s.Insert(headersFor(t, 1, 5)...))
	require.NoError(t, s.Insert(headersFor(t, 8, 9)...))
	assert.Equal(t, []Range{{From: 1, To: 5}, {From: 8, To: 9}}, spans)
}
