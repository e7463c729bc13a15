package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/yard/core/model"
)

func box(id int64, class int, price int64) model.Container {
	return model.Container{
		ID:     model.ContainerID(id),
		Class:  model.HeightClass(class),
		Window: model.Window{Earliest: 0, Latest: 10},
		Price:  price,
	}
}

func newTestUnit() *Unit {
	return NewUnit(Layout{Classes: []model.HeightClass{2, 1, 2}, PilesPerClass: 2})
}

func TestLayoutKeysSortedAndDeduplicated(t *testing.T) {
	keys := Layout{Classes: []model.HeightClass{3, 1, 3}, PilesPerClass: 2}.Keys()
	want := []PileKey{{1, 0}, {1, 1}, {3, 0}, {3, 1}}
	assert.Equal(t, want, keys)
}

func TestPlaceAndLIFO(t *testing.T) {
	u := newTestUnit()
	k := PileKey{Class: 1, Index: 0}
	require.NoError(t, u.Place(box(1, 1, 10), k))
	require.NoError(t, u.Place(box(2, 1, 20), k))

	top, err := u.PeekTop(k)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerID(2), top.ID)
	assert.Equal(t, 2, u.Height(k))

	c, err := u.PopTop(k)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerID(2), c.ID)
	c, err = u.PopTop(k)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerID(1), c.ID)

	_, err = u.PopTop(k)
	assert.True(t, errors.Is(err, ErrEmptyPile))
	_, err = u.PeekTop(k)
	assert.True(t, errors.Is(err, ErrEmptyPile))
}

func TestPlaceRejectsClassMismatchAndUnknownPile(t *testing.T) {
	u := newTestUnit()
	err := u.Place(box(1, 2, 10), PileKey{Class: 1, Index: 0})
	assert.True(t, errors.Is(err, ErrInvalidPileKey))

	err = u.Place(box(1, 1, 10), PileKey{Class: 1, Index: 5})
	assert.True(t, errors.Is(err, ErrInvalidPileKey))

	_, err = u.PeekTop(PileKey{Class: 7})
	assert.True(t, errors.Is(err, ErrInvalidPileKey))
	assert.Equal(t, 0, u.Len())
}

func TestNoDoublePlacement(t *testing.T) {
	u := newTestUnit()
	c := box(1, 1, 10)
	require.NoError(t, u.Place(c, PileKey{Class: 1, Index: 0}))
	err := u.Place(c, PileKey{Class: 1, Index: 1})
	assert.True(t, errors.Is(err, ErrDuplicateContainer))

	popped, err := u.PopTop(PileKey{Class: 1, Index: 0})
	require.NoError(t, err)
	require.NoError(t, u.Sell(popped))
	err = u.Place(popped, PileKey{Class: 1, Index: 0})
	assert.True(t, errors.Is(err, ErrDuplicateContainer))
}

func TestSellAndDiscardLedger(t *testing.T) {
	u := newTestUnit()
	k := PileKey{Class: 2, Index: 1}
	a, b := box(1, 2, 100), box(2, 2, 40)
	require.NoError(t, u.Place(a, k))
	require.NoError(t, u.Place(b, k))

	err := u.Sell(b)
	assert.True(t, errors.Is(err, ErrStillStacked))

	top, err := u.PopTop(k)
	require.NoError(t, err)
	require.NoError(t, u.Discard(top))
	assert.Equal(t, int64(0), u.Cash())

	top, err = u.PopTop(k)
	require.NoError(t, err)
	require.NoError(t, u.Sell(top))
	assert.Equal(t, int64(100), u.Cash())
	assert.True(t, errors.Is(u.Sell(top), ErrAlreadyTerminated))
	assert.True(t, errors.Is(u.Discard(top), ErrAlreadyTerminated))
	assert.Equal(t, int64(100), u.Cash())

	assert.Equal(t, 1, u.Sold())
	assert.Equal(t, 1, u.Discarded())
	o, ok := u.Outcome(1)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSold, o)
}

func TestSnapshotIsACopy(t *testing.T) {
	u := newTestUnit()
	k := PileKey{Class: 1, Index: 1}
	require.NoError(t, u.Place(box(1, 1, 10), k))
	s := u.Snapshot()
	require.Len(t, s.Piles, 4)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Occupancy()[k])

	_, err := u.PopTop(k)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(), "snapshot must not follow the unit")
	assert.Equal(t, 0, u.MaxHeight())
}

func TestPileKeyText(t *testing.T) {
	b, err := json.Marshal(PileSnapshot{Key: PileKey{Class: 3, Index: 1}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"3/1"`)

	var ps PileSnapshot
	require.NoError(t, json.Unmarshal(b, &ps))
	assert.Equal(t, PileKey{Class: 3, Index: 1}, ps.Key)

	var k PileKey
	assert.True(t, errors.Is(k.UnmarshalText([]byte("x")), ErrInvalidPileKey))
}
