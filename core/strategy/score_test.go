package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/yard/core/model"
)

func TestScorePile(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name      string
		pile      []model.Container
		now       model.Time
		removable int
		value     int64
	}{
		{"empty", nil, 0, 0, 0},
		{"blocked top", []model.Container{box(1, 0, 10, 5), box(2, 20, 30, 9)}, 5, 0, 0},
		{"run stops at blocker", []model.Container{box(1, 0, 10, 5), box(2, 20, 30, 9), box(3, 0, 10, 7)}, 5, 1, 7},
		{"expired counts without value", []model.Container{box(1, 0, 2, 5), box(2, 0, 10, 7)}, 5, 2, 7},
		{"whole pile", []model.Container{box(1, 0, 10, 5), box(2, 0, 10, 7)}, 10, 2, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScorePile(tt.pile, tt.now, w)
			assert.Equal(t, tt.removable, s.Removable)
			assert.Equal(t, tt.value, s.Value)
			assert.InDelta(t, (3*float64(tt.value)+float64(tt.removable))/4, s.Total, 1e-9)
		})
	}
}

func TestScorePile_Monotonic(t *testing.T) {
	w := DefaultWeights()
	pile := []model.Container{box(1, 0, 10, 5)}
	prev := ScorePile(pile, 3, w).Total
	for i := int64(2); i < 6; i++ {
		pile = append(pile, box(i, 0, 10, 5+i))
		cur := ScorePile(pile, 3, w).Total
		assert.Greater(t, cur, prev)
		prev = cur
	}
	// an extra expired container still frees space
	pile = append(pile, box(9, 0, 1, 0))
	assert.Greater(t, ScorePile(pile, 3, w).Total, prev)
}

func TestBuriedScore(t *testing.T) {
	w := DefaultWeights()
	sellable := box(1, 0, 10, 8)
	blocker := func(id int64) model.Container { return box(id, 50, 60, 1) }

	b, s := BuriedScore([]model.Container{sellable}, 0, w, 2)
	assert.Equal(t, 0, b, "actionable top is not buried")
	assert.Zero(t, s.Total)

	b, s = BuriedScore([]model.Container{sellable, blocker(2)}, 0, w, 2)
	assert.Equal(t, 1, b)
	assert.Equal(t, int64(8), s.Value)

	b, _ = BuriedScore([]model.Container{sellable, blocker(2), blocker(3)}, 0, w, 2)
	assert.Equal(t, 2, b)

	b, _ = BuriedScore([]model.Container{sellable, blocker(2), blocker(3), blocker(4)}, 0, w, 2)
	assert.Equal(t, 0, b, "deeper than the dig depth")

	b, _ = BuriedScore([]model.Container{blocker(2)}, 0, w, 2)
	assert.Equal(t, 0, b)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{}.Validate())
	assert.Error(t, Weights{Money: -1, Space: 2}.Validate())
}
