package strategy

import (
	"fmt"

	"github.com/kilianp07/yard/core/model"
)

// Weights balance the recoverable cash of a pile against the space freed by
// emptying it.
type Weights struct {
	Money float64 `json:"money"`
	Space float64 `json:"space"`
}

// DefaultWeights favours cash three to one over space.
func DefaultWeights() Weights { return Weights{Money: 3, Space: 1} }

// Validate rejects negative weights and an all-zero combination.
func (w Weights) Validate() error {
	if w.Money < 0 || w.Space < 0 {
		return fmt.Errorf("weights must be non-negative, got money=%v space=%v", w.Money, w.Space)
	}
	if w.Money+w.Space == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// Score is the value of servicing one pile.
type Score struct {
	// Removable is the number of containers on top of the pile that can
	// leave the yard in a row, sold or discarded.
	Removable int
	// Value is the price of the sellable containers among them.
	Value int64
	// Total is the weighted combination used for ranking.
	Total float64
}

// ScorePile scores a pile given bottom first. It walks down from the top
// while containers are actionable at now and stops at the first one that is
// not. The result never decreases when more removable containers of equal
// or greater price are added to the run.
func ScorePile(pile []model.Container, now model.Time, w Weights) Score {
	var s Score
	for i := len(pile) - 1; i >= 0; i-- {
		c := pile[i]
		if !c.Actionable(now) {
			break
		}
		s.Removable++
		if c.Sellable(now) {
			s.Value += c.Price
		}
	}
	s.Total = w.combine(s)
	return s
}

// BuriedScore scores the run hidden under at most depth non-actionable
// containers. It returns the number of blockers to lift and the score of the
// run beneath them; blockers is 0 when the pile has no such run.
func BuriedScore(pile []model.Container, now model.Time, w Weights, depth int) (int, Score) {
	blockers := 0
	for i := len(pile) - 1; i >= 0 && blockers <= depth; i-- {
		if pile[i].Actionable(now) {
			if blockers == 0 {
				return 0, Score{}
			}
			return blockers, ScorePile(pile[:i+1], now, w)
		}
		blockers++
	}
	return 0, Score{}
}

func (w Weights) combine(s Score) float64 {
	sum := w.Money + w.Space
	if sum == 0 {
		return 0
	}
	return (w.Money*float64(s.Value) + w.Space*float64(s.Removable)) / sum
}
