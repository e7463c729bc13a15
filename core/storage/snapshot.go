package storage

import "github.com/kilianp07/yard/core/model"

// PileSnapshot is an immutable copy of one pile, bottom first.
type PileSnapshot struct {
	Key        PileKey           `json:"key"`
	Containers []model.Container `json:"containers"`
}

// Snapshot captures the occupancy of every pile.
type Snapshot struct {
	Cash  int64          `json:"cash"`
	Piles []PileSnapshot `json:"piles"`
}

// Snapshot copies the current pile state in key order.
func (u *Unit) Snapshot() Snapshot {
	s := Snapshot{Cash: u.cash, Piles: make([]PileSnapshot, 0, len(u.keys))}
	for _, k := range u.keys {
		s.Piles = append(s.Piles, PileSnapshot{Key: k, Containers: u.Pile(k)})
	}
	return s
}

// Occupancy returns the height of every pile.
func (s Snapshot) Occupancy() map[PileKey]int {
	out := make(map[PileKey]int, len(s.Piles))
	for _, p := range s.Piles {
		out[p.Key] = len(p.Containers)
	}
	return out
}

// Len returns the number of stacked containers in the snapshot.
func (s Snapshot) Len() int {
	n := 0
	for _, p := range s.Piles {
		n += len(p.Containers)
	}
	return n
}
