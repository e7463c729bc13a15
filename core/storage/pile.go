package storage

import (
	"fmt"
	"sort"

	"github.com/kilianp07/yard/core/model"
)

// PileKey addresses one pile of the yard.
type PileKey struct {
	Class model.HeightClass `json:"class"`
	Index int               `json:"index"`
}

func (k PileKey) String() string { return fmt.Sprintf("%d/%d", k.Class, k.Index) }

// MarshalText encodes the key as "class/index".
func (k PileKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a "class/index" key.
func (k *PileKey) UnmarshalText(b []byte) error {
	var class, idx int
	if _, err := fmt.Sscanf(string(b), "%d/%d", &class, &idx); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPileKey, string(b))
	}
	k.Class = model.HeightClass(class)
	k.Index = idx
	return nil
}

// Less orders keys by class then index.
func (k PileKey) Less(o PileKey) bool {
	if k.Class != o.Class {
		return k.Class < o.Class
	}
	return k.Index < o.Index
}

// Layout describes the fixed set of piles of a yard.
type Layout struct {
	Classes       []model.HeightClass
	PilesPerClass int
}

// Keys returns every pile key of the layout, sorted.
func (l Layout) Keys() []PileKey {
	classes := append([]model.HeightClass(nil), l.Classes...)
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	keys := make([]PileKey, 0, len(classes)*l.PilesPerClass)
	var last model.HeightClass
	for i, c := range classes {
		if i > 0 && c == last {
			continue
		}
		last = c
		for idx := 0; idx < l.PilesPerClass; idx++ {
			keys = append(keys, PileKey{Class: c, Index: idx})
		}
	}
	return keys
}

// pile is an array backed stack; the top is the last element.
type pile struct {
	class model.HeightClass
	items []model.Container
}

func (p *pile) push(c model.Container) { p.items = append(p.items, c) }

func (p *pile) top() (model.Container, bool) {
	if len(p.items) == 0 {
		return model.Container{}, false
	}
	return p.items[len(p.items)-1], true
}

func (p *pile) pop() (model.Container, bool) {
	c, ok := p.top()
	if ok {
		p.items = p.items[:len(p.items)-1]
	}
	return c, ok
}
