// Package journal persists the actions applied to the yard. Every backend
// stores events.ActionEvent records in append order and answers filtered
// queries; the text format reproduces the historical plain log.
package journal

import (
	"context"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
)

// Query defines filters for retrieving records. Zero values match anything;
// End is ignored when not positive.
type Query struct {
	RunID       string
	Strategy    string
	ContainerID model.ContainerID
	Type        model.ActionType
	Start       model.Time
	End         model.Time
}

// Match reports whether ev passes the filters.
func (q Query) Match(ev events.ActionEvent) bool {
	if q.RunID != "" && ev.RunID != q.RunID {
		return false
	}
	if q.Strategy != "" && ev.Strategy != q.Strategy {
		return false
	}
	if q.ContainerID != 0 && ev.Container.ID != q.ContainerID {
		return false
	}
	if q.Type != "" && ev.Type != q.Type {
		return false
	}
	if ev.Time < q.Start {
		return false
	}
	if q.End > 0 && ev.Time > q.End {
		return false
	}
	return true
}

// Writer receives action records.
type Writer interface {
	Append(ctx context.Context, ev events.ActionEvent) error
	Close() error
}

// Store persists action records and supports querying.
type Store interface {
	Writer
	Query(ctx context.Context, q Query) ([]events.ActionEvent, error)
}
