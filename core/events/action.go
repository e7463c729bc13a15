package events

import (
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// ActionEvent is emitted for every operation a strategy applies to the yard.
// From is set for moves, sales and discards, To for placements and moves.
type ActionEvent struct {
	RunID     string           `json:"run_id"`
	Strategy  string           `json:"strategy,omitempty"`
	Seq       int64            `json:"seq"`
	Time      model.Time       `json:"time"`
	Type      model.ActionType `json:"type"`
	Container model.Container  `json:"container"`
	From      *storage.PileKey `json:"from,omitempty"`
	To        *storage.PileKey `json:"to,omitempty"`
	Cash      int64            `json:"cash"`
}

// Terminal converts a sale or discard into the container's terminal event.
func (e ActionEvent) Terminal() (model.TerminalEvent, bool) {
	var o model.Outcome
	switch e.Type {
	case model.ActionSell:
		o = model.OutcomeSold
	case model.ActionDiscard:
		o = model.OutcomeDiscarded
	default:
		return model.TerminalEvent{}, false
	}
	return model.TerminalEvent{
		ContainerID: e.Container.ID,
		Class:       e.Container.Class,
		Outcome:     o,
		Time:        e.Time,
		Arrival:     e.Container.Arrival,
		Price:       e.Container.Price,
	}, true
}
