package events

import (
	"testing"

	"github.com/kilianp07/yard/core/model"
)

func TestActionEventTerminal(t *testing.T) {
	c := model.Container{ID: 7, Class: 2, Arrival: 3, Price: 50}
	ev := ActionEvent{Time: 9, Type: model.ActionSell, Container: c}
	te, ok := ev.Terminal()
	if !ok {
		t.Fatal("sale should be terminal")
	}
	if te.Outcome != model.OutcomeSold || te.Price != 50 || te.Dwell() != 6 {
		t.Fatalf("unexpected terminal event %+v", te)
	}

	ev.Type = model.ActionDiscard
	if te, _ := ev.Terminal(); te.Outcome != model.OutcomeDiscarded {
		t.Fatalf("expected discard got %v", te.Outcome)
	}

	ev.Type = model.ActionMove
	if _, ok := ev.Terminal(); ok {
		t.Fatal("move is not terminal")
	}
}
