package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/yard/core/clock"
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/logger"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

type trace struct {
	events []events.ActionEvent
}

func (tr *trace) Record(ev events.ActionEvent) error {
	tr.events = append(tr.events, ev)
	return nil
}

func (tr *trace) types() []model.ActionType {
	out := make([]model.ActionType, len(tr.events))
	for i, ev := range tr.events {
		out[i] = ev.Type
	}
	return out
}

func newEnv(t *testing.T, s Strategy, start, deadline model.Time, classes ...model.HeightClass) (*Env, *trace) {
	t.Helper()
	if len(classes) == 0 {
		classes = []model.HeightClass{1}
	}
	tr := &trace{}
	env := &Env{
		Unit:     storage.NewUnit(s.Layout(classes)),
		Clock:    clock.New(start),
		Budget:   Budget{Deadline: deadline, StepCost: 1},
		Recorder: tr,
		Log:      logger.NopLogger{},
	}
	return env, tr
}

func box(id int64, earliest, latest model.Time, price int64) model.Container {
	return model.Container{
		ID:     model.ContainerID(id),
		Class:  1,
		Window: model.Window{Earliest: earliest, Latest: latest},
		Price:  price,
	}
}

func TestBudget_CanStepAt(t *testing.T) {
	b := Budget{Deadline: 10, StepCost: 2}
	assert.True(t, b.CanStepAt(8))
	assert.False(t, b.CanStepAt(9))
	assert.True(t, b.Exhausted(9))

	b.Unbounded = true
	assert.True(t, b.CanStepAt(1000))
}

func TestMaintain_WaitsForWindowWithinBudget(t *testing.T) {
	for _, s := range []Strategy{NewSimple(), mustExpert(t, DefaultExpertConfig())} {
		t.Run(s.Name(), func(t *testing.T) {
			env, tr := newEnv(t, s, 0, 20)
			c := box(1, 5, 10, 100)
			require.NoError(t, s.Arrive(env, c))
			require.NoError(t, Maintain(context.Background(), s, env))

			assert.Equal(t, int64(100), env.Unit.Cash())
			assert.Equal(t, 0, env.Unit.Len())
			last := tr.events[len(tr.events)-1]
			assert.Equal(t, model.ActionSell, last.Type)
			assert.True(t, c.Window.Contains(last.Time), "sold at %d", last.Time)
		})
	}
}

func TestMaintain_ShortBudgetKeepsContainer(t *testing.T) {
	for _, s := range []Strategy{NewSimple(), mustExpert(t, DefaultExpertConfig())} {
		t.Run(s.Name(), func(t *testing.T) {
			env, _ := newEnv(t, s, 0, 3)
			require.NoError(t, s.Arrive(env, box(1, 5, 10, 100)))
			require.NoError(t, Maintain(context.Background(), s, env))

			assert.Equal(t, int64(0), env.Unit.Cash())
			assert.Equal(t, 1, env.Unit.Len())
			_, ok := env.Unit.Location(1)
			assert.True(t, ok, "container must still be stacked")
			assert.LessOrEqual(t, env.Now(), model.Time(3))

			// a later, longer interval sells it
			env.Budget = Budget{Deadline: 20, StepCost: 1}
			require.NoError(t, Maintain(context.Background(), s, env))
			assert.Equal(t, int64(100), env.Unit.Cash())
		})
	}
}

func TestMaintain_ExpiredIsDiscarded(t *testing.T) {
	for _, s := range []Strategy{NewSimple(), mustExpert(t, DefaultExpertConfig())} {
		t.Run(s.Name(), func(t *testing.T) {
			env, tr := newEnv(t, s, 5, 20)
			require.NoError(t, s.Arrive(env, box(1, 1, 3, 100)))
			require.NoError(t, Maintain(context.Background(), s, env))

			assert.Equal(t, int64(0), env.Unit.Cash())
			assert.Equal(t, 1, env.Unit.Discarded())
			assert.Equal(t, model.ActionDiscard, tr.events[len(tr.events)-1].Type)
		})
	}
}

func TestMaintain_Cancelled(t *testing.T) {
	s := NewSimple()
	env, _ := newEnv(t, s, 0, 20)
	require.NoError(t, s.Arrive(env, box(1, 0, 10, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Maintain(ctx, s, env), context.Canceled)
	assert.Equal(t, 1, env.Unit.Len())
}

func TestMaintain_StopsWhenNothingWillChange(t *testing.T) {
	s := NewSimple()
	env, tr := newEnv(t, s, 0, 0)
	env.Budget = Budget{Unbounded: true, StepCost: 1}
	require.NoError(t, Maintain(context.Background(), s, env))
	assert.Empty(t, tr.events)
	assert.Equal(t, model.Time(0), env.Now())
}

func TestRegistry_Builtins(t *testing.T) {
	assert.Equal(t, []string{"expert", "simple"}, Names())

	s, err := New(factory.ModuleConfig{Type: "simple"})
	require.NoError(t, err)
	assert.Equal(t, "simple", s.Name())

	s, err = New(factory.ModuleConfig{Type: "expert", Conf: map[string]any{
		"piles_per_class": 3,
		"weights":         map[string]any{"money": 1},
	}})
	require.NoError(t, err)
	x, ok := s.(*Expert)
	require.True(t, ok)
	assert.Equal(t, 3, x.Config().PilesPerClass)
	assert.Equal(t, Weights{Money: 1, Space: 1}, x.Config().Weights)
	assert.Equal(t, 2, x.Config().DigDepth)

	_, err = New(factory.ModuleConfig{Type: "expert", Conf: map[string]any{"piles_per_class": 1}})
	assert.Error(t, err)
	_, err = New(factory.ModuleConfig{Type: "simple", Conf: map[string]any{"bogus": true}})
	assert.Error(t, err)
	_, err = New(factory.ModuleConfig{Type: "random"})
	assert.Error(t, err)
}

func mustExpert(t *testing.T, cfg ExpertConfig) *Expert {
	t.Helper()
	x, err := NewExpert(cfg)
	require.NoError(t, err)
	return x
}
