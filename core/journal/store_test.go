package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

func sampleEvents(runID string) []events.ActionEvent {
	c1 := model.Container{ID: 1, Class: 1, Window: model.Window{Earliest: 0, Latest: 10}, Price: 40}
	c2 := model.Container{ID: 2, Class: 1, Window: model.Window{Earliest: 5, Latest: 8}, Price: 15}
	in := storage.PileKey{Class: 1, Index: 0}
	out := storage.PileKey{Class: 1, Index: 1}
	return []events.ActionEvent{
		{RunID: runID, Strategy: "simple", Seq: 1, Time: 0, Type: model.ActionPlace, Container: c1, To: &in},
		{RunID: runID, Strategy: "simple", Seq: 2, Time: 0, Type: model.ActionMove, Container: c1, From: &in, To: &out},
		{RunID: runID, Strategy: "simple", Seq: 3, Time: 1, Type: model.ActionSell, Container: c1, From: &out, Cash: 40},
		{RunID: runID, Strategy: "simple", Seq: 4, Time: 2, Type: model.ActionPlace, Container: c2, To: &in},
		{RunID: runID, Strategy: "simple", Seq: 5, Time: 9, Type: model.ActionDiscard, Container: c2, From: &in, Cash: 40},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "j.jsonl"))
	require.NoError(t, err)
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "j.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "j.db"))
	require.NoError(t, err)
	stores := map[string]Store{
		"memory":   NewMemoryStore(),
		"jsonl":    jsonl,
		"rotating": rot,
		"sqlite":   sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStores_AppendQuery(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, ev := range sampleEvents("r1") {
				require.NoError(t, store.Append(ctx, ev))
			}
			for _, ev := range sampleEvents("r2")[:2] {
				require.NoError(t, store.Append(ctx, ev))
			}

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 7)
			assert.Equal(t, sampleEvents("r1")[2], all[2], "records round-trip intact")

			run, err := store.Query(ctx, Query{RunID: "r2"})
			require.NoError(t, err)
			assert.Len(t, run, 2)

			sales, err := store.Query(ctx, Query{RunID: "r1", Type: model.ActionSell})
			require.NoError(t, err)
			require.Len(t, sales, 1)
			assert.Equal(t, model.ContainerID(1), sales[0].Container.ID)

			window, err := store.Query(ctx, Query{RunID: "r1", Start: 1, End: 2})
			require.NoError(t, err)
			assert.Len(t, window, 2)

			byContainer, err := store.Query(ctx, Query{ContainerID: 2})
			require.NoError(t, err)
			assert.Len(t, byContainer, 2)
		})
	}
}

func TestRotatingJSONLStore_QueryAcrossBackups(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	evs := sampleEvents("r1")
	for i, ev := range evs {
		require.NoError(t, store.Append(ctx, ev))
		if i == 2 {
			require.NoError(t, store.Rotate())
		}
	}
	files, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "log-*.jsonl"))
	require.NotEmpty(t, files, "expected a rotated backup")

	out, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, out, len(evs))
	for i := range evs {
		assert.Equal(t, evs[i].Seq, out[i].Seq, "backups are read oldest first")
	}
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "j.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, sampleEvents("r")[0]))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, store.Append(ctx, sampleEvents("r")[1]))

	out, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = ReadJSONL(strings.NewReader("{\"seq\":1}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "memory", c.Backend)
	require.NoError(t, c.Validate())

	c = Config{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "yard-journal.db", c.Path)

	assert.Error(t, Config{Backend: "csv"}.Validate())
	assert.Error(t, Config{Backend: "jsonl"}.Validate())

	s, err := Open(Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "nested", "j.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)
	require.NoError(t, s.Close())
}
