package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleConf struct {
	A int     `json:"a"`
	B float64 `json:"b"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("b", func(map[string]any) (int, error) { return 0, nil }))
	require.NoError(t, reg.Register("a", func(map[string]any) (int, error) { return 0, nil }))
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestDecodeKeepsDefaultsAndRejectsUnknownKeys(t *testing.T) {
	c := sampleConf{A: 1, B: 2.5}
	require.NoError(t, Decode(map[string]any{"b": "4.5"}, &c))
	assert.Equal(t, 1, c.A)
	assert.Equal(t, 4.5, c.B)

	assert.Error(t, Decode(map[string]any{"zzz": 1}, &c))
	require.NoError(t, Decode(nil, &c))
}
