package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cart_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "cart_basic", s.Name)
	assert.Empty(t, s.Owner)
	require.Len(t, s.Steps, 8)

	first := s.Steps[0]
	assert.Equal(t, OpCartAdd, first.Op)
	assert.Equal(t, DefaultDevice, first.DeviceName())
	require.NotNil(t, first.Item)
	assert.Equal(t, "sku-1", first.Item.ID)
	assert.EqualValues(t, 1000, first.Item.Price)
	require.NotNil(t, first.Qty)
	assert.Equal(t, 2, *first.Qty)

	assert.Nil(t, s.Steps[1].Qty, "qty omitted")

	update := s.Steps[3]
	require.NotNil(t, update.Qty)
	assert.Equal(t, 0, *update.Qty, "explicit zero survives")
}

func TestLoadScenario_AllFixturesParse(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: typo
description: "misspelled key"
step:
  - op: cart.clear
assertions:
  - type: event_count
    topic: cart:cleared
    count: 1
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	const header = "name: s\ndescription: d\n"
	const okAssert = "assertions:\n  - type: event_count\n    topic: cart:cleared\n    count: 1\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - op: cart.clear\n" + okAssert,
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: s\nsteps:\n  - op: cart.clear\n" + okAssert,
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    header + okAssert,
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    header + "steps:\n  - op: cart.clear\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown op",
			yaml:    header + "steps:\n  - op: cart.explode\n" + okAssert,
			wantErr: `unknown op "cart.explode"`,
		},
		{
			name:    "add without item",
			yaml:    header + "steps:\n  - op: cart.add\n" + okAssert,
			wantErr: "item is required for cart.add",
		},
		{
			name:    "update without qty",
			yaml:    header + "steps:\n  - op: cart.update\n    entry: entry-1\n" + okAssert,
			wantErr: "qty is required",
		},
		{
			name:    "remove without entry",
			yaml:    header + "steps:\n  - op: wishlist.remove\n" + okAssert,
			wantErr: "entry is required",
		},
		{
			name:    "bad sort key",
			yaml:    header + "steps:\n  - op: wishlist.sort\n    by: colour\n" + okAssert,
			wantErr: "by must be name, price or recency",
		},
		{
			name:    "remote op without owner",
			yaml:    header + "steps:\n  - op: remote.fail\n" + okAssert,
			wantErr: "requires an owner",
		},
		{
			name:    "reserved device",
			yaml:    header + "steps:\n  - op: cart.clear\n    device: remote\n" + okAssert,
			wantErr: "is reserved",
		},
		{
			name:    "event_count without topic",
			yaml:    header + "steps:\n  - op: cart.clear\nassertions:\n  - type: event_count\n    count: 1\n",
			wantErr: "topic is required",
		},
		{
			name:    "event_order without topics",
			yaml:    header + "steps:\n  - op: cart.clear\nassertions:\n  - type: event_order\n",
			wantErr: "topics list is required",
		},
		{
			name:    "final_state bad kind",
			yaml:    header + "steps:\n  - op: cart.clear\nassertions:\n  - type: final_state\n    kind: basket\n    expect: { count: 0 }\n",
			wantErr: "unknown collection kind",
		},
		{
			name:    "final_state without expect",
			yaml:    header + "steps:\n  - op: cart.clear\nassertions:\n  - type: final_state\n    kind: cart\n",
			wantErr: "expect is required",
		},
		{
			name:    "unknown assertion",
			yaml:    header + "steps:\n  - op: cart.clear\nassertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
