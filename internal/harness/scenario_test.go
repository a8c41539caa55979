package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One listing"
config:
  genesis:
    collections:
      - { id: 1, owner: creator, items: [{ id: 1, owner: owner }] }
blocks:
  - calls:
      - { origin: owner, kind: list, args: { collection: 1, item: 1 }, expect: Ok }
assertions:
  - type: event_count
    kind: Listed
    count: 1
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "minimal.yaml", minimalScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Blocks, 1)
	require.Len(t, s.Blocks[0].Calls, 1)
	call := s.Blocks[0].Calls[0]
	assert.Equal(t, "owner", call.Origin)
	assert.Equal(t, "list", call.Kind)
	assert.Equal(t, 1, call.Args["item"])
	assert.Equal(t, "Ok", call.Expect)
	assert.Contains(t, s.Config, "genesis")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	content := minimalScenario + "assertion: []\n"
	_, err := LoadScenario(writeScenario(t, t.TempDir(), "typo.yaml", content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nblocks: [{}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nblocks: [{}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "description is required",
		},
		{
			name:    "no blocks",
			content: "name: n\ndescription: d\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "blocks list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nblocks: [{}]",
			wantErr: "assertions list is required",
		},
		{
			name:    "block numbers go back",
			content: "name: n\ndescription: d\nblocks: [{number: 5}, {number: 3}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "does not follow",
		},
		{
			name:    "implicit number collides",
			content: "name: n\ndescription: d\nblocks: [{}, {number: 1}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "does not follow",
		},
		{
			name:    "call without origin",
			content: "name: n\ndescription: d\nblocks: [{calls: [{kind: list}]}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "origin is required",
		},
		{
			name:    "call without kind",
			content: "name: n\ndescription: d\nblocks: [{calls: [{origin: alice}]}]\nassertions: [{type: event_count, kind: Listed}]",
			wantErr: "kind is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nblocks: [{}]\nassertions: [{type: trace_contains}]",
			wantErr: "unknown assertion type",
		},
		{
			name:    "order needs two kinds",
			content: "name: n\ndescription: d\nblocks: [{}]\nassertions: [{type: event_order, kinds: [Listed]}]",
			wantErr: "at least two kinds",
		},
		{
			name:    "final_state without expect",
			content: "name: n\ndescription: d\nblocks: [{}]\nassertions: [{type: final_state, path: ledger}]",
			wantErr: "exactly one of expect or absent",
		},
		{
			name:    "final_state with both",
			content: "name: n\ndescription: d\nblocks: [{}]\nassertions: [{type: final_state, path: ledger, expect: 1, absent: true}]",
			wantErr: "exactly one of expect or absent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", minimalScenario)
	second := "name: second" + minimalScenario[len("\nname: minimal"):]
	writeScenario(t, dir, "a.yml", "\n"+second)
	writeScenario(t, dir, "notes.txt", "ignored")

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "second", scenarios[0].Name)
	assert.Equal(t, "minimal", scenarios[1].Name)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", minimalScenario)
	writeScenario(t, dir, "b.yaml", minimalScenario)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined in both")
}
