package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, content string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return s
}

func TestRun_Minimal(t *testing.T) {
	result, err := Run(context.Background(), mustParse(t, minimalScenario))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(1), result.Head)
	assert.NotEmpty(t, result.StateRoot)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceCall, result.Trace[0].Type)
	assert.Equal(t, "Ok", result.Trace[0].Outcome)
	assert.Equal(t, TraceEvent, result.Trace[1].Type)
	assert.Equal(t, "Listed", result.Trace[1].Kind)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	content := strings.Replace(minimalScenario, "expect: Ok", "expect: NotOwner", 1)
	result, err := Run(context.Background(), mustParse(t, content))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected outcome NotOwner, got Ok")
}

func TestRun_FailedAssertion(t *testing.T) {
	content := strings.Replace(minimalScenario, "count: 1", "count: 2", 1)
	result, err := Run(context.Background(), mustParse(t, content))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2 occurrences of Listed")
}

func TestRun_BadConfig(t *testing.T) {
	content := strings.Replace(minimalScenario, "config:\n", "config:\n  auction: { bid_capacity: 0 }\n", 1)
	_, err := Run(context.Background(), mustParse(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRun_SkippedBlocksRunSweep(t *testing.T) {
	s := mustParse(t, `
name: skip
description: "Jumping past the deadline still settles"
config:
  auction: { timeout_blocks: 5 }
  genesis:
    accounts: [{ id: alice, balance: 10 }]
    collections:
      - { id: 1, owner: creator, items: [{ id: 1, owner: owner }] }
blocks:
  - calls:
      - { origin: owner, kind: list, args: { collection: 1, item: 1 } }
      - { origin: alice, kind: bid, args: { collection: 1, item: 1, amount: 10 } }
  - number: 100
assertions:
  - type: event_emitted
    kind: AuctionResolved
    payload: { buyer: alice }
  - type: final_state
    path: registry.assets.1/1.owner
    expect: alice
`)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(100), result.Head)
}

func TestRun_FloatArgsRejected(t *testing.T) {
	content := strings.Replace(minimalScenario, "item: 1 }, expect", "item: 1.5 }, expect", 1)
	_, err := Run(context.Background(), mustParse(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "args")
}

func TestRun_Deterministic(t *testing.T) {
	s := mustParse(t, minimalScenario)
	a, err := Run(context.Background(), s)
	require.NoError(t, err)
	b, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, a.StateRoot, b.StateRoot)
	assert.Equal(t, a.Trace, b.Trace)
}
