package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/ir"
	"github.com/roach88/gavel/internal/store"
)

func TestNode_ProducesBlocksFromInput(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "chain.db")
	cfg := writeFile(t, dir, "chain.toml", testConfig)
	input := strings.Join([]string{
		`{"origin":"owner","kind":"list","args":{"collection":1,"item":1}}`,
		``,
		`not json`,
		`{"origin":"alice","kind":"bid","args":{"collection":1,"item":1,"amount":25}}`,
		`{"origin":"bob","kind":"bid","args":{"collection":1,"item":1,"amount":1.5}}`,
		`{"kind":"bid","args":{}}`,
	}, "\n")

	out, err := execute(t, input, "--config", cfg, "--format", "json", "node", "--db", db, "--interval", "5ms")
	require.NoError(t, err)

	var result NodeResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 3, result.Rejected)
	assert.Positive(t, result.Head)
	assert.NotEmpty(t, result.StateRoot)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	events, err := st.ReadEvents(context.Background(), "BidPlaced")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ir.IRString("alice"), events[0].Payload["bidder"])

	out, err = execute(t, "", "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deterministic")
}

func TestNode_ResumesExistingChain(t *testing.T) {
	_, db := newChainDB(t)
	input := `{"origin":"bob","kind":"bid","args":{"collection":1,"item":1,"amount":50}}` + "\n"

	out, err := execute(t, input, "--format", "json", "node", "--db", db, "--interval", "5ms")
	require.NoError(t, err)

	var result NodeResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Submitted)
	assert.Greater(t, result.Head, int64(2))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	events, err := st.ReadEvents(context.Background(), "BidPlaced")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ir.IRString("bob"), events[1].Payload["bidder"])
}

func TestParseCall(t *testing.T) {
	call, err := parseCall([]byte(`{"origin":"root","kind":"set_fee_percent","args":{"fee":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "root", call.Origin)
	assert.Equal(t, ir.IRObject{"fee": ir.IRInt(3)}, call.Args)

	_, err = parseCall([]byte(`{"origin":"root","kind":"x","extra":1}`))
	assert.Error(t, err)

	_, err = parseCall([]byte(`{"origin":"root"}`))
	assert.ErrorContains(t, err, "origin and kind are required")
}
