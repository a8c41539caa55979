package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each scenario under testdata/scenarios must pass and reproduce its golden
// trace.
func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRenderTrace_OneLinePerEntry(t *testing.T) {
	result, err := Run(t.Context(), mustParse(t, minimalScenario))
	require.NoError(t, err)

	out, err := RenderTrace(result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"args":{"collection":1,"item":1},"block":1,"index":0,"kind":"list","origin":"owner","outcome":"Ok","type":"call"}`+"\n"+
			`{"block":1,"index":0,"kind":"Listed","payload":{"collection":1,"item":1,"owner":"owner"},"type":"event"}`+"\n",
		string(out))
}
