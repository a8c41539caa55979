package harness

import (
	"bytes"
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gavel/internal/ir"
)

// GoldenDir holds golden traces, one file per scenario.
const GoldenDir = "testdata/golden"

// RenderTrace writes the trace as canonical JSON, one entry per line.
// State roots and call IDs are omitted, so a golden file reads as the
// story of the scenario.
func RenderTrace(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	for _, entry := range result.Trace {
		line, err := ir.MarshalCanonical(entry.Object())
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden runs a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with the golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	trace, err := RenderTrace(result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, trace)
	return nil
}
