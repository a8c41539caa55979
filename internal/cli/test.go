package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario name filter (glob pattern)
	Golden string // golden directory; defaults to <scenarios-dir>/../golden
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Updated bool     `json:"updated,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against fresh chains",
		Long: `Run every YAML scenario in a directory on its own in-memory chain.

A scenario passes when every call's expected outcome matches, its stored
blocks replay to the same roots, all assertions hold, and its trace equals
the golden file <golden>/<name>.golden when one exists. The golden directory
defaults to a "golden" directory next to the scenarios directory.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, malformed scenario, etc.)

Examples:
  gavel test ./testdata/scenarios
  gavel test ./testdata/scenarios --filter "timeout_*"
  gavel test ./testdata/scenarios --update
  gavel test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name (glob pattern)")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}
	goldenDir := opts.Golden
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}

	scenarios, err := harness.LoadDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	ctx := cmd.Context()
	logger := opts.logger(cmd.ErrOrStderr())
	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}
		sr := runScenario(ctx, s, goldenDir, opts.Update)
		logger.Debug("scenario finished", "name", s.Name, "pass", sr.Pass)
		result.Scenarios = append(result.Scenarios, sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	p := opts.printer(cmd)
	text := func(w io.Writer) { writeTestText(w, result) }
	if result.Failed > 0 {
		return p.Fail(ExitFailure, CodeTestFailed,
			fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total), result, text)
	}
	return p.OK(result, text)
}

func runScenario(ctx context.Context, s *harness.Scenario, goldenDir string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: s.Name}
	result, err := harness.Run(ctx, s)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	trace, err := harness.RenderTrace(result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("render trace: %v", err))
		return sr
	}
	goldenPath := filepath.Join(goldenDir, s.Name+".golden")
	if update {
		if err := writeGolden(goldenPath, trace); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Updated = true
	} else {
		golden, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Assertions only.
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("read golden file: %v", err))
		case !bytes.Equal(golden, trace):
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}
	sr.Pass = len(sr.Errors) == 0
	return sr
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func writeTestText(w io.Writer, result TestResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, sr := range result.Scenarios {
		switch {
		case sr.Pass && sr.Updated:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
		case sr.Pass:
			fmt.Fprintf(w, "✓ %s\n", sr.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
