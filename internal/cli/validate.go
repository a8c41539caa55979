package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/chain"
	"github.com/roach88/gavel/internal/config"
)

// ConfigIssue is one problem found in a config file.
type ConfigIssue struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Errors   []ConfigIssue `json:"errors,omitempty"`
	Accounts int           `json:"accounts,omitempty"`
	Assets   int           `json:"assets,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a chain config file",
		Long: `Check a .cue or .toml chain config against the config schema and
build its genesis without starting a chain.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found, unsupported extension)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	switch ext := filepath.Ext(path); ext {
	case ".cue", ".toml":
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported config extension %q (want .cue or .toml)", ext))
	}

	p := opts.printer(cmd)
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("config not found: %s", path))
	}
	if err == nil {
		// Schema-valid configs can still name duplicate ids or reserved accounts.
		_, err = chain.New(cfg.ChainGenesis(), chain.WithLogger(discardLogger()))
	}
	if err != nil {
		result := ValidationResult{Errors: configIssues(err)}
		return p.Fail(ExitFailure, CodeConfigInvalid, err.Error(), result, func(w io.Writer) {
			fmt.Fprintf(w, "✗ %s\n", path)
			for _, issue := range result.Errors {
				if issue.Line > 0 {
					fmt.Fprintf(w, "  line %d:%d: %s\n", issue.Line, issue.Column, issue.Message)
				} else {
					fmt.Fprintf(w, "  %s\n", issue.Message)
				}
			}
		})
	}

	result := ValidationResult{Valid: true, Accounts: len(cfg.Genesis.Accounts)}
	for _, c := range cfg.Genesis.Collections {
		result.Assets += len(c.Items)
	}
	return p.OK(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s (%d accounts, %d assets)\n", path, result.Accounts, result.Assets)
	})
}

func configIssues(err error) []ConfigIssue {
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		return []ConfigIssue{{Message: err.Error()}}
	}
	out := make([]ConfigIssue, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		ci := ConfigIssue{Message: issue.Message}
		if issue.Pos.IsValid() {
			ci.File = issue.Pos.Filename()
			ci.Line = issue.Pos.Line()
			ci.Column = issue.Pos.Column()
		}
		out = append(out, ci)
	}
	return out
}
