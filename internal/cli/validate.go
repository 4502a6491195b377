package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/intent"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool `json:"valid"`
	// Intent is the normalized intent: backend spellings, redundant
	// clauses dropped.
	Intent []string                   `json:"intent,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	IntentOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [clause...]",
		Short: "Validate an intent without compiling it",
		Long: `Check an intent against a dataset's schema without expanding or
compiling it.

Reports every problem at once: unknown attributes (E203, with the closest
column name), channels claimed twice (E201), an attribute pinned to two
channels (E202) and malformed clauses (E204). On success prints the
normalized intent.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	opts.register(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) (err error) {
	run, err := opts.start(cmd, &opts.IntentOptions, args)
	if err != nil {
		return err
	}
	defer func() { err = run.close(err) }()

	run.f.VerboseLog("Validating %s against %s", run.in, run.ds.Name())
	normalized, err := run.c.Validate(cmd.Context(), run.in, run.ds)
	if err != nil {
		return buildFailure(run.f, err)
	}

	return outputValidateSuccess(run.f, normalized)
}

func clauseStrings(in intent.Intent) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = c.String()
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, normalized intent.Intent) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Intent: clauseStrings(normalized)})
	}

	fmt.Fprintf(formatter.Writer, "✓ Intent valid: %s\n", normalized)
	return nil
}
