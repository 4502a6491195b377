package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vizintent/internal/vis"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	IntentOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [clause...]",
		Short: "Compile an intent into visualizations",
		Long: `Compile an intent against a dataset and print every resulting
visualization.

Clauses are given as arguments in shorthand ("?", "Horsepower|Weight",
"Origin=USA", "Year") or read from a YAML, JSON or CUE file with --intent.

Exit codes:
  0 - Intent compiled (possibly to zero visualizations)
  1 - Intent is invalid for the dataset
  2 - Command error (unreadable intent, dataset or config)

Examples:
  vizintent compile --data cars.csv '?' MilesPerGal
  vizintent compile --data cars.csv 'Origin=?' Horsepower --format json
  vizintent compile --intent explore.yaml -o charts.json`,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the visualization list as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) (err error) {
	run, err := opts.start(cmd, &opts.IntentOptions, args)
	if err != nil {
		return err
	}
	defer func() { err = run.close(err) }()

	run.f.VerboseLog("Compiling %s", run.in)
	list, err := run.c.Build(cmd.Context(), run.in, run.ds)
	if err != nil {
		return buildFailure(run.f, err)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeListToFile(list, opts.Output); err != nil {
			return run.f.Fail(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return run.f.VisList(list, opts.Output)
}

// writeListToFile writes the visualization list to a file as indented JSON.
func writeListToFile(list *vis.List, filename string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling visualizations: %w", err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
