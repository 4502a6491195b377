package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/intent"
)

// OptionsOptions holds flags for the options command.
type OptionsOptions struct {
	*RootOptions
	IntentOptions
	Expand bool // list expanded intent options instead of per-clause candidates
}

// WildcardCandidates is the JSON view of one wildcard clause.
type WildcardCandidates struct {
	Index      int      `json:"index"`
	Clause     string   `json:"clause"`
	Candidates []string `json:"candidates"`
}

// OptionsResult holds the options command output. Exactly one of the
// fields is set.
type OptionsResult struct {
	Wildcards []WildcardCandidates `json:"wildcards,omitempty"`
	Options   [][]string           `json:"options,omitempty"`
}

// NewOptionsCommand creates the options command.
func NewOptionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OptionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "options [clause...]",
		Short: "List what the wildcards of an intent can resolve to",
		Long: `List the concrete clauses each wildcard clause of an intent can
resolve to, without compiling any visualization.

With --expand, list the full intent options instead: the Cartesian
product of all wildcard candidates, with attributes already named
elsewhere in the intent left out.

Examples:
  vizintent options --data cars.csv '?' MilesPerGal
  vizintent options --data cars.csv 'Origin=?' 'Horsepower|Weight' --expand`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(opts, args, cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.Expand, "expand", false, "list expanded intent options")

	return cmd
}

func runOptions(opts *OptionsOptions, args []string, cmd *cobra.Command) (err error) {
	run, err := opts.start(cmd, &opts.IntentOptions, args)
	if err != nil {
		return err
	}
	defer func() { err = run.close(err) }()

	ctx := cmd.Context()
	if !opts.Expand {
		sets, err := run.c.WildcardOptions(ctx, run.in, run.ds)
		if err != nil {
			return buildFailure(run.f, err)
		}
		return outputWildcards(run.f, sets)
	}

	normalized, err := run.c.Validate(ctx, run.in, run.ds)
	if err != nil {
		return buildFailure(run.f, err)
	}
	options, err := run.c.Expand(ctx, normalized, run.ds)
	if err != nil {
		return buildFailure(run.f, err)
	}
	return outputExpanded(run.f, options)
}

func outputWildcards(formatter *OutputFormatter, sets []compiler.ClauseOptions) error {
	result := OptionsResult{Wildcards: make([]WildcardCandidates, len(sets))}
	for i, set := range sets {
		result.Wildcards[i] = WildcardCandidates{
			Index:      set.Index,
			Clause:     set.Clause.String(),
			Candidates: clauseStrings(set.Candidates),
		}
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(sets) == 0 {
		fmt.Fprintln(formatter.Writer, "No wildcards in intent.")
		return nil
	}
	for _, w := range result.Wildcards {
		fmt.Fprintf(formatter.Writer, "intent[%d] %s: %d candidate(s)\n", w.Index, w.Clause, len(w.Candidates))
		for _, c := range w.Candidates {
			fmt.Fprintf(formatter.Writer, "  %s\n", c)
		}
	}
	return nil
}

func outputExpanded(formatter *OutputFormatter, options []intent.Intent) error {
	result := OptionsResult{Options: make([][]string, len(options))}
	for i, opt := range options {
		result.Options[i] = clauseStrings(opt)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d option(s)\n", len(options))
	for i, opt := range result.Options {
		fmt.Fprintf(formatter.Writer, "%3d. [%s]\n", i+1, strings.Join(opt, ", "))
	}
	return nil
}
