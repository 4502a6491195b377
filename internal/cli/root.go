package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigFile  string // optional YAML/JSON/TOML config file
	LogLevel    string // overrides log.level
	LogFile     string // overrides log.file
	MetricsFile string // write build metrics here on exit (Prometheus text format)

	Data  string // overrides dataset.path
	Table string // overrides dataset.table
	Kind  string // overrides dataset.kind
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vizintent CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vizintent",
		Short: "vizintent - compile visualization intents into charts",
		Long: `Compile partial visualization intents into ranked lists of complete
visualizations.

An intent is a list of clauses naming attributes, filters and wildcards
("?", "Horsepower|Weight", "Origin=?"). vizintent expands the wildcards
against a dataset's schema, infers mark types and channel encodings, and
prints every valid visualization.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (defaults and VIZINTENT_* env apply without one)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.LogFile, "log-file", "", "also write JSON logs to this rotated file")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write build metrics to this file on exit")
	flags.StringVarP(&opts.Data, "data", "d", "", "dataset path (.csv, .arrow, .db)")
	flags.StringVar(&opts.Table, "table", "", "table name (required for sqlite)")
	flags.StringVar(&opts.Kind, "kind", "", "dataset kind (csv|arrow|sqlite); inferred from the extension when empty")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewOptionsCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
