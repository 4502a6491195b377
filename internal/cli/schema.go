package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/vizintent/internal/source"
)

// ColumnInfo describes one column as the compiler sees it.
type ColumnInfo struct {
	source.Semantics
	// Cardinality is nil when the backend cannot tell.
	Cardinality *int `json:"cardinality,omitempty"`
}

// SchemaResult holds the schema command output.
type SchemaResult struct {
	Name    string       `json:"name"`
	Kind    source.Kind  `json:"kind"`
	Rows    *int         `json:"rows,omitempty"`
	Columns []ColumnInfo `json:"columns"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [column...]",
		Short: "Show the inferred schema of a dataset",
		Long: `Show every column of a dataset with its inferred data type, data
model and distinct-value count, in schema order. Naming columns limits
the output to those columns; names match case-insensitively.

Type overrides from source.data_types in the config file are applied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd, args)
		},
	}

	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command, names []string) (err error) {
	f := opts.formatter(cmd)
	s, err := opts.open(cmd, f)
	if err != nil {
		return err
	}
	defer func() { err = s.finish(f, err) }()

	ds, err := s.openDataset(cmd.Context(), f)
	if err != nil {
		return err
	}
	defer ds.Close()

	result, err := describe(cmd.Context(), ds, names...)
	if err != nil {
		code := ErrCodeDataset
		if source.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		return f.Fail(ExitCommandError, code, err)
	}
	return outputSchema(f, result)
}

// describe reports the named columns, or all of them when names is empty.
func describe(ctx context.Context, src source.Source, names ...string) (SchemaResult, error) {
	result := SchemaResult{Name: src.Name(), Kind: src.Kind()}

	rows, ok, err := src.RowCountEstimate(ctx)
	if err != nil {
		return result, err
	}
	if ok {
		result.Rows = &rows
	}

	columns := make([]string, 0, len(names))
	for _, name := range names {
		col, err := source.Resolve(ctx, src, name)
		if err != nil {
			return result, err
		}
		columns = append(columns, col)
	}
	if len(names) == 0 {
		if columns, err = src.Columns(ctx); err != nil {
			return result, err
		}
	}
	for _, col := range columns {
		sem, err := src.Semantics(ctx, col)
		if err != nil {
			return result, err
		}
		info := ColumnInfo{Semantics: sem}
		n, ok, err := src.Cardinality(ctx, col)
		if err != nil {
			return result, err
		}
		if ok {
			info.Cardinality = &n
		}
		result.Columns = append(result.Columns, info)
	}
	return result, nil
}

func outputSchema(formatter *OutputFormatter, result SchemaResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	rows := "unknown"
	if result.Rows != nil {
		rows = fmt.Sprint(*result.Rows)
	}
	fmt.Fprintf(formatter.Writer, "%s (%s, %s rows)\n\n", result.Name, result.Kind, rows)

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMODEL\tDISTINCT")
	for _, c := range result.Columns {
		distinct := "?"
		if c.Cardinality != nil {
			distinct = fmt.Sprint(*c.Cardinality)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.DataType, c.DataModel, distinct)
	}
	return tw.Flush()
}
