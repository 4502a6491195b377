package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/vis"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the intent is invalid, or a scenario failed
	ExitCommandError = 2 // the command could not run: flags, files, config, dataset
)

// Command-level error codes. Intent validation reports the compiler's
// E2xx codes instead.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeConfig      = "E002" // config file or flag values rejected
	ErrCodeIntent      = "E003" // clauses or intent file unparseable
	ErrCodeDataset     = "E004" // dataset missing from config or unreadable
	ErrCodeNotFound    = "E005" // named file or column does not exist
	ErrCodeBuildFailed = "E006" // build failed outside validation
	ErrCodeWriteFailed = "E007" // output, metrics or golden file not written
)

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError count as ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as JSON envelopes or text.
// Diagnostics go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status  string    `json:"status"` // ok | error
	Data    any       `json:"data,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
	BuildID string    `json:"build_id,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success writes data as an ok envelope, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an error envelope, or an "Error [code]" line. Details are
// printed in text mode only when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err under code and returns it with the exit code attached.
func (f *OutputFormatter) Fail(exit int, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// VisList reports a built list. Text mode numbers each chart and prints
// its title underneath; wrote names the file the list was also saved to.
func (f *OutputFormatter) VisList(list *vis.List, wrote string) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: list, BuildID: list.ID()})
	}

	fmt.Fprintf(f.Writer, "✓ %d visualization(s) for %s\n", list.Len(), list.Intent())
	if list.Len() > 0 {
		fmt.Fprintln(f.Writer)
	}
	for i, v := range list.All() {
		fmt.Fprintf(f.Writer, "%3d. %s\n", i+1, v)
		if title := v.Title(); title != "" {
			fmt.Fprintf(f.Writer, "     %s\n", title)
		}
	}
	f.VerboseLog("Build %s", list.ID())
	if wrote != "" {
		fmt.Fprintf(f.Writer, "\nWrote visualizations to %s\n", wrote)
	}
	return nil
}

// Invalid reports every validation error and returns an ExitFailure
// wrapping them. The JSON error code is that of the first error.
func (f *OutputFormatter) Invalid(errs compiler.ValidationErrors) error {
	failed := WrapExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)), errs)

	if f.isJSON() {
		err := f.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		})
		if err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range errs {
		fmt.Fprintln(f.Writer, e.Field)
		fmt.Fprintf(f.Writer, "  %s: %s\n", e.Code, e.Message)
		fmt.Fprintln(f.Writer)
	}
	return failed
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
