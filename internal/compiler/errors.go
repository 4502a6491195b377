package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrCodeDuplicateChannel   = "E201" // two clauses pin the same channel
	ErrCodeConflictingChannel = "E202" // one attribute pinned to two channels
	ErrCodeUnknownAttribute   = "E203" // attribute not in the schema
	ErrCodeInvalidClause      = "E204" // malformed clause
)

// Sentinels matched by errors.Is against a ValidationError.
var (
	ErrDuplicateChannel = errors.New("duplicate channel")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrInvalidClause    = errors.New("invalid clause")
)

// ValidationError describes one problem with a user intent.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`

	// Attributes lists the attributes involved, in intent order.
	Attributes []string `json:"attributes,omitempty"`
	// Channel is set for channel conflicts.
	Channel string `json:"channel,omitempty"`
	// Suggestion is the closest schema column for unknown attributes.
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Unwrap maps the code to its sentinel.
func (e ValidationError) Unwrap() error {
	switch e.Code {
	case ErrCodeDuplicateChannel, ErrCodeConflictingChannel:
		return ErrDuplicateChannel
	case ErrCodeUnknownAttribute:
		return ErrUnknownAttribute
	case ErrCodeInvalidClause:
		return ErrInvalidClause
	}
	return nil
}

// ValidationErrors is every problem found in one intent.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes each ValidationError to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, ve := range e {
		out[i] = ve
	}
	return out
}

// AsValidationErrors extracts the validation failures from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves, true
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ValidationErrors{ve}, true
	}
	return nil, false
}

// IsDuplicateChannel reports whether err includes a channel conflict.
func IsDuplicateChannel(err error) bool {
	return errors.Is(err, ErrDuplicateChannel)
}

// IsUnknownAttribute reports whether err includes an unknown attribute.
func IsUnknownAttribute(err error) bool {
	return errors.Is(err, ErrUnknownAttribute)
}

// SkipReason labels why an option produced no chart.
type SkipReason string

const (
	SkipNoAxis             SkipReason = "no axis attribute"
	SkipDuplicateAttribute SkipReason = "duplicate attribute"
	SkipMultipleTemporal   SkipReason = "multiple temporal attributes"
	SkipFilterNoMatch      SkipReason = "filter value absent"
	SkipTooManyAttributes  SkipReason = "too many attributes"
	SkipNoEncodingRule     SkipReason = "no encoding rule"
)

// SkippedOption reports an option that compiles to nothing. It is not a
// failure: Build drops the option and continues.
type SkippedOption struct {
	Reason SkipReason
	Detail string
}

// Error implements the error interface.
func (e *SkippedOption) Error() string {
	if e.Detail == "" {
		return "option skipped: " + string(e.Reason)
	}
	return fmt.Sprintf("option skipped: %s: %s", e.Reason, e.Detail)
}

func skip(reason SkipReason, format string, args ...any) error {
	return &SkippedOption{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsSkipped reports whether err is a SkippedOption.
// Uses errors.As to handle wrapped errors.
func IsSkipped(err error) bool {
	var se *SkippedOption
	return errors.As(err, &se)
}
