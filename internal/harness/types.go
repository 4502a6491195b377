package harness

import (
	"github.com/roach88/vizintent/internal/vis"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// List is the compiled charts; nil when the build failed.
	List *vis.List `json:"list,omitempty"`

	// BuildErr is the error returned by the build, if any. Scenarios may
	// expect one with an error_code assertion.
	BuildErr error `json:"-"`

	// Errors holds assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
