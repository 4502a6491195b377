// Package intentfile reads intents from YAML and CUE files.
//
// A file holds an "intent" list and an optional "dataset". Each list entry
// is either clause shorthand ("Origin=?", "Horsepower|Weight") or a map:
//
//	intent:
//	  - "?"
//	  - attribute: Horsepower
//	    channel: x
//	  - attribute: [Origin, Brand]
//	    data_model: dimension
//	  - attribute: Origin
//	    op: "!="
//	    value: [USA, Japan]
//	dataset:
//	  path: cars.csv
//
// CUE files use the same field names; the intent list is exported to JSON
// and decoded by the YAML path, so both formats accept the same shapes.
package intentfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vizintent/internal/config"
)

// File is a decoded intent file.
type File struct {
	Intent  Clauses         `yaml:"intent"`
	Dataset *config.Dataset `yaml:"dataset,omitempty"`
}

// Error reports a problem at a position in an intent file.
type Error struct {
	File    string
	Line    int
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// Load reads path by extension: .yaml, .yml and .json through YAML,
// .cue through CUE. A relative dataset path is resolved against the
// file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent file: %w", err)
	}

	var f *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		f, err = ParseYAML(data)
	case ".cue":
		f, err = ParseCUE(path, data)
	default:
		return nil, &Error{File: path, Message: fmt.Sprintf("unsupported extension %q (want .yaml, .yml, .json or .cue)", ext)}
	}
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) && fe.File == "" {
			fe.File = path
		}
		return nil, err
	}

	if f.Dataset != nil && f.Dataset.Path != "" && !filepath.IsAbs(f.Dataset.Path) {
		f.Dataset.Path = filepath.Join(filepath.Dir(path), f.Dataset.Path)
	}
	return f, nil
}

// ParseYAML decodes a YAML (or JSON) intent document.
func ParseYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &Error{Message: err.Error()}
	}
	if f.Intent == nil {
		return nil, &Error{Message: "missing intent list"}
	}
	return &f, nil
}

// ParseCUE evaluates a CUE document and decodes its intent and dataset
// fields. Every field must be concrete.
func ParseCUE(filename string, data []byte) (*File, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &Error{File: filename, Message: fmt.Sprintf("compile CUE: %v", err)}
	}

	iv := v.LookupPath(cue.ParsePath("intent"))
	if !iv.Exists() {
		return nil, &Error{File: filename, Message: "missing intent list"}
	}
	if err := iv.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{File: filename, Message: fmt.Sprintf("intent: %v", err)}
	}
	raw, err := iv.MarshalJSON()
	if err != nil {
		return nil, &Error{File: filename, Message: fmt.Sprintf("export intent: %v", err)}
	}

	var f File
	if err := yaml.Unmarshal(raw, &f.Intent); err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			fe.File = filename
			// Lines refer to the exported JSON, not the CUE source.
			fe.Line = 0
			return nil, fe
		}
		return nil, &Error{File: filename, Message: err.Error()}
	}

	if dv := v.LookupPath(cue.ParsePath("dataset")); dv.Exists() {
		var ds config.Dataset
		if err := dv.Decode(&ds); err != nil {
			return nil, &Error{File: filename, Message: fmt.Sprintf("dataset: %v", err)}
		}
		f.Dataset = &ds
	}
	return &f, nil
}
