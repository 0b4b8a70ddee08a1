// Package errs is the error taxonomy shared by the selection, search and
// alignment stages.
package errs

import (
	"fmt"
)

// ConfigError is an infeasible or malformed request, caught before any
// external process is started.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Configf makes a new ConfigError.
func Configf(format string, a ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, a...)}
}

// ToolError is a failure of an external collaborator (the aligner or a
// search backend): a non-zero exit, an empty output file, an exhausted
// polling loop.
type ToolError struct {
	// Stage is the step that failed, eg "core alignment stage"
	Stage string

	// Err is the underlying cause, may be nil
	Err error
}

func (e *ToolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error in the %s", e.Stage)
	}
	return fmt.Sprintf("error in the %s: %v", e.Stage, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Tool makes a new ToolError for the stage.
func Tool(stage string, err error) error {
	return &ToolError{Stage: stage, Err: err}
}

// ParseWarning is a non-fatal anomaly in a search report. It's logged and
// the run goes on.
type ParseWarning struct {
	// Query is the 0-based index of the query the report belongs to
	Query int

	// Msg describes the anomaly
	Msg string
}

func (w *ParseWarning) Error() string {
	return fmt.Sprintf("query %d: %s", w.Query, w.Msg)
}
