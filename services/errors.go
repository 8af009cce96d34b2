package services

import (
	"fmt"
	"strings"
)

// MissingFieldsError lists required inputs that were not provided. It is
// returned before any network call is made.
type MissingFieldsError struct {
	Items []string
}

func (e *MissingFieldsError) Error() string {
	return "Please provide: " + strings.Join(e.Items, ", ")
}

// Stage names a step of an analysis run.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageMarket     Stage = "market analysis"
	StageValuation  Stage = "valuation"
	StageSynthesis  Stage = "synthesis"
)

// RunError is the terminal error of an analysis run. Message is shown to
// the user as is.
type RunError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() error { return e.Err }

func newRunError(stage Stage, err error, format string, args ...any) *RunError {
	return &RunError{Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}
