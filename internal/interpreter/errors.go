package interpreter

import (
	"context"
	"errors"
	"fmt"
)

// Stage names where an interpretation failed.
type Stage string

const (
	StageRequest  Stage = "request"
	StageResponse Stage = "response"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

// Failure is returned for every interpretation error: the model was
// unreachable, answered with an error, or produced output that does not
// validate.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("interpret %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(stage Stage, err error) *Failure {
	return &Failure{Stage: stage, Err: err}
}

func failf(stage Stage, format string, args ...any) *Failure {
	return &Failure{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// IsFailure reports whether err came from the interpreter.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// ErrUnavailable is returned when no model is configured.
var ErrUnavailable = errors.New("interpreter not configured")

// Unavailable always fails. It stands in for the model when no API key is set.
type Unavailable struct{}

func (Unavailable) Interpret(_ context.Context, _ string, _ UserContext) (Result, error) {
	return Result{}, fail(StageRequest, ErrUnavailable)
}
