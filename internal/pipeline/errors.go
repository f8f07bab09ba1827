package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFeatureCountMismatch = errors.New("feature count mismatch")
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrInferenceFailure     = errors.New("inference failure")
)

// FeatureCountMismatchError is a client error: the request carried the wrong
// number of features for the loaded model.
type FeatureCountMismatchError struct {
	Expected      int
	Actual        int
	ExpectedNames []string
}

func (e *FeatureCountMismatchError) Error() string {
	return fmt.Sprintf("expected %d features, got %d (expected order: %s)",
		e.Expected, e.Actual, strings.Join(e.ExpectedNames, ", "))
}

func (e *FeatureCountMismatchError) Is(target error) bool {
	return target == ErrFeatureCountMismatch
}

// InferenceError records which stage failed.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool {
	return target == ErrInferenceFailure
}
