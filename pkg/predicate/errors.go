package predicate

import (
	"errors"
	"fmt"
)

// Common errors for the predicate package.
var (
	// ErrNoValue indicates the extractor found nothing to compare.
	ErrNoValue = errors.New("no value")
	// ErrInvalidPattern indicates a pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidPath indicates a JSONPath or XPath could not be compiled.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidExpression indicates an expression could not be compiled.
	ErrInvalidExpression = errors.New("invalid expression")
)

// EvaluationError reports a faulty extractor. It is never returned to
// callers of Evaluate; the evaluator logs it and treats the predicate as false.
type EvaluationError struct {
	Extractor string
	Err       error
}

// Error implements error.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("extractor %q: %v", e.Extractor, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}
