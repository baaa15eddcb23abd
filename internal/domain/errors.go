package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrConfig              = errors.New("configuration invalid")
	ErrEmptyQuestion       = errors.New("question is empty")
	ErrProviderUnreachable = errors.New("model endpoint unreachable")
	ErrSearchTimeout       = errors.New("search timed out")
	ErrFormat              = errors.New("malformed structured output")
)

// FormatError is returned when the model's structured output cannot be
// parsed or validated. It keeps the raw model text so the caller can show
// it to the user instead of a bare parse failure.
type FormatError struct {
	Raw    string // the model output that failed to parse
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// StageError wraps an error with the pipeline stage that produced it.
type StageError struct {
	Stage string // "plan", "search", "write"
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// WrapStage adds stage context to an error. Returns nil if err is nil,
// enabling idiomatic use: return domain.WrapStage("plan", err)
func WrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
