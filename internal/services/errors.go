package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classify stage failures for status mapping and retry
// decisions. Wrap tags errors with exactly one marker; errors.Is recovers it.
var (
	// ErrSchedule flags an invalid frequency timeline (overlap, ordering, or
	// uncovered gap without a fill policy).
	ErrSchedule = errors.New("schedule error")
	// ErrAsset flags a missing or unreadable external sample asset after
	// bounded retries.
	ErrAsset = errors.New("asset error")
	// ErrSampleRateMismatch flags stems that disagree on sample rate or
	// channel layout at mix time.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	// ErrClipping flags a post-mix peak overrun beyond the configured tolerance.
	ErrClipping = errors.New("clipping exceeded")
	// ErrLoudness flags post-mastering loudness outside tolerance, including
	// degenerate all-silence input.
	ErrLoudness = errors.New("loudness out of range")
	// ErrCancelled flags cooperative cancellation observed at a stage boundary.
	ErrCancelled = errors.New("render cancelled")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// StageError carries the failing stage, the operation within it, a
// human-readable message, and optional measured/expected values for loudness
// and clipping failures.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Measured  float64
	Expected  float64
	HasValues bool
	Err       error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.HasValues {
		detail = fmt.Sprintf("%s (measured %.2f, expected %.2f)", detail, e.Measured, e.Expected)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Marker, detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Marker, detail)
}

func (e *StageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Marker
}

func (e *StageError) Is(target error) bool {
	return errors.Is(e.Marker, target)
}

// Wrap builds a StageError tagged with the provided marker. The marker should
// be one of the exported sentinel errors above; nil defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{Marker: marker, Stage: stage, Operation: operation, Message: message, Err: err}
}

// WrapMeasured is Wrap plus the measured and expected values that loudness and
// clipping failures report to the operator.
func WrapMeasured(marker error, stage, operation, message string, measured, expected float64) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{
		Marker:    marker,
		Stage:     stage,
		Operation: operation,
		Message:   message,
		Measured:  measured,
		Expected:  expected,
		HasValues: true,
	}
}

// Details extracts the structured StageError from an error chain, falling back
// to a bare message when the error was not produced by Wrap.
func Details(err error) StageError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return *stageErr
	}
	out := StageError{Marker: ErrTransient}
	if err != nil {
		out.Message = err.Error()
	}
	return out
}

// Retryable reports whether the failure is worth a bounded retry. Only
// transient asset/IO failures qualify; every validation-class error aborts
// immediately.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) && !errors.Is(err, ErrCancelled)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
