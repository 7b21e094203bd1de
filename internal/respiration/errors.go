package respiration

import (
	"errors"
	"fmt"
)

// ErrEmptyRecording is matched by every EmptyRecordingError through errors.Is.
var ErrEmptyRecording = errors.New("recording contains no samples")

// MalformedInputError is returned when the input cannot be interpreted as a
// recording: missing header, missing required column or a cell that fails to
// parse.
type MalformedInputError struct {
	Line   int    // 1-based physical line, 0 when not tied to a line
	Column string // column name, empty when not tied to a column
	Reason string
	Err    error // underlying parse error, if any
}

func NewMalformedInputError(line int, column, reason string, err error) *MalformedInputError {
	return &MalformedInputError{Line: line, Column: column, Reason: reason, Err: err}
}

func (e *MalformedInputError) Error() string {
	msg := "malformed input"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d", msg, e.Line)
	}
	if e.Column != "" {
		msg = fmt.Sprintf("%s: column %q", msg, e.Column)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// EmptyRecordingError is returned when a recording has a valid header but no
// data rows, or when an empty sample sequence reaches a calculator.
type EmptyRecordingError struct {
	Source string
}

func NewEmptyRecordingError(source string) *EmptyRecordingError {
	return &EmptyRecordingError{Source: source}
}

func (e *EmptyRecordingError) Error() string {
	if e.Source == "" {
		return ErrEmptyRecording.Error()
	}
	return fmt.Sprintf("%s: %s", e.Source, ErrEmptyRecording)
}

func (e *EmptyRecordingError) Is(target error) bool {
	return target == ErrEmptyRecording
}

// InvalidConfigurationError reports a caller contract violation, such as
// thresholds that are not strictly increasing or a non-positive bucket width.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func NewInvalidConfigurationError(field, reason string) *InvalidConfigurationError {
	return &InvalidConfigurationError{Field: field, Reason: reason}
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
